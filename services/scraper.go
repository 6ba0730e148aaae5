package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"
)

// Scraper is the client for the external content-extraction service. Each
// call is independent: input -> request -> response -> result struct.
type Scraper struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// ExtractResult holds whatever the extraction service returned. All fields
// are optional; absent or unparseable values stay nil.
type ExtractResult struct {
	Title       *string
	Content     *string
	Author      *string
	CoverImage  *string
	PublishedAt *time.Time
}

// extractResponse is the wire format of the extraction service
type extractResponse struct {
	Title         *string `json:"title"`
	Content       *string `json:"content"`
	Author        *string `json:"author"`
	DatePublished *string `json:"date_published"`
	LeadImageURL  *string `json:"lead_image_url"`
}

// NewScraper creates a scraper client for the given service endpoint
func NewScraper(baseURL, apiKey string) *Scraper {
	return &Scraper{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// NewScraperFromEnv builds the client from SCRAPER_URL / SCRAPER_API_KEY
func NewScraperFromEnv() *Scraper {
	return NewScraper(os.Getenv("SCRAPER_URL"), os.Getenv("SCRAPER_API_KEY"))
}

// Extract asks the extraction service to scrape the given page URL.
func (s *Scraper) Extract(ctx context.Context, pageURL string) (*ExtractResult, error) {
	if s == nil || s.baseURL == "" {
		return nil, fmt.Errorf("scraper service URL is not configured")
	}

	body, err := json.Marshal(map[string]string{"url": pageURL})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/extract", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("scrape request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("scrape service returned status %d", resp.StatusCode)
	}

	var wire extractResponse
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return nil, fmt.Errorf("invalid scrape response: %w", err)
	}

	result := &ExtractResult{
		Title:      wire.Title,
		Content:    wire.Content,
		Author:     wire.Author,
		CoverImage: wire.LeadImageURL,
	}
	if wire.DatePublished != nil {
		// Best effort: a date the service returns in an unknown format is
		// dropped, not an error.
		result.PublishedAt = parsePublishDate(*wire.DatePublished)
	}
	return result, nil
}

// publishDateLayouts are tried in order when parsing extracted dates
var publishDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05.000Z",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parsePublishDate(raw string) *time.Time {
	for _, layout := range publishDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t
		}
	}
	return nil
}
