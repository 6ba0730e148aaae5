package services

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// uploadURLTTL is how long an issued upload URL stays valid
const uploadURLTTL = time.Hour

// Storage issues pre-signed PUT URLs so clients upload directly to object
// storage without routing the file through this server. It never verifies
// that the upload actually happened and keeps no record of issued keys.
type Storage struct {
	presigner *s3.PresignClient
	bucket    string
	publicURL string
}

// StorageConfig holds object storage settings
type StorageConfig struct {
	Endpoint  string // S3-compatible endpoint, empty for AWS
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	PublicURL string // Base URL objects are readable from after upload
}

// StorageConfigFromEnv reads S3_* environment variables
func StorageConfigFromEnv() StorageConfig {
	return StorageConfig{
		Endpoint:  os.Getenv("S3_ENDPOINT"),
		Region:    os.Getenv("S3_REGION"),
		Bucket:    os.Getenv("S3_BUCKET"),
		AccessKey: os.Getenv("S3_ACCESS_KEY"),
		SecretKey: os.Getenv("S3_SECRET_KEY"),
		PublicURL: os.Getenv("S3_PUBLIC_URL"),
	}
}

// NewStorage creates the upload broker
func NewStorage(cfg StorageConfig) (*Storage, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("S3_BUCKET is not configured")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load storage config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	publicURL := strings.TrimSuffix(cfg.PublicURL, "/")
	if publicURL == "" {
		publicURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, region)
	}

	return &Storage{
		presigner: s3.NewPresignClient(client),
		bucket:    cfg.Bucket,
		publicURL: publicURL,
	}, nil
}

// PresignUpload returns a one-hour PUT URL for the given file plus the
// public URL the object will be readable from once the client uploads it.
func (s *Storage) PresignUpload(ctx context.Context, fileName, fileType string) (uploadURL, fileURL string, err error) {
	key := objectKey(fileName)

	req, err := s.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(fileType),
	}, s3.WithPresignExpires(uploadURLTTL))
	if err != nil {
		return "", "", fmt.Errorf("failed to presign upload: %w", err)
	}

	return req.URL, s.publicURL + "/" + key, nil
}

// objectKey namespaces the file name with a timestamp prefix. The
// millisecond timestamp plus original name is assumed unique enough; there
// is no collision retry.
func objectKey(fileName string) string {
	name := strings.ReplaceAll(fileName, "/", "-")
	name = strings.ReplaceAll(name, " ", "-")
	return fmt.Sprintf("%d-%s", time.Now().UnixMilli(), name)
}
