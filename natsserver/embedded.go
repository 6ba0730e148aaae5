// Package natsserver provides the embedded NATS server backing the event feed
package natsserver

import (
	"fmt"
	"log"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
)

// EmbeddedNATS wraps an embedded NATS server with a client connection
type EmbeddedNATS struct {
	server *server.Server
	conn   *nats.Conn
	port   int
}

// Config holds configuration for the embedded NATS server
type Config struct {
	Port       int
	MaxPayload int32 // Max message size in bytes
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Port:       4222,
		MaxPayload: 1024 * 1024, // 1MB, events are small JSON documents
	}
}

// New creates and starts an embedded NATS server
func New(cfg Config) (*EmbeddedNATS, error) {
	if cfg.MaxPayload <= 0 {
		cfg.MaxPayload = DefaultConfig().MaxPayload
	}

	opts := &server.Options{
		Host:          "0.0.0.0",
		Port:          cfg.Port,
		NoLog:         true,
		NoSigs:        true,
		MaxPayload:    cfg.MaxPayload,
		WriteDeadline: 10 * time.Second,
	}

	ns, err := server.NewServer(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create NATS server: %w", err)
	}

	// Start server in background
	go ns.Start()

	// Wait for server to be ready
	if !ns.ReadyForConnections(5 * time.Second) {
		return nil, fmt.Errorf("NATS server not ready after 5 seconds")
	}

	// Create internal client connection
	nc, err := nats.Connect(
		fmt.Sprintf("nats://localhost:%d", cfg.Port),
		nats.Name("mapmark-internal"),
		nats.ReconnectWait(time.Second),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		ns.Shutdown()
		return nil, fmt.Errorf("failed to connect to embedded NATS: %w", err)
	}

	log.Printf("📡 Embedded NATS server started on port %d", cfg.Port)

	return &EmbeddedNATS{
		server: ns,
		conn:   nc,
		port:   cfg.Port,
	}, nil
}

// Publish publishes a message to a subject
func (e *EmbeddedNATS) Publish(subject string, data []byte) error {
	return e.conn.Publish(subject, data)
}

// Subscribe subscribes to a subject
func (e *EmbeddedNATS) Subscribe(subject string, handler nats.MsgHandler) (*nats.Subscription, error) {
	return e.conn.Subscribe(subject, handler)
}

// Conn returns the underlying NATS connection
func (e *EmbeddedNATS) Conn() *nats.Conn {
	return e.conn
}

// Address returns the NATS server address
func (e *EmbeddedNATS) Address() string {
	return fmt.Sprintf("nats://localhost:%d", e.port)
}

// NumClients returns the number of connected clients
func (e *EmbeddedNATS) NumClients() int {
	return e.server.NumClients()
}

// NumSubscriptions returns total active subscriptions
func (e *EmbeddedNATS) NumSubscriptions() uint32 {
	return e.server.NumSubscriptions()
}

// Shutdown gracefully shuts down the NATS server
func (e *EmbeddedNATS) Shutdown() {
	if e.conn != nil {
		e.conn.Close()
	}
	if e.server != nil {
		e.server.Shutdown()
	}
	log.Println("📡 NATS server shut down")
}
