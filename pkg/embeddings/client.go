// Package embeddings provides embedding generation functionality.
package embeddings

import (
	"context"
	"errors"
)

// ErrDisabled is returned when embedding generation is requested but no
// provider credential is configured.
var ErrDisabled = errors.New("embeddings are not configured")

// Client provides embedding generation functionality
type Client interface {
	// EmbedQuery generates an embedding vector for the given text
	EmbedQuery(ctx context.Context, query string) ([]float32, error)
}

// NoopClient is the stand-in used when embeddings are disabled. It fails
// every request rather than answering with an empty vector, so a missing
// credential surfaces as an error instead of NULL results downstream.
type NoopClient struct{}

// NewNoopClient creates a new NoopClient
func NewNoopClient() *NoopClient {
	return &NoopClient{}
}

// EmbedQuery always returns ErrDisabled
func (c *NoopClient) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	return nil, ErrDisabled
}
