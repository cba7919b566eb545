// Package vertex provides a Google Vertex AI embeddings client.
package vertex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"time"

	"golang.org/x/oauth2/google"
)

const (
	// DefaultModel is the default embedding model
	DefaultModel = "text-embedding-004"

	// DefaultMaxRetries is the default number of retries
	DefaultMaxRetries = 3

	// DefaultBaseDelay is the base delay for exponential backoff
	DefaultBaseDelay = 100 * time.Millisecond

	// DefaultMaxDelay is the maximum delay for exponential backoff
	DefaultMaxDelay = 10 * time.Second

	// DefaultTimeout is the default HTTP timeout
	DefaultTimeout = 30 * time.Second
)

// Config holds the configuration for the Vertex AI client
type Config struct {
	ProjectID string
	Location  string
	Model     string
	Timeout   time.Duration
}

// Client is a Vertex AI embeddings client
type Client struct {
	projectID  string
	location   string
	model      string
	httpClient *http.Client
	creds      *google.Credentials
	log        *slog.Logger

	// Retry configuration
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
}

// ClientOption configures the Client
type ClientOption func(*Client)

// WithMaxRetries sets the maximum number of retries
func WithMaxRetries(n int) ClientOption {
	return func(c *Client) {
		c.maxRetries = n
	}
}

// WithLogger sets the logger
func WithLogger(log *slog.Logger) ClientOption {
	return func(c *Client) {
		c.log = log
	}
}

// NewClient creates a new Vertex AI embeddings client
func NewClient(ctx context.Context, cfg Config, opts ...ClientOption) (*Client, error) {
	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("project ID is required")
	}
	if cfg.Location == "" {
		return nil, fmt.Errorf("location is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	// Get default credentials
	creds, err := google.FindDefaultCredentials(ctx, "https://www.googleapis.com/auth/cloud-platform")
	if err != nil {
		return nil, fmt.Errorf("failed to find default credentials: %w", err)
	}

	c := &Client{
		projectID: cfg.ProjectID,
		location:  cfg.Location,
		model:     cfg.Model,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		creds:      creds,
		log:        slog.Default(),
		maxRetries: DefaultMaxRetries,
		baseDelay:  DefaultBaseDelay,
		maxDelay:   DefaultMaxDelay,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// predictRequest is the request body for the predict API
type predictRequest struct {
	Instances []instance `json:"instances"`
}

type instance struct {
	Content  string `json:"content"`
	TaskType string `json:"task_type"`
}

// predictResponse is the response from the predict API
type predictResponse struct {
	Predictions []prediction `json:"predictions"`
}

type prediction struct {
	Embeddings embeddingResult `json:"embeddings"`
}

type embeddingResult struct {
	Values []float32 `json:"values"`
}

// EmbedQuery generates an embedding for a single text
func (c *Client) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	url := fmt.Sprintf(
		"https://%s-aiplatform.googleapis.com/v1/projects/%s/locations/%s/publishers/google/models/%s:predict",
		c.location, c.projectID, c.location, c.model,
	)

	reqBody := predictRequest{
		Instances: []instance{{
			Content:  query,
			TaskType: "RETRIEVAL_QUERY",
		}},
	}
	reqBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	// Execute with retries
	var resp *predictResponse
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := c.calculateBackoff(attempt)
			c.log.Debug("retrying embedding request",
				slog.Int("attempt", attempt),
				slog.Duration("delay", delay),
			)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		resp, lastErr = c.doRequest(ctx, url, reqBytes)
		if lastErr == nil {
			break
		}

		// Don't retry on context cancellation
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		c.log.Warn("embedding request failed",
			slog.Int("attempt", attempt),
			slog.String("error", lastErr.Error()),
		)
	}

	if lastErr != nil {
		return nil, fmt.Errorf("all retries exhausted: %w", lastErr)
	}

	if len(resp.Predictions) == 0 {
		return nil, fmt.Errorf("no embedding returned")
	}
	return resp.Predictions[0].Embeddings.Values, nil
}

// doRequest executes a single HTTP request
func (c *Client) doRequest(ctx context.Context, url string, body []byte) (*predictResponse, error) {
	// Get access token
	token, err := c.creds.TokenSource.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to get access token: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+token.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error %d: %s", resp.StatusCode, string(respBody))
	}

	var result predictResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return &result, nil
}

// calculateBackoff calculates the backoff delay for a given attempt
func (c *Client) calculateBackoff(attempt int) time.Duration {
	delay := float64(c.baseDelay) * math.Pow(2, float64(attempt-1))
	if delay > float64(c.maxDelay) {
		delay = float64(c.maxDelay)
	}
	return time.Duration(delay)
}
