package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"solana-sniper-core/internal/observability"
)

// Default batch configuration values.
const (
	DefaultBatchURL     = "https://pump.fun/api/tokens"
	DefaultBatchTimeout = 10 * time.Second
	maxBatchBody        = 8 << 20
)

// BatchClient performs one-shot listing fetches.
type BatchClient struct {
	url    string
	client *http.Client
	logger *zap.Logger
}

// BatchOption configures BatchClient.
type BatchOption func(*BatchClient)

// WithBatchTimeout sets HTTP client timeout.
func WithBatchTimeout(d time.Duration) BatchOption {
	return func(c *BatchClient) {
		c.client.Timeout = d
	}
}

// WithBatchHTTPClient sets custom http.Client.
func WithBatchHTTPClient(client *http.Client) BatchOption {
	return func(c *BatchClient) {
		c.client = client
	}
}

// WithBatchLogger sets the logger.
func WithBatchLogger(logger *zap.Logger) BatchOption {
	return func(c *BatchClient) {
		c.logger = logger
	}
}

// NewBatchClient creates a batch client for url; empty url uses DefaultBatchURL.
func NewBatchClient(url string, opts ...BatchOption) *BatchClient {
	if url == "" {
		url = DefaultBatchURL
	}
	c := &BatchClient{
		url:    url,
		client: &http.Client{Timeout: DefaultBatchTimeout},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.Named("batch")
	return c
}

// Fetch returns the listings payload as-is. The body must be JSON but is
// otherwise not validated.
func (c *BatchClient) Fetch(ctx context.Context) (raw json.RawMessage, err error) {
	start := time.Now()
	defer func() {
		observability.RecordBatchFetch(time.Since(start).Seconds(), err)
		if err != nil {
			c.logger.Warn("batch fetch failed", zap.String("url", c.url), zap.Error(err))
		}
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBatchBody))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("response is not JSON")
	}
	return json.RawMessage(body), nil
}
