package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/bryanwahyu/docutrust/internal/domain/revsearch"
)

// Client calls an external reverse-image-search service. Absence of the
// service is expected in most deployments; callers treat ErrNotSearched
// as a soft miss.
type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
}

func NewClient(endpoint, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		endpoint: endpoint,
		apiKey:   apiKey,
		http:     &http.Client{Timeout: timeout},
	}
}

func (c *Client) Matches(ctx context.Context, image []byte) (int, error) {
	if c.endpoint == "" {
		return 0, revsearch.ErrNotSearched
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(image))
	if err != nil {
		return 0, revsearch.ErrNotSearched
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, revsearch.ErrNotSearched
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("reverse search returned %d: %w", resp.StatusCode, revsearch.ErrNotSearched)
	}

	var body struct {
		Matches int `json:"matches"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, revsearch.ErrNotSearched
	}
	return body.Matches, nil
}
