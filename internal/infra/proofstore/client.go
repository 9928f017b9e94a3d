package proofstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"credlink/internal/usecase"
)

const (
	defaultTimeout  = 3 * time.Second
	defaultMaxBytes = 4 * 1024 * 1024
	userAgent       = "credlink-verifier/1.0"
)

// Client fetches remote manifest proofs over HTTP. A 404 is a definitive
// not-found; transport failures and non-2xx responses are errors the
// caller maps to an unavailable proof.
type Client struct {
	httpClient *http.Client
	maxBytes   int64
}

func NewClient(timeout time.Duration, maxBytes int) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	limit := int64(maxBytes)
	if limit <= 0 {
		limit = defaultMaxBytes
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		maxBytes:   limit,
	}
}

func (c *Client) Fetch(ctx context.Context, uri string) ([]byte, error) {
	if uri == "" {
		return nil, errors.New("proof uri is empty")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, fmt.Errorf("build proof request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch proof: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("proof store returned %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read proof body: %w", err)
	}
	if int64(len(body)) > c.maxBytes {
		return nil, fmt.Errorf("proof exceeds %d bytes", c.maxBytes)
	}
	return body, nil
}

var _ usecase.ProofStore = (*Client)(nil)
