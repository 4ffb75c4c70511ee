package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/corpix/uarand"

	apperrors "github.com/garyellow/taichung-eats-linebot/internal/errors"
)

// Client downloads files over HTTP with a browser User-Agent and retries
// transient failures.
type Client struct {
	httpClient *http.Client
	maxRetries int
	retryDelay time.Duration
}

// NewClient creates a download client.
func NewClient(timeout time.Duration, maxRetries int) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 2,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		maxRetries: maxRetries,
		retryDelay: time.Second,
	}
}

// Get fetches url and returns the body. A 404 wraps apperrors.ErrNotFound;
// other 4xx are not retried; 5xx and transport errors are.
func (c *Client) Get(ctx context.Context, url string, header http.Header) ([]byte, error) {
	var data []byte
	err := RetryWithBackoff(ctx, c.maxRetries, c.retryDelay, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return Permanent(fmt.Errorf("create request: %w", err))
		}
		for k, vs := range header {
			for _, v := range vs {
				req.Header.Add(k, v)
			}
		}
		req.Header.Set("User-Agent", uarand.GetRandom())

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("%w: %w", apperrors.ErrRequestFailed, err)
		}
		defer func() { _ = resp.Body.Close() }()

		switch {
		case resp.StatusCode == http.StatusNotFound:
			return Permanent(fmt.Errorf("%s: %w", redact(url), apperrors.ErrNotFound))
		case resp.StatusCode >= http.StatusInternalServerError, resp.StatusCode == http.StatusTooManyRequests:
			return apperrors.NewHTTPStatusError(redact(url), resp.StatusCode)
		case resp.StatusCode >= http.StatusBadRequest:
			return Permanent(apperrors.NewHTTPStatusError(redact(url), resp.StatusCode))
		}

		data, err = io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read body: %w", err)
		}
		return nil
	})
	return data, err
}
