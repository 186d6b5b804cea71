package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrEmptyResult marks a well-formed response that carried no usable data.
var ErrEmptyResult = errors.New("empty result")

// ErrPartialResult accompanies data that is usable but incomplete.
var ErrPartialResult = errors.New("partial result")

// HTTPError represents a non-success HTTP status.
type HTTPError struct {
	StatusCode int
	Message    string
	URL        string
	Body       []byte
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("http error %d: %s", e.StatusCode, e.Message)
}

// IsRetryable returns true if the status should trigger a retry.
func (e *HTTPError) IsRetryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == 429
}

// IsRetryable reports whether err is worth another attempt: retryable
// statuses, empty results and transport failures.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.IsRetryable()
	}
	if errors.Is(err, ErrEmptyResult) {
		return true
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}

// Get performs a paced GET with retries and returns the body.
func (c *Client) Get(ctx context.Context, rawURL string, query url.Values) ([]byte, error) {
	if len(query) > 0 {
		sep := "?"
		if strings.Contains(rawURL, "?") {
			sep = "&"
		}
		rawURL += sep + query.Encode()
	}

	var body []byte
	err := c.Retry(ctx, rawURL, func(ctx context.Context) error {
		var err error
		body, err = c.doRequest(ctx, http.MethodGet, rawURL, nil, "")
		return err
	})
	return body, err
}

// PostForm performs a paced form POST with retries and returns the body.
func (c *Client) PostForm(ctx context.Context, rawURL string, form url.Values) ([]byte, error) {
	encoded := form.Encode()

	var body []byte
	err := c.Retry(ctx, rawURL, func(ctx context.Context) error {
		var err error
		body, err = c.doRequest(ctx, http.MethodPost, rawURL, strings.NewReader(encoded), "application/x-www-form-urlencoded")
		return err
	})
	return body, err
}

// GetJSON performs a GET and unmarshals the body into result.
func (c *Client) GetJSON(ctx context.Context, rawURL string, query url.Values, result any) error {
	body, err := c.Get(ctx, rawURL, query)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}

	return nil
}

// Retry runs fn up to the configured number of attempts, waiting the fixed
// backoff between attempts. Errors that are not retryable return immediately.
func (c *Client) Retry(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	var lastErr error

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if attempt > 1 {
			c.logger.Warn("retrying request",
				"op", op,
				"attempt", attempt,
				"max_attempts", c.maxAttempts,
				"backoff", c.retryBackoff,
				"error", lastErr,
			)

			if err := sleep(ctx, c.retryBackoff); err != nil {
				return err
			}
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}

		lastErr = err
		if ctx.Err() != nil || !IsRetryable(err) {
			return err
		}
	}

	return fmt.Errorf("max attempts exceeded: %w", lastErr)
}

// doRequest waits for the limiter and performs one HTTP request.
func (c *Client) doRequest(ctx context.Context, method, rawURL string, body io.Reader, contentType string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("wait for rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	c.logger.Debug("http request",
		"method", method,
		"url", rawURL,
		"status", resp.StatusCode,
		"bytes", len(data),
	)

	if resp.StatusCode >= 400 {
		return nil, &HTTPError{
			StatusCode: resp.StatusCode,
			Message:    http.StatusText(resp.StatusCode),
			URL:        rawURL,
			Body:       data,
		}
	}

	return data, nil
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Pause sleeps for d unless ctx is cancelled first. Sources use it for
// explicit pacing between requests that must not run back to back.
func Pause(ctx context.Context, d time.Duration) error {
	return sleep(ctx, d)
}
