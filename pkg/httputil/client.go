package httputil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"

	"github.com/wonny/synthlab/backend/pkg/logger"
)

// Client is an HTTP client wrapper with rate limiting, retry and logging
// ⭐ SSOT: 모든 외부 HTTP 요청은 이 클라이언트를 통해서만 수행
type Client struct {
	httpClient  *http.Client
	logger      *logger.Logger
	limiter     *rate.Limiter
	retryConfig RetryConfig
}

// RetryConfig holds retry configuration
type RetryConfig struct {
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Enabled      bool
}

// Options configures a Client. Zero values fall back to defaults.
type Options struct {
	Timeout        time.Duration
	RequestsPerSec int
	MaxRetries     int
}

// StatusError is returned for non-2xx responses
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

// New creates a new HTTP client
// ⭐ SSOT: http.Client 인스턴스는 여기서만 생성
func New(opts Options, log *logger.Logger) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.RequestsPerSec <= 0 {
		opts.RequestsPerSec = 5
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}

	return &Client{
		httpClient: &http.Client{Timeout: opts.Timeout},
		logger:     log,
		limiter:    rate.NewLimiter(rate.Limit(opts.RequestsPerSec), opts.RequestsPerSec),
		retryConfig: RetryConfig{
			MaxRetries:   opts.MaxRetries,
			InitialDelay: 500 * time.Millisecond,
			MaxDelay:     10 * time.Second,
			Enabled:      opts.MaxRetries > 0,
		},
	}
}

// WithRetry configures retry behavior
func (c *Client) WithRetry(maxRetries int, initialDelay time.Duration) *Client {
	c.retryConfig.MaxRetries = maxRetries
	c.retryConfig.InitialDelay = initialDelay
	c.retryConfig.Enabled = maxRetries > 0
	return c
}

// DisableRetry disables automatic retry
func (c *Client) DisableRetry() *Client {
	c.retryConfig.Enabled = false
	return c
}

// PostJSON posts data as JSON and decodes a 2xx JSON response into out (if non-nil)
func (c *Client) PostJSON(ctx context.Context, url string, data interface{}, out interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	body, err := c.do(ctx, http.MethodPost, url, payload)
	if err != nil {
		return err
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// GetJSON performs a GET and decodes a 2xx JSON response into out
func (c *Client) GetJSON(ctx context.Context, url string, out interface{}) error {
	body, err := c.do(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// do executes the request with rate limiting, retry and logging and returns the body
func (c *Client) do(ctx context.Context, method, url string, payload []byte) ([]byte, error) {
	startTime := time.Now()
	attempts := 0

	operation := func() ([]byte, error) {
		attempts++

		if err := c.limiter.Wait(ctx); err != nil {
			return nil, backoff.Permanent(fmt.Errorf("rate limit wait failed: %w", err))
		}

		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}

		req, err := http.NewRequestWithContext(ctx, method, url, reader)
		if err != nil {
			return nil, backoff.Permanent(fmt.Errorf("failed to create %s request: %w", method, err))
		}
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, backoff.Permanent(err)
			}
			return nil, err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read response: %w", err)
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			statusErr := &StatusError{StatusCode: resp.StatusCode, Body: truncate(string(body), 256)}
			if IsRetryableStatus(resp.StatusCode) {
				return nil, statusErr
			}
			return nil, backoff.Permanent(statusErr)
		}

		return body, nil
	}

	var policy backoff.BackOff = &backoff.StopBackOff{}
	if c.retryConfig.Enabled {
		exp := backoff.NewExponentialBackOff()
		exp.InitialInterval = c.retryConfig.InitialDelay
		exp.MaxInterval = c.retryConfig.MaxDelay
		policy = backoff.WithMaxRetries(exp, uint64(c.retryConfig.MaxRetries))
	}

	notify := func(err error, delay time.Duration) {
		c.logger.WithFields(map[string]interface{}{
			"method": method,
			"url":    url,
			"delay":  delay,
			"error":  err.Error(),
		}).Warn("Retrying HTTP request")
	}

	body, err := backoff.RetryNotifyWithData(operation, backoff.WithContext(policy, ctx), notify)

	fields := map[string]interface{}{
		"method":   method,
		"url":      url,
		"attempts": attempts,
		"duration": time.Since(startTime),
	}
	if err != nil {
		c.logger.WithFields(fields).WithError(err).Error("HTTP request failed")
		return nil, err
	}

	c.logger.WithFields(fields).Debug("HTTP request completed")
	return body, nil
}

// IsRetryableStatus reports whether a status code should be retried
func IsRetryableStatus(statusCode int) bool {
	return statusCode >= 500 || statusCode == http.StatusTooManyRequests
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
