package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-index/internal/core/domain"
	"github.com/custodia-labs/sercha-index/internal/logger"
)

// Config configures the Qdrant client.
type Config struct {
	// URL is the server base address, e.g. http://localhost:6333.
	URL string

	// APIKey is sent in the api-key header when set.
	APIKey string

	// Timeout bounds each HTTP request. Defaults to 30 seconds.
	Timeout time.Duration

	// RequestsPerSecond and Burst configure client-side throttling.
	RequestsPerSecond float64
	Burst             int

	// MaxRetries is how many times a 429 response is retried. Defaults to 3.
	MaxRetries int

	// HTTPClient overrides the default client. Timeout is ignored when set.
	HTTPClient *http.Client
}

// APIError is a non-2xx response from Qdrant.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("qdrant %s %s: %d %s", e.Method, e.Path, e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("qdrant %s %s: %d: %s", e.Method, e.Path, e.StatusCode, e.Message)
}

func isNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

type client struct {
	baseURL    string
	apiKey     string
	http       *http.Client
	limiter    *RateLimiter
	maxRetries int
}

func newClient(cfg Config) (*client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("%w: qdrant url is required", domain.ErrInvalidInput)
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &client{
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		apiKey:     cfg.APIKey,
		http:       httpClient,
		limiter:    NewRateLimiter(cfg.RequestsPerSecond, cfg.Burst),
		maxRetries: maxRetries,
	}, nil
}

// envelope is the common Qdrant response wrapper.
type envelope struct {
	Result json.RawMessage `json:"result"`
	Status json.RawMessage `json:"status"`
}

// do sends a JSON request and decodes the "result" field into out.
func (c *client) do(ctx context.Context, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
	}

	for attempt := 0; ; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(payload))
		if err != nil {
			return fmt.Errorf("building request: %w", err)
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if c.apiKey != "" {
			req.Header.Set("api-key", c.apiKey)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return fmt.Errorf("%w: %s %s: %v", domain.ErrStoreUnavailable, method, path, err)
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"))
			drain(resp)
			c.limiter.RecordRateLimitError(retryAfter)
			if attempt >= c.maxRetries {
				return fmt.Errorf("qdrant %s %s: %w", method, path, domain.ErrRateLimited)
			}
			logger.Debug("qdrant %s %s rate limited, retrying in %s", method, path, retryAfter)
			continue
		}

		return decode(resp, method, path, out)
	}
}

func decode(resp *http.Response, method, path string, out any) error {
	defer drain(resp)

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 300 {
		apiErr := &APIError{Method: method, Path: path, StatusCode: resp.StatusCode}
		var env struct {
			Status struct {
				Error string `json:"error"`
			} `json:"status"`
		}
		if json.Unmarshal(data, &env) == nil {
			apiErr.Message = env.Status.Error
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	if err := json.Unmarshal(env.Result, out); err != nil {
		return fmt.Errorf("decoding result: %w", err)
	}
	return nil
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}

// parseRetryAfter reads a Retry-After header given in seconds.
// It returns -1 when the header is missing or malformed.
func parseRetryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || secs < 0 {
		return -1
	}
	return time.Duration(secs) * time.Second
}
