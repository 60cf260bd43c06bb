// Package rocketreach implements the outbound RocketReach API client with
// per-tenant settings resolution, bounded retry with jittered exponential
// backoff, per-tenant concurrency limiting, and usage accounting.
//
// Retry classification is deliberately narrow: only 429 (rate limited) and
// 503 (temporarily unavailable) responses and transport failures are retried.
// Every other non-2xx status is terminal on the first sighting. Exactly one
// usage record is written per call, on the terminal outcome, never per
// attempt.
package rocketreach

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/haasonsaas/leadflow/internal/retry"
	"github.com/haasonsaas/leadflow/internal/settings"
	"github.com/haasonsaas/leadflow/internal/usage"
	"github.com/haasonsaas/leadflow/pkg/models"
)

// Provider is the provider key used in settings, usage, and audit records.
const Provider = "rocketreach"

const (
	apiKeyHeader   = "Api-Key"
	defaultTimeout = 30 * time.Second
)

// CallOptions shapes a single API request.
type CallOptions struct {
	// Method defaults to GET.
	Method string

	// Query parameters; empty values are omitted from the URL.
	Query url.Values

	// Body is JSON-encoded when non-nil.
	Body any
}

// Client issues RocketReach API calls on behalf of tenants.
type Client struct {
	resolver *settings.Resolver
	http     *http.Client
	usage    usage.Observer
	logger   *slog.Logger

	// delay computes the backoff before retry attempt n. Overridable in
	// tests to avoid jitter nondeterminism.
	delay func(policy retry.Policy, attempt int) time.Duration

	mu         sync.Mutex
	semaphores map[string]chan struct{}
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithUsageObserver sets the usage sink. Defaults to a no-op observer.
func WithUsageObserver(o usage.Observer) Option {
	return func(c *Client) { c.usage = o }
}

// NewClient creates a client backed by the given settings resolver.
func NewClient(resolver *settings.Resolver, logger *slog.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{
		resolver: resolver,
		http:     &http.Client{Timeout: defaultTimeout},
		usage:    usage.NopObserver{},
		logger:   logger.With("component", "rocketreach"),
		delay: func(policy retry.Policy, attempt int) time.Duration {
			return policy.DelayWithJitter(attempt)
		},
		semaphores: make(map[string]chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Call issues one API call for the tenant, retrying throttled and
// temporarily-unavailable responses up to the tenant's retry budget. It
// returns the raw JSON response body on success.
func (c *Client) Call(ctx context.Context, tenantID, path string, opts CallOptions) (json.RawMessage, error) {
	resolved, err := c.resolver.Resolve(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	release, err := c.acquire(ctx, tenantID, resolved.Concurrency)
	if err != nil {
		return nil, err
	}
	defer release()

	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}

	endpoint, err := buildURL(resolved.BaseURL, path, opts.Query)
	if err != nil {
		return nil, err
	}

	var body []byte
	if opts.Body != nil {
		body, err = json.Marshal(opts.Body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
	}

	start := time.Now()
	policy := resolved.RetryPolicy
	var lastStatus int
	var lastErr error

	for attempt := 0; attempt <= policy.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := c.delay(policy, attempt-1)
			c.logger.Warn("retrying after throttle",
				"tenant_id", tenantID,
				"path", path,
				"attempt", attempt,
				"status", lastStatus,
				"backoff", backoff,
			)
			if err := retry.Sleep(ctx, backoff); err != nil {
				return nil, err
			}
		}

		status, respBody, err := c.attempt(ctx, method, endpoint, body, resolved.APIKey)
		if err != nil {
			// Transport failure: retryable until the budget runs out.
			lastErr = err
			lastStatus = 0
			continue
		}
		lastStatus = status
		lastErr = nil

		switch {
		case status == http.StatusTooManyRequests, status == http.StatusServiceUnavailable:
			continue

		case status >= 200 && status < 300:
			c.record(ctx, tenantID, method, path, models.UsageSuccess, time.Since(start), "")
			return respBody, nil

		default:
			terminal := &TerminalError{Status: status, Body: snippet(respBody)}
			c.record(ctx, tenantID, method, path, models.UsageError, time.Since(start), terminal.Error())
			// Marked permanent so callers share the retry package's
			// terminal/retryable vocabulary.
			return nil, retry.Permanent(terminal)
		}
	}

	exhausted := fmt.Errorf("%w: %s %s after %d attempts (last status %d)",
		ErrRetriesExhausted, method, path, policy.MaxRetries+1, lastStatus)
	if lastErr != nil {
		exhausted = fmt.Errorf("%w: %s %s after %d attempts: %v",
			ErrRetriesExhausted, method, path, policy.MaxRetries+1, lastErr)
	}
	c.record(ctx, tenantID, method, path, models.UsageError, time.Since(start), exhausted.Error())
	return nil, exhausted
}

// attempt performs one HTTP round trip and drains the body.
func (c *Client) attempt(ctx context.Context, method, endpoint string, body []byte, apiKey string) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set(apiKeyHeader, apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, respBody, nil
}

// record writes the single terminal usage record for a call.
func (c *Client) record(ctx context.Context, tenantID, method, path string, status models.UsageStatus, elapsed time.Duration, errMsg string) {
	c.usage.Observe(ctx, &models.UsageRecord{
		TenantID:   tenantID,
		Provider:   Provider,
		Endpoint:   path,
		Method:     method,
		Units:      1,
		Status:     status,
		DurationMs: elapsed.Milliseconds(),
		Error:      errMsg,
	})
}

// acquire blocks until a per-tenant concurrency slot is free. The semaphore
// is sized on first use; a later concurrency change takes effect after
// process restart.
func (c *Client) acquire(ctx context.Context, tenantID string, concurrency int) (func(), error) {
	if concurrency <= 0 {
		concurrency = settings.DefaultConcurrency
	}
	c.mu.Lock()
	sem, ok := c.semaphores[tenantID]
	if !ok {
		sem = make(chan struct{}, concurrency)
		c.semaphores[tenantID] = sem
	}
	c.mu.Unlock()

	select {
	case sem <- struct{}{}:
		return func() { <-sem }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func buildURL(baseURL, path string, query url.Values) (string, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/" + strings.TrimLeft(path, "/")

	if len(query) > 0 {
		q := u.Query()
		for key, values := range query {
			for _, v := range values {
				if v == "" {
					continue
				}
				q.Add(key, v)
			}
		}
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}
