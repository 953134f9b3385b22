package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/park285/cheese-solo/pkg/chessdto"
)

// APIError is a non-2xx response from the session server.
type APIError struct {
	Status int
	chessdto.DomainError
}

func (e *APIError) Error() string {
	return fmt.Sprintf("session api error: status=%d code=%s: %s", e.Status, e.Code, e.Message)
}

// Client drives a remote session over HTTP.
type Client struct {
	baseURL string
	http    *fasthttp.Client

	defaultTimeout time.Duration
	retryMax       int
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.defaultTimeout = d }
}

func WithRetry(max int) Option {
	return func(c *Client) { c.retryMax = max }
}

// WithDial replaces the dialer, e.g. with an in-memory listener in tests.
func WithDial(dial fasthttp.DialFunc) Option {
	return func(c *Client) { c.http.Dial = dial }
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		http:           &fasthttp.Client{ReadTimeout: 10 * time.Second, WriteTimeout: 10 * time.Second, MaxConnsPerHost: 16},
		defaultTimeout: 10 * time.Second,
		retryMax:       3,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) State(ctx context.Context) (*chessdto.Snapshot, error) {
	var snap chessdto.Snapshot
	if err := c.doJSON(ctx, fasthttp.MethodGet, "/state", &snap, true); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (c *Client) Click(ctx context.Context, square string) (*chessdto.Snapshot, error) {
	return c.post(ctx, "/click?square="+url.QueryEscape(square))
}

func (c *Client) Promote(ctx context.Context, kind string) (*chessdto.Snapshot, error) {
	return c.post(ctx, "/promotion?kind="+url.QueryEscape(kind))
}

func (c *Client) CancelPromotion(ctx context.Context) (*chessdto.Snapshot, error) {
	return c.post(ctx, "/promotion/cancel")
}

func (c *Client) ToggleColor(ctx context.Context) (*chessdto.Snapshot, error) {
	return c.post(ctx, "/color/toggle")
}

func (c *Client) Undo(ctx context.Context) (*chessdto.Snapshot, error) {
	return c.post(ctx, "/undo")
}

func (c *Client) Reset(ctx context.Context) (*chessdto.Snapshot, error) {
	return c.post(ctx, "/reset")
}

func (c *Client) Games(ctx context.Context, limit int) ([]chessdto.ArchivedGame, error) {
	path := "/games"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var resp chessdto.GamesResponse
	if err := c.doJSON(ctx, fasthttp.MethodGet, path, &resp, true); err != nil {
		return nil, err
	}
	return resp.Games, nil
}

// post sends an intent. Intents are not idempotent, so they are never retried.
func (c *Client) post(ctx context.Context, path string) (*chessdto.Snapshot, error) {
	var snap chessdto.Snapshot
	if err := c.doJSON(ctx, fasthttp.MethodPost, path, &snap, false); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, out any, retry bool) error {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()

	req.Header.SetMethod(method)
	req.SetRequestURI(c.baseURL + path)
	req.Header.Set("Accept", "application/json")

	attempts := 1
	if retry && c.retryMax > 1 {
		attempts = c.retryMax
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		err := c.http.DoDeadline(req, resp, c.computeDeadline(ctx))
		if err != nil {
			lastErr = fmt.Errorf("request failed: %w", err)
		} else if status := resp.StatusCode(); status < 200 || status >= 300 {
			apiErr := &APIError{Status: status}
			if json.Unmarshal(resp.Body(), &apiErr.DomainError) != nil {
				apiErr.Message = truncate(string(resp.Body()), 512)
			}
			if !shouldRetryStatus(status) {
				return apiErr
			}
			lastErr = apiErr
		} else {
			if out != nil {
				if err := json.Unmarshal(resp.Body(), out); err != nil {
					return fmt.Errorf("decode response: %w", err)
				}
			}
			return nil
		}
		if attempt == attempts {
			break
		}
		if sleepErr := sleepWithContext(ctx, backoffDuration(attempt)); sleepErr != nil {
			return lastErr
		}
	}
	if lastErr == nil {
		lastErr = errors.New("unknown error")
	}
	return lastErr
}

func (c *Client) computeDeadline(ctx context.Context) time.Time {
	clientDL := time.Now().Add(c.defaultTimeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(clientDL) {
		return dl
	}
	return clientDL
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func backoffDuration(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > 6 {
		attempt = 6
	}
	base := 100 * time.Millisecond
	return time.Duration(1<<uint(attempt-1)) * base // 100ms, 200ms ...
}

func shouldRetryStatus(code int) bool {
	switch code {
	case 502, 503, 504:
		return true
	default:
		return false
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
