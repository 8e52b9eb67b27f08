package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goliatone/go-editform/internal/logging"
)

// Client talks to the admin REST backend. It never retries: a failed call
// leaves caller state untouched and returns an error.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	timeout time.Duration
	logger  logging.Logger
	session SessionStore
	expired SessionExpiry
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client. Cookie jars configured on it
// carry the session cookie.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout bounds every request.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithSessionStore sets the store cleared on session expiry.
func WithSessionStore(s SessionStore) Option {
	return func(c *Client) {
		if s != nil {
			c.session = s
		}
	}
}

// WithSessionExpiry sets the capability invoked when the backend answers 401.
func WithSessionExpiry(fn SessionExpiry) Option {
	return func(c *Client) {
		c.expired = fn
	}
}

// New returns a client for the backend rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, ErrNotConfigured
	}
	parsed, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("client: parse base url: %w", err)
	}
	c := &Client{
		baseURL: parsed,
		http:    http.DefaultClient,
		logger:  logging.NoOp(),
		session: NewMemorySession(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

// BaseURL returns the backend root.
func (c *Client) BaseURL() string { return c.baseURL.String() }

func (c *Client) endpoint(path string) string {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + "/" + strings.TrimLeft(path, "/")
	return u.String()
}

// do sends one request and returns the response body of a 2xx answer.
func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string) ([]byte, error) {
	op := method + " " + path
	reqCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(reqCtx, method, c.endpoint(path), body)
	if err != nil {
		return nil, transportError(err, op)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	logger := c.logger.WithContext(ctx)
	logger.Debug("backend request", "method", method, "path", path)

	resp, err := c.http.Do(req)
	if err != nil {
		logger.Warn("backend request failed", "method", method, "path", path, "error", err)
		return nil, transportError(err, op)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportError(err, op)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		logger.Warn("backend session expired", "method", method, "path", path)
		c.expire()
		return nil, sessionError()
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := parseAPIError(resp.StatusCode, data)
		logger.Warn("backend error", "method", method, "path", path, "status", resp.StatusCode, "message", apiErr.Message)
		return nil, apiError(apiErr, op)
	}
	return data, nil
}

func (c *Client) expire() {
	c.session.Clear()
	if c.expired != nil {
		c.expired(ErrSessionExpired)
	}
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	data, err := c.do(ctx, http.MethodGet, path, nil, "")
	if err != nil {
		return err
	}
	return decode(data, out, http.MethodGet+" "+path)
}

func decode(data []byte, out any, op string) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return transportError(fmt.Errorf("decode response: %w", err), op)
	}
	return nil
}
