package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/backcheck/backcheck/internal/config"
	"github.com/backcheck/backcheck/internal/model"
)

// browserHeaders are sent with every page fetch in addition to the
// User-Agent. Accept-Encoding is set explicitly so the transport hands
// us the raw body and the decode chain can recover from servers that
// send corrupt gzip.
var browserHeaders = map[string]string{
	"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
	"Accept-Language":           "ru-RU,ru;q=0.8,en-US;q=0.5,en;q=0.3",
	"Accept-Encoding":           "gzip, deflate",
	"Connection":                "keep-alive",
	"Upgrade-Insecure-Requests": "1",
}

// maxRedirects bounds redirect chains to prevent loops while allowing
// normal www/HTTPS redirects.
const maxRedirects = 10

// Client fetches donor pages. It is safe for concurrent use; each
// fetch builds its own http.Client because the proxy endpoint differs
// per attempt.
type Client struct {
	userAgent   string
	timeout     time.Duration
	maxBodySize int64
	logger      *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithUserAgent sets the User-Agent header for all fetches.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithTimeout sets the per-attempt timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithMaxBodySize limits how many body bytes are read per page.
func WithMaxBodySize(n int64) Option {
	return func(c *Client) { c.maxBodySize = n }
}

// WithLogger sets the logger for attempt-level diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// NewClient creates a Client with browser-imitating defaults.
func NewClient(opts ...Option) *Client {
	c := &Client{
		userAgent:   config.DefaultUserAgent,
		timeout:     config.DefaultTimeout,
		maxBodySize: config.DefaultMaxBodySize,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch downloads the page at rawURL, optionally through the given
// proxy endpoint (nil means direct), and returns the decoded HTML.
func (c *Client) Fetch(ctx context.Context, rawURL string, endpoint *model.ProxyEndpoint) (string, error) {
	transport, err := NewTransport(endpoint)
	if err != nil {
		return "", err
	}

	client := &http.Client{
		Transport: transport,
		Timeout:   c.timeout,
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	for key, value := range browserHeaders {
		req.Header.Set(key, value)
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return "", fmt.Errorf("%w: %d for %s", ErrHTTPStatus, resp.StatusCode, rawURL)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodySize))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}

	return DecodeBody(body, resp.Header.Get("Content-Encoding"), resp.Header.Get("Content-Type")), nil
}
