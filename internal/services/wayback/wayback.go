// Package wayback submits URLs to the Internet Archive's on-demand save
// endpoint and reports where the resulting snapshot lives.
package wayback

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"saitan/internal/config"
	"saitan/internal/logging"
	"saitan/internal/services"
)

const action = "snapshot"

// Client talks to the Wayback Machine save endpoint.
type Client struct {
	saveURL   string
	baseURL   string
	userAgent string
	http      *http.Client
	logger    *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client used for requests.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.http = client
		}
	}
}

// WithLogger attaches a logger for request diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New builds a client from the wayback config section. Timeouts are applied
// by the caller's context.
func New(cfg config.Wayback, userAgent string, opts ...Option) *Client {
	c := &Client{
		saveURL:   strings.TrimRight(cfg.SaveURL, "/"),
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		userAgent: userAgent,
		http:      &http.Client{},
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logging.NewComponentLogger(c.logger, "wayback")
	return c
}

// Save asks the archive to capture target and returns the snapshot URL.
// Only a 200 response carrying a Content-Location header counts as success.
func (c *Client) Save(ctx context.Context, target string) (string, error) {
	endpoint := c.saveURL + "/" + target
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", services.Wrap(services.ErrValidation, action, "build request", "", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	logging.WithContext(ctx, c.logger).Debug("requesting snapshot", logging.String("endpoint", endpoint))
	resp, err := c.http.Do(req)
	if err != nil {
		return "", services.Wrap(services.ErrNetwork, action, "request", "", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))

	if resp.StatusCode != http.StatusOK {
		return "", services.Wrap(services.ErrNetwork, action, "response", fmt.Sprintf("http status %d", resp.StatusCode), nil)
	}
	location := strings.TrimSpace(resp.Header.Get("Content-Location"))
	if location == "" {
		return "", services.Wrap(services.ErrValidation, action, "response", "missing Content-Location header", nil)
	}
	return c.join(location), nil
}

func (c *Client) join(location string) string {
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return location
	}
	return c.baseURL + "/" + strings.TrimLeft(location, "/")
}
