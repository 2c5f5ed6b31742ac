// Package archiveis submits URLs to archive.today (archive.is / archive.ph)
// and returns the memento URL it assigns.
package archiveis

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-shiori/dom"
	"golang.org/x/net/html"

	"saitan/internal/config"
	"saitan/internal/logging"
	"saitan/internal/services"
)

const action = "secondary"

// Client captures pages through the archive.today submit form.
type Client struct {
	baseURL   string
	userAgent string
	http      *http.Client
	logger    *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client used for requests. Redirect
// handling is always disabled on the copy the Client keeps.
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

// New builds a client from the archiveis config section.
func New(cfg config.ArchiveIs, userAgent string, opts ...Option) *Client {
	c := &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		userAgent: userAgent,
		http:      &http.Client{},
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	noFollow := *c.http
	noFollow.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	c.http = &noFollow
	c.logger = logging.NewComponentLogger(c.logger, "archiveis")
	return c
}

// Save submits target for capture and returns the memento location.
func (c *Client) Save(ctx context.Context, target string) (string, error) {
	logger := logging.WithContext(ctx, c.logger)

	submitID, err := c.fetchSubmitID(ctx)
	if err != nil {
		// The form token is optional; the submit endpoint accepts requests without it.
		logger.Debug("submitid unavailable", logging.Error(err))
	}

	form := url.Values{}
	form.Set("url", target)
	form.Set("anyway", "1")
	if submitID != "" {
		form.Set("submitid", submitID)
	}

	submitURL := c.baseURL + "/submit/"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, submitURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", services.Wrap(services.ErrValidation, action, "build request", "", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	c.decorate(req)

	logger.Debug("submitting capture", logging.String("endpoint", submitURL))
	resp, err := c.http.Do(req)
	if err != nil {
		return "", services.Wrap(services.ErrNetwork, action, "submit", "", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))

	if resp.StatusCode >= 400 {
		return "", services.Wrap(services.ErrNetwork, action, "submit", fmt.Sprintf("http status %d", resp.StatusCode), nil)
	}

	if location := refreshTarget(resp.Header.Get("Refresh")); location != "" {
		return location, nil
	}
	if location := strings.TrimSpace(resp.Header.Get("Location")); location != "" {
		return resolve(req.URL, location), nil
	}
	return "", services.Wrap(services.ErrValidation, action, "submit", "no memento location in response", nil)
}

func (c *Client) fetchSubmitID(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return "", err
	}
	c.decorate(req)
	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("http status %d", resp.StatusCode)
	}
	doc, err := html.Parse(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", fmt.Errorf("parse form page: %w", err)
	}
	return submitIDFromDocument(doc), nil
}

func submitIDFromDocument(doc *html.Node) string {
	for _, input := range dom.GetElementsByTagName(doc, "input") {
		if dom.GetAttribute(input, "name") == "submitid" {
			return strings.TrimSpace(dom.GetAttribute(input, "value"))
		}
	}
	return ""
}

func (c *Client) decorate(req *http.Request) {
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
}

// refreshTarget extracts the URL from a "N;url=<location>" Refresh header.
func refreshTarget(header string) string {
	idx := strings.Index(strings.ToLower(header), "url=")
	if idx < 0 {
		return ""
	}
	return strings.TrimSpace(header[idx+len("url="):])
}

func resolve(base *url.URL, location string) string {
	ref, err := url.Parse(location)
	if err != nil || base == nil {
		return location
	}
	return base.ResolveReference(ref).String()
}
