// Package opentimestamps stamps files with the OpenTimestamps client so their
// existence can later be proven against the Bitcoin blockchain.
package opentimestamps

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"saitan/internal/config"
	"saitan/internal/fileutil"
	"saitan/internal/logging"
	"saitan/internal/services"
)

const (
	action = "timestamp"
	// ProofExtension is the suffix ots appends to the stamped file.
	ProofExtension = ".ots"
)

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec services.Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// WithLogger attaches a logger; ots output is relayed at debug level.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Client wraps the ots command line tool.
type Client struct {
	binary string
	exec   services.Executor
	logger *slog.Logger
}

// New constructs a timestamp client.
func New(cfg config.Timestamp, opts ...Option) *Client {
	binary := strings.TrimSpace(cfg.OTSBinary)
	if binary == "" {
		binary = "ots"
	}
	c := &Client{
		binary: binary,
		exec:   services.CommandExecutor{},
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logging.NewComponentLogger(c.logger, "opentimestamps")
	return c
}

// Stamp submits path to the calendar servers and returns the proof file path.
// The proof is pending until the calendars anchor it; upgrading it is left to
// `ots upgrade`.
func (c *Client) Stamp(ctx context.Context, path string) (string, error) {
	if !fileutil.FileExists(path) {
		return "", services.Wrap(services.ErrIO, action, "stat", fmt.Sprintf("%s does not exist", path), nil)
	}
	logger := logging.WithContext(ctx, c.logger)
	err := c.exec.Run(ctx, c.binary, []string{"stamp", path}, func(line string) {
		logger.Debug("ots output", logging.String("line", line))
	})
	if err != nil {
		return "", services.Wrap(services.ErrExternalTool, action, "ots stamp", "", err)
	}
	proof := path + ProofExtension
	if !fileutil.FileExists(proof) {
		return "", services.Wrap(services.ErrExternalTool, action, "ots stamp", fmt.Sprintf("expected proof %s was not written", proof), nil)
	}
	return proof, nil
}
