// Package wget captures a page and its requisites into a local WARC
// container by driving the wget binary.
package wget

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"

	"saitan/internal/config"
	"saitan/internal/fileutil"
	"saitan/internal/logging"
	"saitan/internal/services"
	"saitan/internal/target"
)

const (
	action = "local-capture"
	// WARCExtension is appended by wget to the --warc-file base name.
	WARCExtension = ".warc.gz"
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

// WithLogger attaches a logger; wget output is relayed at debug level.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Client wraps wget WARC captures.
type Client struct {
	binary    string
	outputDir string
	lockDir   string
	unique    bool
	exec      services.Executor
	logger    *slog.Logger
}

// New constructs a capture client. Captures are written to outputDir (the
// working directory when empty); lockDir holds per-capture lock files and
// may be empty to disable locking.
func New(cfg config.Capture, outputDir, lockDir string, opts ...Option) *Client {
	binary := strings.TrimSpace(cfg.WgetBinary)
	if binary == "" {
		binary = "wget"
	}
	c := &Client{
		binary:    binary,
		outputDir: outputDir,
		lockDir:   lockDir,
		unique:    cfg.UniqueNames,
		exec:      services.CommandExecutor{},
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logging.NewComponentLogger(c.logger, "wget")
	return c
}

// BaseName returns the capture name used for rawURL, without extension.
func (c *Client) BaseName(rawURL string) string {
	if c.unique {
		return target.UniqueFilename(rawURL)
	}
	return target.Filename(rawURL)
}

// Save captures rawURL and returns the path of the written WARC file.
func (c *Client) Save(ctx context.Context, rawURL string) (string, error) {
	name := c.BaseName(rawURL)
	base := name
	if c.outputDir != "" {
		base = filepath.Join(c.outputDir, name)
	}
	warcPath := base + WARCExtension
	logger := logging.WithContext(ctx, c.logger)

	unlock, err := c.acquire(logger, name)
	if err != nil {
		return "", err
	}
	defer unlock()

	// Page requisites land here and are discarded; only the WARC is kept.
	scratch, err := os.MkdirTemp("", "saitan-wget-*")
	if err != nil {
		return "", services.Wrap(services.ErrIO, action, "scratch dir", "", err)
	}
	defer os.RemoveAll(scratch)

	args := []string{
		"-q",
		"-p",
		"-k",
		"-H",
		"--delete-after",
		"-e", "robots=off",
		"-P", scratch,
		"--warc-file", base,
		rawURL,
	}
	logger.Debug("starting wget capture", logging.String("warc", warcPath))
	err = c.exec.Run(ctx, c.binary, args, func(line string) {
		logger.Debug("wget output", logging.String("line", line))
	})
	if err != nil {
		return "", services.Wrap(services.ErrExternalTool, action, "wget", "", err)
	}
	if !fileutil.FileExists(warcPath) {
		return "", services.Wrap(services.ErrExternalTool, action, "wget", fmt.Sprintf("expected output %s was not written", warcPath), nil)
	}
	return warcPath, nil
}

// acquire takes the per-capture lock. A lock directory that cannot be used
// only costs the collision guard, so the capture proceeds unlocked.
func (c *Client) acquire(logger *slog.Logger, name string) (func(), error) {
	unlocked := func() {}
	if c.lockDir == "" {
		return unlocked, nil
	}
	if err := os.MkdirAll(c.lockDir, 0o755); err != nil {
		c.warnUnlocked(logger, err)
		return unlocked, nil
	}
	lock := flock.New(filepath.Join(c.lockDir, name+".lock"))
	ok, err := lock.TryLock()
	if err != nil {
		c.warnUnlocked(logger, err)
		return unlocked, nil
	}
	if !ok {
		return nil, services.Wrap(services.ErrUnavailable, action, "lock", fmt.Sprintf("another capture of %s is in progress", name), nil)
	}
	return func() {
		if err := lock.Unlock(); err != nil {
			logger.Warn("failed to release capture lock", logging.Error(err))
		}
	}, nil
}

func (c *Client) warnUnlocked(logger *slog.Logger, err error) {
	logging.WarnWithContext(logger, "capture lock unavailable; continuing without it", "capture_lock_unavailable",
		logging.Error(err),
		logging.String("lock_dir", c.lockDir),
		logging.String(logging.FieldErrorHint, "make paths.state_dir writable to guard concurrent captures"),
	)
}
