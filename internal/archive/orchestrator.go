package archive

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"saitan/internal/logging"
	"saitan/internal/services"
	"saitan/internal/target"
)

// Saver archives a URL and returns where the copy lives.
type Saver interface {
	Save(ctx context.Context, rawURL string) (string, error)
}

// FileAction processes the local capture and returns a path, digest or URI.
type FileAction interface {
	Apply(ctx context.Context, path string) (string, error)
}

// FileActionFunc adapts a function to FileAction.
type FileActionFunc func(ctx context.Context, path string) (string, error)

// Apply calls f.
func (f FileActionFunc) Apply(ctx context.Context, path string) (string, error) {
	return f(ctx, path)
}

// Backends wires each action to its implementation. A nil backend makes the
// corresponding action fail as unavailable when requested.
type Backends struct {
	Snapshot     Saver
	Secondary    Saver
	LocalCapture Saver
	Timestamp    FileAction
	Checksum     FileAction
	Upload       FileAction
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger used for per-action diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithTimeouts bounds each action. Actions without an entry, or with a
// non-positive one, run under the parent context only.
func WithTimeouts(timeouts map[Action]time.Duration) Option {
	return func(o *Orchestrator) {
		for action, timeout := range timeouts {
			o.timeouts[action] = timeout
		}
	}
}

// WithClock overrides time.Now (primarily for tests).
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

// Orchestrator runs the selected actions for a request in a fixed order.
type Orchestrator struct {
	backends Backends
	timeouts map[Action]time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

// New constructs an Orchestrator.
func New(backends Backends, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		backends: backends,
		timeouts: make(map[Action]time.Duration),
		logger:   logging.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	o.logger = logging.NewComponentLogger(o.logger, "archive")
	return o
}

// Run archives req.URL. The only error is ErrInvalidURL, returned before any
// backend is touched; every backend failure is captured in the Run instead.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*Run, error) {
	if !target.Validate(req.URL) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidURL, req.URL)
	}

	ctx = services.WithRunID(ctx, req.ID)
	logger := logging.WithContext(ctx, o.logger).With(logging.String(logging.FieldURL, req.URL))
	run := &Run{
		ID:      req.ID,
		URL:     req.URL,
		Started: o.now(),
		Results: make(Results),
	}

	opts := req.Options
	if !opts.Any() {
		logging.WarnWithContext(logger, "no archival action selected", "no_actions",
			logging.String(logging.FieldErrorHint, "pass one or more of -w, -a, -l"),
		)
	}
	for _, ignored := range opts.Ignored() {
		logging.WarnWithContext(logger, "action requires local capture; ignoring", "action_ignored",
			logging.String(logging.FieldAction, string(ignored)),
			logging.String(logging.FieldErrorHint, "add -l to capture a local copy first"),
		)
	}

	if opts.Snapshot {
		o.record(ctx, logger, run, ActionSnapshot, saverStep(o.backends.Snapshot, req.URL))
	}
	if opts.Secondary {
		o.record(ctx, logger, run, ActionSecondary, saverStep(o.backends.Secondary, req.URL))
	}
	if !opts.LocalCapture {
		run.Finished = o.now()
		return run, nil
	}

	capture := o.record(ctx, logger, run, ActionLocalCapture, saverStep(o.backends.LocalCapture, req.URL))
	post := []struct {
		action  Action
		backend FileAction
	}{
		{ActionTimestamp, o.backends.Timestamp},
		{ActionChecksum, o.backends.Checksum},
		{ActionUpload, o.backends.Upload},
	}
	for _, step := range post {
		if !opts.Requested(step.action) {
			continue
		}
		if capture.Status != StatusOK {
			run.Results[step.action] = Result{Action: step.action, Status: StatusSkipped}
			logger.Info("action skipped",
				logging.String(logging.FieldAction, string(step.action)),
				logging.String("reason", "local capture failed"),
			)
			continue
		}
		o.record(ctx, logger, run, step.action, fileStep(step.backend, capture.Value))
	}

	run.Finished = o.now()
	return run, nil
}

type step func(ctx context.Context) (string, error)

func saverStep(backend Saver, rawURL string) step {
	if backend == nil {
		return nil
	}
	return func(ctx context.Context) (string, error) {
		return backend.Save(ctx, rawURL)
	}
}

func fileStep(backend FileAction, path string) step {
	if backend == nil {
		return nil
	}
	return func(ctx context.Context) (string, error) {
		return backend.Apply(ctx, path)
	}
}

func (o *Orchestrator) record(ctx context.Context, logger *slog.Logger, run *Run, action Action, fn step) Result {
	result := o.execute(ctx, action, fn)
	run.Results[action] = result

	attrs := []logging.Attr{
		logging.String(logging.FieldAction, string(action)),
		logging.Duration("duration", result.Duration),
	}
	if result.Status == StatusOK {
		logger.Info("action succeeded", logging.Args(append(attrs, logging.String("value", result.Value))...)...)
		return result
	}
	attrs = append(attrs,
		logging.String(logging.FieldErrorKind, string(result.Kind)),
		logging.String(logging.FieldErrorHint, hintFor(result.Kind)),
		logging.Error(result.Err),
	)
	logging.WarnWithContext(logger, "action failed", "action_failed", attrs...)
	return result
}

func (o *Orchestrator) execute(ctx context.Context, action Action, fn step) Result {
	result := Result{Action: action}
	if fn == nil {
		result.Status = StatusFailed
		result.Err = services.Wrap(services.ErrUnavailable, string(action), "", "backend not configured", nil)
		result.Kind = services.KindOf(result.Err)
		return result
	}

	actionCtx := services.WithAction(ctx, string(action))
	if timeout := o.timeouts[action]; timeout > 0 {
		var cancel context.CancelFunc
		actionCtx, cancel = context.WithTimeout(actionCtx, timeout)
		defer cancel()
	}

	start := o.now()
	value, err := fn(actionCtx)
	result.Duration = o.now().Sub(start)

	value = strings.TrimSpace(value)
	switch {
	case err != nil:
		result.Status = StatusFailed
		result.Err = err
		result.Kind = services.KindOf(err)
	case value == "":
		result.Status = StatusFailed
		result.Err = services.Wrap(services.ErrValidation, string(action), "", "backend returned an empty value", nil)
		result.Kind = services.KindOf(result.Err)
	default:
		result.Status = StatusOK
		result.Value = value
	}
	return result
}

func hintFor(kind services.ErrorKind) string {
	switch kind {
	case services.KindNetwork:
		return "check connectivity and the service status, then rerun"
	case services.KindTimeout:
		return "raise the action timeout in config or rerun later"
	case services.KindProcess:
		return "run `saitan deps` and inspect the tool output with --log-level debug"
	case services.KindUnavailable:
		return "check the configuration for this action"
	case services.KindIO:
		return "check disk space and permissions in the output directory"
	default:
		return "rerun with --log-level debug for details"
	}
}
