package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"saitan/internal/archive"
	"saitan/internal/config"
	"saitan/internal/fileutil"
	"saitan/internal/history"
	"saitan/internal/logging"
	"saitan/internal/metrics"
	"saitan/internal/report"
	"saitan/internal/services"
	"saitan/internal/services/archiveis"
	"saitan/internal/services/opentimestamps"
	"saitan/internal/services/s3upload"
	"saitan/internal/services/wayback"
	"saitan/internal/services/wget"
	"saitan/internal/target"
)

type invalidURLError struct {
	url string
}

func (e invalidURLError) Error() string {
	return fmt.Sprintf("%s is not valid", e.url)
}

func runArchive(cmd *cobra.Command, ctx *commandContext, rawURL string, opts archive.Options) error {
	if !target.Validate(rawURL) {
		return invalidURLError{url: rawURL}
	}

	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := ctx.logger(cfg)
	if err != nil {
		return err
	}

	runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	orchestrator := archive.New(
		buildBackends(runCtx, cfg, opts, logger),
		archive.WithLogger(logger),
		archive.WithTimeouts(actionTimeouts(cfg)),
	)
	run, err := orchestrator.Run(runCtx, archive.NewRequest(rawURL, opts))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprint(out, report.Build(run.Results, report.WithColor(colorEnabled(out))))

	// Bookkeeping must outlive an interrupted run.
	persistRun(context.WithoutCancel(runCtx), cfg, run, logger)
	return nil
}

func buildBackends(ctx context.Context, cfg *config.Config, opts archive.Options, logger *slog.Logger) archive.Backends {
	backends := archive.Backends{
		Snapshot:     wayback.New(cfg.Wayback, cfg.HTTP.UserAgent, wayback.WithLogger(logger)),
		Secondary:    archiveis.New(cfg.ArchiveIs, cfg.HTTP.UserAgent, archiveis.WithLogger(logger)),
		LocalCapture: wget.New(cfg.Capture, cfg.Paths.OutputDir, cfg.LockDir(), wget.WithLogger(logger)),
		Checksum:     archive.FileActionFunc(checksum),
	}

	stamper := opentimestamps.New(cfg.Timestamp, opentimestamps.WithLogger(logger))
	backends.Timestamp = archive.FileActionFunc(stamper.Stamp)

	// Loading AWS config can touch the network for credentials, so only do it
	// when an upload will actually run.
	if opts.LocalCapture && opts.Upload {
		uploader, err := s3upload.New(ctx, cfg.Upload, s3upload.WithLogger(logger))
		if err != nil {
			logging.WarnWithContext(logger, "upload backend unavailable", "upload_unavailable",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check the [upload] config section and AWS credentials"),
			)
		} else {
			backends.Upload = archive.FileActionFunc(uploader.Upload)
		}
	}
	return backends
}

func checksum(_ context.Context, path string) (string, error) {
	digest, err := fileutil.ChecksumFile(path)
	if err != nil {
		return "", services.Wrap(services.ErrIO, string(archive.ActionChecksum), "hash", path, err)
	}
	return digest, nil
}

func actionTimeouts(cfg *config.Config) map[archive.Action]time.Duration {
	return map[archive.Action]time.Duration{
		archive.ActionSnapshot:     cfg.Wayback.Timeout(),
		archive.ActionSecondary:    cfg.ArchiveIs.Timeout(),
		archive.ActionLocalCapture: cfg.Capture.Timeout(),
		archive.ActionTimestamp:    cfg.Timestamp.Timeout(),
		archive.ActionUpload:       cfg.Upload.Timeout(),
	}
}

func persistRun(ctx context.Context, cfg *config.Config, run *archive.Run, logger *slog.Logger) {
	logger = logging.WithContext(services.WithRunID(ctx, run.ID), logger)

	if cfg.History.Enabled {
		recordHistory(ctx, cfg.HistoryPath(), run, logger)
	}

	if path := cfg.Metrics.TextfilePath; path != "" {
		if err := metrics.WriteRun(path, run); err != nil {
			logging.WarnWithContext(logger, "metrics not written", "metrics_failed",
				logging.Error(err),
				logging.String("path", path),
			)
		}
	}
}

func recordHistory(ctx context.Context, path string, run *archive.Run, logger *slog.Logger) {
	if path == "" {
		logger.Debug("history skipped; no state directory")
		return
	}
	if err := writeHistory(ctx, path, run); err != nil {
		logging.WarnWithContext(logger, "history not recorded", "history_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check state_dir permissions or move a stale history.db aside"),
		)
		return
	}
	logger.Debug("run recorded",
		logging.String("path", path),
		logging.Int("actions", len(run.Results)),
	)
}

func writeHistory(ctx context.Context, path string, run *archive.Run) error {
	store, err := history.Open(ctx, path)
	if err != nil {
		return err
	}
	defer store.Close()
	return store.Record(ctx, run)
}

func colorEnabled(w io.Writer) bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(file.Fd()) || isatty.IsCygwinTerminal(file.Fd())
}
