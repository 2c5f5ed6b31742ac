package main

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"saitan/internal/config"
	"saitan/internal/logging"
)

type commandContext struct {
	configFlag    *string
	outputDirFlag *string
	logLevelFlag  *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	// dirProblems holds directories that could not be prepared; the run
	// continues without the features that need them.
	dirProblems []error
}

func newCommandContext(configFlag, outputDirFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:    configFlag,
		outputDirFlag: outputDirFlag,
		logLevelFlag:  logLevelFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, _, _, err := config.Load(flagValue(c.configFlag))
		if err != nil {
			c.configErr = err
			return
		}
		if dir := flagValue(c.outputDirFlag); dir != "" {
			expanded, err := config.ExpandPath(dir)
			if err != nil {
				c.configErr = fmt.Errorf("resolve output directory: %w", err)
				return
			}
			cfg.Paths.OutputDir = expanded
		}
		if level := flagValue(c.logLevelFlag); level != "" {
			if err := cfg.SetLogLevel(level); err != nil {
				c.configErr = err
				return
			}
		}
		c.dirProblems = cfg.PrepareDirectories()
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) logger(cfg *config.Config) (*slog.Logger, error) {
	logger, err := logging.NewFromConfig(cfg, "")
	if err != nil {
		return nil, fmt.Errorf("configure logging: %w", err)
	}
	for _, problem := range c.dirProblems {
		logging.WarnWithContext(logger, "directory unavailable; continuing without it", "directory_unavailable",
			logging.Error(problem),
			logging.String(logging.FieldErrorHint, "set HOME or point paths.state_dir at a writable directory"),
		)
	}
	return logger, nil
}

func flagValue(value *string) string {
	if value == nil {
		return ""
	}
	return strings.TrimSpace(*value)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
