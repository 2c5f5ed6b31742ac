package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeHTTP()
	c.normalizeWayback()
	c.normalizeArchiveIs()
	c.normalizeCapture()
	c.normalizeTimestamp()
	c.normalizeUpload()
	if err := c.normalizeHistory(); err != nil {
		return err
	}
	if err := c.normalizeMetrics(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		if value, ok := os.LookupEnv("SAITAN_OUTPUT_DIR"); ok {
			c.Paths.OutputDir = value
		}
	}
	var err error
	// An empty output directory stays empty so captures land in the
	// working directory under their bare file names.
	if strings.TrimSpace(c.Paths.OutputDir) != "" {
		if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
			return fmt.Errorf("paths.output_dir: %w", err)
		}
	} else {
		c.Paths.OutputDir = ""
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandOptionalPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandOptionalPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

// expandOptionalPath expands a directory the CLI can run without. A home
// directory that cannot be resolved leaves it empty instead of failing.
func expandOptionalPath(value string) (string, error) {
	expanded, err := expandPath(value)
	if errors.Is(err, ErrHomeUnavailable) {
		return "", nil
	}
	return expanded, err
}

func (c *Config) normalizeHTTP() {
	c.HTTP.UserAgent = strings.TrimSpace(c.HTTP.UserAgent)
	if c.HTTP.UserAgent == "" {
		c.HTTP.UserAgent = defaultUserAgent
	}
}

func (c *Config) normalizeWayback() {
	c.Wayback.SaveURL = strings.TrimRight(strings.TrimSpace(c.Wayback.SaveURL), "/")
	if c.Wayback.SaveURL == "" {
		c.Wayback.SaveURL = defaultWaybackSaveURL
	}
	c.Wayback.BaseURL = strings.TrimRight(strings.TrimSpace(c.Wayback.BaseURL), "/")
	if c.Wayback.BaseURL == "" {
		c.Wayback.BaseURL = defaultWaybackBaseURL
	}
}

func (c *Config) normalizeArchiveIs() {
	c.ArchiveIs.BaseURL = strings.TrimRight(strings.TrimSpace(c.ArchiveIs.BaseURL), "/")
	if c.ArchiveIs.BaseURL == "" {
		c.ArchiveIs.BaseURL = defaultArchiveIsBaseURL
	}
}

func (c *Config) normalizeCapture() {
	c.Capture.WgetBinary = strings.TrimSpace(c.Capture.WgetBinary)
	if c.Capture.WgetBinary == "" {
		c.Capture.WgetBinary = defaultWgetBinary
	}
}

func (c *Config) normalizeTimestamp() {
	c.Timestamp.OTSBinary = strings.TrimSpace(c.Timestamp.OTSBinary)
	if c.Timestamp.OTSBinary == "" {
		c.Timestamp.OTSBinary = defaultOTSBinary
	}
}

func (c *Config) normalizeUpload() {
	c.Upload.Bucket = strings.TrimSpace(c.Upload.Bucket)
	if c.Upload.Bucket == "" {
		if value, ok := os.LookupEnv("SAITAN_S3_BUCKET"); ok {
			c.Upload.Bucket = strings.TrimSpace(value)
		}
	}
	c.Upload.Prefix = strings.Trim(strings.TrimSpace(c.Upload.Prefix), "/")
	c.Upload.Endpoint = strings.TrimSpace(c.Upload.Endpoint)
	if c.Upload.AccessKeyID == "" {
		if value, ok := os.LookupEnv("AWS_ACCESS_KEY_ID"); ok {
			c.Upload.AccessKeyID = value
		}
	}
	if c.Upload.SecretAccessKey == "" {
		if value, ok := os.LookupEnv("AWS_SECRET_ACCESS_KEY"); ok {
			c.Upload.SecretAccessKey = value
		}
	}
	c.Upload.Region = strings.TrimSpace(c.Upload.Region)
	if value, ok := os.LookupEnv("AWS_REGION"); ok && strings.TrimSpace(value) != "" && c.Upload.Region == defaultUploadRegion {
		c.Upload.Region = strings.TrimSpace(value)
	}
	if c.Upload.Region == "" {
		c.Upload.Region = defaultUploadRegion
	}
}

func (c *Config) normalizeHistory() error {
	if strings.TrimSpace(c.History.Path) == "" {
		c.History.Path = ""
		return nil
	}
	var err error
	if c.History.Path, err = expandPath(c.History.Path); err != nil {
		return fmt.Errorf("history.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeMetrics() error {
	if strings.TrimSpace(c.Metrics.TextfilePath) == "" {
		c.Metrics.TextfilePath = ""
		return nil
	}
	var err error
	if c.Metrics.TextfilePath, err = expandPath(c.Metrics.TextfilePath); err != nil {
		return fmt.Errorf("metrics.textfile_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
