package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateEndpoints(); err != nil {
		return err
	}
	if err := c.validateTimeouts(); err != nil {
		return err
	}
	if err := c.validateUpload(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateEndpoints() error {
	endpoints := []struct {
		key   string
		value string
	}{
		{"wayback.save_url", c.Wayback.SaveURL},
		{"wayback.base_url", c.Wayback.BaseURL},
		{"archiveis.base_url", c.ArchiveIs.BaseURL},
	}
	for _, endpoint := range endpoints {
		if err := validateHTTPURL(endpoint.key, endpoint.value); err != nil {
			return err
		}
	}
	if c.Upload.Endpoint != "" {
		if err := validateHTTPURL("upload.endpoint", c.Upload.Endpoint); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateTimeouts() error {
	return ensurePositiveMap(map[string]int{
		"wayback.timeout_seconds":   c.Wayback.TimeoutSeconds,
		"archiveis.timeout_seconds": c.ArchiveIs.TimeoutSeconds,
		"capture.timeout_seconds":   c.Capture.TimeoutSeconds,
		"timestamp.timeout_seconds": c.Timestamp.TimeoutSeconds,
		"upload.timeout_seconds":    c.Upload.TimeoutSeconds,
	})
}

func (c *Config) validateUpload() error {
	if c.Upload.Bucket == "" {
		return nil
	}
	if strings.ContainsAny(c.Upload.Bucket, "/ ") {
		return fmt.Errorf("upload.bucket %q must be a bare bucket name", c.Upload.Bucket)
	}
	hasKey := c.Upload.AccessKeyID != ""
	hasSecret := c.Upload.SecretAccessKey != ""
	if hasKey != hasSecret {
		return errors.New("upload.access_key_id and upload.secret_access_key must be set together")
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !supportedLogLevel(c.Logging.Level) {
		return fmt.Errorf("logging.level %q is not supported (use debug, info, warn, or error)", c.Logging.Level)
	}
	return nil
}

// SetLogLevel overrides logging.level, accepting the same values as the
// config file.
func (c *Config) SetLogLevel(level string) error {
	normalized := strings.ToLower(strings.TrimSpace(level))
	if !supportedLogLevel(normalized) {
		return fmt.Errorf("log level %q is not supported (use debug, info, warn, or error)", level)
	}
	c.Logging.Level = normalized
	return nil
}

func supportedLogLevel(level string) bool {
	switch level {
	case "debug", "info", "warn", "warning", "error":
		return true
	default:
		return false
	}
}

func validateHTTPURL(key, value string) error {
	parsed, err := url.Parse(value)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%s must use http or https", key)
	}
	if parsed.Host == "" {
		return fmt.Errorf("%s must include a host", key)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
