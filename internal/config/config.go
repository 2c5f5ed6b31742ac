package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// ErrHomeUnavailable marks a "~" path that cannot be expanded because the
// home directory is unknown, as under cron or a bare container.
var ErrHomeUnavailable = errors.New("home directory is not available")

// Paths contains directory configuration.
type Paths struct {
	// OutputDir receives WARC captures and their sidecars. Empty means the
	// current working directory, keeping reported paths relative.
	OutputDir string `toml:"output_dir"`
	StateDir  string `toml:"state_dir"`
	LogDir    string `toml:"log_dir"`
}

// HTTP contains settings shared by the HTTP-backed archival services.
type HTTP struct {
	UserAgent string `toml:"user_agent"`
}

// Wayback contains configuration for the Internet Archive save endpoint.
type Wayback struct {
	SaveURL        string `toml:"save_url"`
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// ArchiveIs contains configuration for the archive.today capture service.
type ArchiveIs struct {
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Capture contains configuration for the local wget WARC capture.
type Capture struct {
	WgetBinary     string `toml:"wget_binary"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	UniqueNames    bool   `toml:"unique_names"`
}

// Timestamp contains configuration for OpenTimestamps stamping.
type Timestamp struct {
	OTSBinary      string `toml:"ots_binary"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Upload contains configuration for copying captures to S3-compatible storage.
type Upload struct {
	Bucket          string `toml:"bucket"`
	Prefix          string `toml:"prefix"`
	Region          string `toml:"region"`
	Endpoint        string `toml:"endpoint"`
	AccessKeyID     string `toml:"access_key_id"`
	SecretAccessKey string `toml:"secret_access_key"`
	PathStyle       bool   `toml:"path_style"`
	TimeoutSeconds  int    `toml:"timeout_seconds"`
}

// History contains configuration for the run ledger.
type History struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"` // Default: <state_dir>/history.db
}

// Metrics contains configuration for the Prometheus textfile export.
type Metrics struct {
	TextfilePath string `toml:"textfile_path"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
	File   bool   `toml:"file"`
}

// Config encapsulates all configuration values for saitan.
//
// Configuration sections by subsystem:
//   - Paths: output, state and log directories
//   - HTTP: user agent for the archival services
//   - Wayback: Internet Archive save endpoint
//   - ArchiveIs: archive.today capture service
//   - Capture: wget WARC capture
//   - Timestamp: OpenTimestamps client
//   - Upload: S3-compatible artifact upload
//   - History: sqlite run ledger
//   - Metrics: Prometheus textfile export
//   - Logging: log format, level and file output
type Config struct {
	Paths     Paths     `toml:"paths"`
	HTTP      HTTP      `toml:"http"`
	Wayback   Wayback   `toml:"wayback"`
	ArchiveIs ArchiveIs `toml:"archiveis"`
	Capture   Capture   `toml:"capture"`
	Timestamp Timestamp `toml:"timestamp"`
	Upload    Upload    `toml:"upload"`
	History   History   `toml:"history"`
	Metrics   Metrics   `toml:"metrics"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/saitan/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := loadDotEnv(resolvedPath, exists); err != nil {
		return nil, "", false, err
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	projectPath, err := filepath.Abs("saitan.toml")
	if err != nil {
		return "", false, err
	}

	// Without a home directory only the project file can be found.
	defaultPath, err := DefaultConfigPath()
	if err != nil {
		if !errors.Is(err, ErrHomeUnavailable) {
			return "", false, err
		}
		defaultPath = ""
	}

	if defaultPath != "" {
		if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
			return defaultPath, true, nil
		}
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	if defaultPath == "" {
		return projectPath, false, nil
	}
	return defaultPath, false, nil
}

// loadDotEnv reads .env files from the working directory and next to the
// config file. Variables already present in the environment win.
func loadDotEnv(configPath string, configExists bool) error {
	candidates := []string{".env"}
	if configExists {
		candidates = append(candidates, filepath.Join(filepath.Dir(configPath), ".env"))
	}
	for _, candidate := range candidates {
		info, err := os.Stat(candidate)
		if err != nil || info.IsDir() {
			continue
		}
		if err := godotenv.Load(candidate); err != nil {
			return fmt.Errorf("load env file %s: %w", candidate, err)
		}
	}
	return nil
}

// EnsureDirectories creates the directories a run writes into and fails on
// the first one that cannot be created.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.StateDir, c.LockDir()}
	if strings.TrimSpace(c.Paths.OutputDir) != "" {
		dirs = append(dirs, c.Paths.OutputDir)
	}
	if c.Logging.File {
		dirs = append(dirs, c.Paths.LogDir)
	}
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// PrepareDirectories creates the directories a run writes into without
// failing. A state directory that cannot be created is cleared, which turns
// off capture locking and the default history ledger; an unusable log
// directory turns off the log file. Each problem is returned for logging.
func (c *Config) PrepareDirectories() []error {
	var problems []error
	if c.Paths.StateDir == "" {
		problems = append(problems, fmt.Errorf("paths.state_dir is unavailable: %w", ErrHomeUnavailable))
	} else if err := os.MkdirAll(c.Paths.StateDir, 0o755); err != nil {
		problems = append(problems, fmt.Errorf("create state directory %q: %w", c.Paths.StateDir, err))
		c.Paths.StateDir = ""
	}
	if c.Paths.OutputDir != "" {
		if err := os.MkdirAll(c.Paths.OutputDir, 0o755); err != nil {
			problems = append(problems, fmt.Errorf("create output directory %q: %w", c.Paths.OutputDir, err))
		}
	}
	if c.Logging.File {
		if c.Paths.LogDir == "" {
			problems = append(problems, fmt.Errorf("paths.log_dir is unavailable: %w", ErrHomeUnavailable))
			c.Logging.File = false
		} else if err := os.MkdirAll(c.Paths.LogDir, 0o755); err != nil {
			problems = append(problems, fmt.Errorf("create log directory %q: %w", c.Paths.LogDir, err))
			c.Logging.File = false
		}
	}
	return problems
}

// LockDir returns the directory holding per-capture lock files, or "" when
// no state directory is available.
func (c *Config) LockDir() string {
	if c.Paths.StateDir == "" {
		return ""
	}
	return filepath.Join(c.Paths.StateDir, "locks")
}

// HistoryPath returns the sqlite ledger location, or "" when neither
// history.path nor a state directory is available.
func (c *Config) HistoryPath() string {
	if strings.TrimSpace(c.History.Path) != "" {
		return c.History.Path
	}
	if c.Paths.StateDir == "" {
		return ""
	}
	return filepath.Join(c.Paths.StateDir, "history.db")
}

// LogFilePath returns the log file location used when logging.file is enabled.
func (c *Config) LogFilePath() string {
	if c.Paths.LogDir == "" {
		return ""
	}
	return filepath.Join(c.Paths.LogDir, "saitan.log")
}

// Timeout converts the configured seconds into a duration.
func (w Wayback) Timeout() time.Duration { return seconds(w.TimeoutSeconds) }

// Timeout converts the configured seconds into a duration.
func (a ArchiveIs) Timeout() time.Duration { return seconds(a.TimeoutSeconds) }

// Timeout converts the configured seconds into a duration.
func (c Capture) Timeout() time.Duration { return seconds(c.TimeoutSeconds) }

// Timeout converts the configured seconds into a duration.
func (t Timestamp) Timeout() time.Duration { return seconds(t.TimeoutSeconds) }

// Timeout converts the configured seconds into a duration.
func (u Upload) Timeout() time.Duration { return seconds(u.TimeoutSeconds) }

func seconds(value int) time.Duration {
	return time.Duration(value) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil || home == "" {
			return "", fmt.Errorf("%w: %v", ErrHomeUnavailable, err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
