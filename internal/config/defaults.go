package config

const (
	defaultStateDir          = "~/.local/share/saitan"
	defaultLogDir            = "~/.local/share/saitan/logs"
	defaultUserAgent         = "saitan/0.1"
	defaultWaybackSaveURL    = "https://web.archive.org/save"
	defaultWaybackBaseURL    = "https://web.archive.org"
	defaultWaybackTimeout    = 120
	defaultArchiveIsBaseURL  = "https://archive.ph"
	defaultArchiveIsTimeout  = 120
	defaultWgetBinary        = "wget"
	defaultCaptureTimeout    = 600
	defaultOTSBinary         = "ots"
	defaultTimestampTimeout  = 120
	defaultUploadRegion      = "us-east-1"
	defaultUploadTimeout     = 300
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
	defaultHistoryEnabled    = true
	defaultCaptureUniqueName = false
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
		},
		HTTP: HTTP{
			UserAgent: defaultUserAgent,
		},
		Wayback: Wayback{
			SaveURL:        defaultWaybackSaveURL,
			BaseURL:        defaultWaybackBaseURL,
			TimeoutSeconds: defaultWaybackTimeout,
		},
		ArchiveIs: ArchiveIs{
			BaseURL:        defaultArchiveIsBaseURL,
			TimeoutSeconds: defaultArchiveIsTimeout,
		},
		Capture: Capture{
			WgetBinary:     defaultWgetBinary,
			TimeoutSeconds: defaultCaptureTimeout,
			UniqueNames:    defaultCaptureUniqueName,
		},
		Timestamp: Timestamp{
			OTSBinary:      defaultOTSBinary,
			TimeoutSeconds: defaultTimestampTimeout,
		},
		Upload: Upload{
			Region:         defaultUploadRegion,
			TimeoutSeconds: defaultUploadTimeout,
		},
		History: History{
			Enabled: defaultHistoryEnabled,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
