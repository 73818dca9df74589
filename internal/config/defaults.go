package config

const (
	defaultToolBinary         = "ffedit"
	defaultLockTimeoutSeconds = 30
	defaultTempPrefix         = "ffglitch_"
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	defaultLogMaxSizeMB       = 10
	defaultLogMaxBackups      = 3
	defaultHistoryPath        = "~/.local/share/ffglitch/history.db"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Tool: Tool{
			Binary: defaultToolBinary,
		},
		Cache: Cache{
			Enabled:            true,
			LockTimeoutSeconds: defaultLockTimeoutSeconds,
		},
		Document: Document{
			StrictShape: true,
			TempPrefix:  defaultTempPrefix,
		},
		Logging: Logging{
			Format:     defaultLogFormat,
			Level:      defaultLogLevel,
			MaxSizeMB:  defaultLogMaxSizeMB,
			MaxBackups: defaultLogMaxBackups,
		},
		History: History{
			Path: defaultHistoryPath,
		},
	}
}
