package config

const (
	defaultLogDir             = "~/.local/share/loom/logs"
	defaultAPIBaseURL         = "http://127.0.0.1:8195"
	defaultRequestTimeout     = 10
	defaultRunPageSize        = 25
	defaultGenerationInterval = 5
	defaultFleetInterval      = 30
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	defaultAuditEnabled       = true
	defaultAuditPath          = "~/.local/share/loom/audit.db"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir: defaultLogDir,
		},
		API: API{
			BaseURL:        defaultAPIBaseURL,
			RequestTimeout: defaultRequestTimeout,
		},
		Runs: Runs{
			PageSize: defaultRunPageSize,
		},
		Refresh: Refresh{
			GenerationInterval: defaultGenerationInterval,
			FleetInterval:      defaultFleetInterval,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Audit: Audit{
			Enabled: defaultAuditEnabled,
			Path:    defaultAuditPath,
		},
	}
}
