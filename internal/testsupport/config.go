package testsupport

import (
	"path/filepath"
	"testing"

	"loom/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Audit.Path = filepath.Join(base, "audit.db")
	cfg.API.BaseURL = "http://127.0.0.1:0"
	cfg.API.Token = "test-token"

	for _, opt := range opts {
		opt(&cfg)
	}

	return &cfg
}

// WithBaseURL overrides the control plane URL on the test config.
func WithBaseURL(baseURL string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.API.BaseURL = baseURL
	}
}

// WithAuditDisabled switches the command journal off.
func WithAuditDisabled() ConfigOption {
	return func(cfg *config.Config) {
		cfg.Audit.Enabled = false
	}
}
