package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeAPI(); err != nil {
		return err
	}
	c.normalizeRuns()
	c.normalizeRefresh()
	c.normalizeLogging()
	if err := c.normalizeAudit(); err != nil {
		return err
	}
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeAPI() error {
	c.API.BaseURL = strings.TrimRight(strings.TrimSpace(c.API.BaseURL), "/")
	if c.API.BaseURL == "" {
		c.API.BaseURL = defaultAPIBaseURL
	}
	if c.API.Token == "" {
		if token := strings.TrimSpace(os.Getenv("LOOM_API_TOKEN")); token != "" {
			c.API.Token = token
		}
	}
	if c.API.RequestTimeout <= 0 {
		c.API.RequestTimeout = defaultRequestTimeout
	}
	return nil
}

func (c *Config) normalizeRuns() {
	if c.Runs.PageSize <= 0 {
		c.Runs.PageSize = defaultRunPageSize
	}
}

func (c *Config) normalizeRefresh() {
	if c.Refresh.GenerationInterval <= 0 {
		c.Refresh.GenerationInterval = defaultGenerationInterval
	}
	if c.Refresh.FleetInterval <= 0 {
		c.Refresh.FleetInterval = defaultFleetInterval
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func (c *Config) normalizeAudit() error {
	var err error
	if strings.TrimSpace(c.Audit.Path) == "" {
		c.Audit.Path = defaultAuditPath
	}
	if c.Audit.Path, err = expandPath(c.Audit.Path); err != nil {
		return fmt.Errorf("audit.path: %w", err)
	}
	return nil
}
