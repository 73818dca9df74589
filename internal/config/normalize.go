package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	c.normalizeTool()
	if err := c.normalizeDocument(); err != nil {
		return err
	}
	if err := c.normalizeLogging(); err != nil {
		return err
	}
	if err := c.normalizeHistory(); err != nil {
		return err
	}
	if c.Metrics.Textfile = strings.TrimSpace(c.Metrics.Textfile); c.Metrics.Textfile != "" {
		expanded, err := expandPath(c.Metrics.Textfile)
		if err != nil {
			return fmt.Errorf("metrics.textfile: %w", err)
		}
		c.Metrics.Textfile = expanded
	}
	return nil
}

func (c *Config) normalizeTool() {
	c.Tool.Binary = strings.TrimSpace(c.Tool.Binary)
	if value, ok := os.LookupEnv("FFEDIT_PATH"); ok && strings.TrimSpace(value) != "" {
		c.Tool.Binary = strings.TrimSpace(value)
	}
	if c.Tool.Binary == "" {
		c.Tool.Binary = defaultToolBinary
	}
	if strings.HasPrefix(c.Tool.Binary, "~") {
		if expanded, err := expandPath(c.Tool.Binary); err == nil {
			c.Tool.Binary = expanded
		}
	}
	if c.Tool.Threads < 0 {
		c.Tool.Threads = 0
	}
	if c.Tool.TimeoutSeconds < 0 {
		c.Tool.TimeoutSeconds = 0
	}
	if c.Cache.LockTimeoutSeconds <= 0 {
		c.Cache.LockTimeoutSeconds = defaultLockTimeoutSeconds
	}
}

func (c *Config) normalizeDocument() error {
	if dir := strings.TrimSpace(c.Document.TempDir); dir != "" {
		expanded, err := expandPath(dir)
		if err != nil {
			return fmt.Errorf("document.temp_dir: %w", err)
		}
		c.Document.TempDir = expanded
	}
	c.Document.TempPrefix = strings.TrimSpace(c.Document.TempPrefix)
	if c.Document.TempPrefix == "" {
		c.Document.TempPrefix = defaultTempPrefix
	}
	return nil
}

func (c *Config) normalizeLogging() error {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	if value, ok := os.LookupEnv("FFGLITCH_LOG_LEVEL"); ok && strings.TrimSpace(value) != "" {
		c.Logging.Level = value
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if file := strings.TrimSpace(c.Logging.File); file != "" {
		expanded, err := expandPath(file)
		if err != nil {
			return fmt.Errorf("logging.file: %w", err)
		}
		c.Logging.File = expanded
	}
	if c.Logging.MaxSizeMB <= 0 {
		c.Logging.MaxSizeMB = defaultLogMaxSizeMB
	}
	if c.Logging.MaxBackups < 0 {
		c.Logging.MaxBackups = 0
	}
	return nil
}

func (c *Config) normalizeHistory() error {
	if strings.TrimSpace(c.History.Path) == "" {
		c.History.Path = defaultHistoryPath
	}
	expanded, err := expandPath(strings.TrimSpace(c.History.Path))
	if err != nil {
		return fmt.Errorf("history.path: %w", err)
	}
	c.History.Path = expanded
	return nil
}
