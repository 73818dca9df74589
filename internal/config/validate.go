package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateTool(); err != nil {
		return err
	}
	if err := c.validateDocument(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateTool() error {
	if strings.TrimSpace(c.Tool.Binary) == "" {
		return errors.New("tool.binary must be set")
	}
	if c.Tool.Threads > 256 {
		return fmt.Errorf("tool.threads must be between 0 and 256, got %d", c.Tool.Threads)
	}
	return nil
}

func (c *Config) validateDocument() error {
	if strings.ContainsAny(c.Document.TempPrefix, `/\*`) || c.Document.TempPrefix != filepath.Base(c.Document.TempPrefix) {
		return fmt.Errorf("document.temp_prefix %q must be a plain file name prefix", c.Document.TempPrefix)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q must be one of debug, info, warn, error", c.Logging.Level)
	}
	return nil
}
