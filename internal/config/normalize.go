package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizePipe(); err != nil {
		return err
	}
	if err := c.normalizeHistory(); err != nil {
		return err
	}
	c.normalizeBattery()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.StartThreshold, err = expandPath(c.Paths.StartThreshold); err != nil {
		return fmt.Errorf("paths.start_threshold: %w", err)
	}
	if c.Paths.EndThreshold, err = expandPath(c.Paths.EndThreshold); err != nil {
		return fmt.Errorf("paths.end_threshold: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizePipe() error {
	var err error
	if strings.TrimSpace(c.Pipe.Path) == "" {
		c.Pipe.Path = defaultPipePath
	}
	if c.Pipe.Path, err = expandPath(c.Pipe.Path); err != nil {
		return fmt.Errorf("pipe.path: %w", err)
	}
	c.Pipe.Permissions = strings.TrimSpace(c.Pipe.Permissions)
	if c.Pipe.Permissions == "" {
		c.Pipe.Permissions = defaultPipePermissions
	}
	return nil
}

func (c *Config) normalizeHistory() error {
	if !c.History.Enabled {
		return nil
	}
	var err error
	if strings.TrimSpace(c.History.Path) == "" {
		c.History.Path = defaultHistoryPath()
	}
	if c.History.Path, err = expandPath(c.History.Path); err != nil {
		return fmt.Errorf("history.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeBattery() {
	c.Battery.Supply = strings.TrimSpace(c.Battery.Supply)
	if c.Battery.Supply == "" {
		c.Battery.Supply = defaultBatterySupply
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
