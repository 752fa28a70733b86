package config

import (
	"errors"
	"fmt"

	"chargectl/internal/perms"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validatePipe(); err != nil {
		return err
	}
	if err := c.validateThresholds(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.StartThreshold == "" {
		return errors.New("paths.start_threshold must be set")
	}
	if c.Paths.EndThreshold == "" {
		return errors.New("paths.end_threshold must be set")
	}
	if c.Paths.StartThreshold == c.Paths.EndThreshold {
		return errors.New("paths.start_threshold and paths.end_threshold must differ")
	}
	return nil
}

func (c *Config) validatePipe() error {
	if c.Pipe.Path == "" {
		return errors.New("pipe.path must be set")
	}
	value, err := perms.Parse(c.Pipe.Permissions)
	if err != nil {
		return fmt.Errorf("pipe.permissions: %w", err)
	}
	if value > 0o777 {
		return fmt.Errorf("pipe.permissions %q exceeds the nine permission bits", c.Pipe.Permissions)
	}
	if c.Pipe.UID != nil && *c.Pipe.UID < 0 {
		return errors.New("pipe.uid must not be negative")
	}
	if c.Pipe.GID != nil && *c.Pipe.GID < 0 {
		return errors.New("pipe.gid must not be negative")
	}
	return nil
}

func (c *Config) validateThresholds() error {
	for name, value := range map[string]*int{
		"thresholds.start": c.Thresholds.Start,
		"thresholds.end":   c.Thresholds.End,
	} {
		if value == nil {
			continue
		}
		if *value < 0 || *value > 255 {
			return fmt.Errorf("%s must be between 0 and 255", name)
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
