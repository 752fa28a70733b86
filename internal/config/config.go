package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"chargectl/internal/perms"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains control-point and directory configuration.
type Paths struct {
	StartThreshold string `toml:"start_threshold"`
	EndThreshold   string `toml:"end_threshold"`
	LogDir         string `toml:"log_dir"`
}

// Pipe describes the command FIFO the daemon serves.
type Pipe struct {
	Path        string `toml:"path"`
	Permissions string `toml:"permissions"`
	UID         *int   `toml:"uid"`
	GID         *int   `toml:"gid"`
}

// Thresholds holds optional values applied once at startup.
type Thresholds struct {
	Start *int `toml:"start"`
	End   *int `toml:"end"`
}

// History configures the SQLite journal of applied thresholds.
type History struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Battery configures the udev power-supply monitor.
type Battery struct {
	MonitorEnabled bool   `toml:"monitor_enabled"`
	Supply         string `toml:"supply"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for chargectl.
//
// Configuration sections by subsystem:
//   - Paths: threshold control points and the log directory
//   - Pipe: command FIFO path, permissions, and ownership
//   - Thresholds: optional values applied once at startup
//   - History: SQLite journal of applied thresholds
//   - Battery: udev monitor that re-applies thresholds after firmware resets
//   - Logging: log format and level
type Config struct {
	Paths      Paths      `toml:"paths"`
	Pipe       Pipe       `toml:"pipe"`
	Thresholds Thresholds `toml:"thresholds"`
	History    History    `toml:"history"`
	Battery    Battery    `toml:"battery"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/chargectl/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and the permission string parsed.
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

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("chargectl.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// PipePermissions returns the parsed pipe permission bits. Validate has
// already confirmed the string parses, so errors here only surface when a
// Config was constructed by hand without validation.
func (c *Config) PipePermissions() (perms.Value, error) {
	return perms.Parse(c.Pipe.Permissions)
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.LogDir}
	if c.History.Enabled && strings.TrimSpace(c.History.Path) != "" {
		dirs = append(dirs, filepath.Dir(c.History.Path))
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
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
