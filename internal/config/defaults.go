package config

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	defaultStartThresholdPath = "/sys/class/power_supply/BAT0/charge_control_start_threshold"
	defaultEndThresholdPath   = "/sys/class/power_supply/BAT0/charge_control_end_threshold"
	defaultPipePath           = "/tmp/chargectl.pipe"
	defaultPipePermissions    = "777"
	defaultLogDir             = "~/.local/share/chargectl/logs"
	defaultBatterySupply      = "BAT0"
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StartThreshold: defaultStartThresholdPath,
			EndThreshold:   defaultEndThresholdPath,
			LogDir:         defaultLogDir,
		},
		Pipe: Pipe{
			Path:        defaultPipePath,
			Permissions: defaultPipePermissions,
		},
		History: History{
			Enabled: true,
			Path:    defaultHistoryPath(),
		},
		Battery: Battery{
			Supply: defaultBatterySupply,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}

func defaultHistoryPath() string {
	if base, ok := os.LookupEnv("XDG_DATA_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "chargectl", "history.db")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "~/.local/share/chargectl/history.db"
	}
	return filepath.Join(home, ".local", "share", "chargectl", "history.db")
}
