// Package config loads, normalizes, and validates chargectl configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and validates every knob the daemon and CLI
// need: control-point paths, pipe placement and permissions, initial
// thresholds, history journaling, and the battery monitor.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, parsed permission bits, and clear validation errors.
package config
