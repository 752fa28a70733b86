// Package logging assembles the structured slog loggers used by chargectl.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes attr helpers plus standardized field keys so every
// component emits log lines with the same shape. A no-op logger is provided
// for tests and wiring code that cannot fail.
package logging
