// Package daemonrun wires the chargectld process: logging, pid file,
// history store, and the daemon itself. Both the chargectld binary and
// `chargectl daemon run` call into it.
package daemonrun

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"chargectl/internal/config"
	"chargectl/internal/daemon"
	"chargectl/internal/history"
	"chargectl/internal/logging"
	"chargectl/internal/preflight"
	"chargectl/internal/threshold"
)

// Options configures daemon process runtime behavior.
type Options struct {
	// LogLevel overrides the configured level when non-empty.
	LogLevel string
}

// Run starts the chargectl daemon runtime loop and blocks until the process
// is signaled or a fatal startup error occurs.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	level := cfg.Logging.Level
	if opts.LogLevel != "" {
		level = opts.LogLevel
	}
	logPath := filepath.Join(cfg.Paths.LogDir, "chargectld.log")
	logger, err := logging.New(logging.Options{
		Level:            level,
		Format:           cfg.Logging.Format,
		OutputPaths:      []string{"stdout", logPath},
		ErrorOutputPaths: []string{"stderr", logPath},
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	for _, result := range preflight.RunAll(cfg) {
		if result.Passed {
			logger.Debug("preflight check passed",
				logging.String("check", result.Name),
				logging.String("detail", result.Detail),
			)
			continue
		}
		logger.Warn("preflight check failed",
			logging.String("check", result.Name),
			logging.String("detail", result.Detail),
			logging.String(logging.FieldEventType, "preflight_failed"),
			logging.String(logging.FieldErrorHint, "review paths configuration"),
			logging.String(logging.FieldImpact, "related operations may fail"),
		)
	}

	pidPath := PIDPath(cfg)
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	var store *history.Store
	if cfg.History.Enabled {
		store, err = history.Open(cfg.History.Path)
		if err != nil {
			logger.Error("open history store", logging.Error(err))
			return err
		}
		defer store.Close()
	}

	writer := threshold.NewWriter(cfg.Paths.StartThreshold, cfg.Paths.EndThreshold)
	dispatcher := threshold.NewDispatcher(logger, writer, store)

	d, err := daemon.New(cfg, logger, dispatcher)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	if err := d.Start(signalCtx); err != nil {
		logger.Error("daemon start failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "daemon_start_failed"),
			logging.String(logging.FieldErrorHint, "check pipe and control point configuration"),
			logging.String(logging.FieldImpact, "daemon is not serving commands"),
		)
		return err
	}

	d.Serve(signalCtx)
	logger.Info("chargectl daemon shutting down")
	return nil
}

// PIDPath returns the pid file location for the given config.
func PIDPath(cfg *config.Config) string {
	return filepath.Join(cfg.Paths.LogDir, "chargectld.pid")
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}
