package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/gofrs/flock"

	"chargectl/internal/config"
	"chargectl/internal/logging"
	"chargectl/internal/pipe"
	"chargectl/internal/threshold"
)

// Daemon coordinates pipe provisioning and the command loop, and enforces
// single-instance execution.
type Daemon struct {
	cfg        *config.Config
	logger     *slog.Logger
	dispatcher *threshold.Dispatcher

	lockPath string
	lock     *flock.Flock
	monitor  *batteryMonitor
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, logger *slog.Logger, dispatcher *threshold.Dispatcher) (*Daemon, error) {
	if cfg == nil || dispatcher == nil {
		return nil, errors.New("daemon requires config and dispatcher")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	lockPath := filepath.Join(cfg.Paths.LogDir, "chargectld.lock")
	d := &Daemon{
		cfg:        cfg,
		logger:     logging.NewComponentLogger(logger, "daemon"),
		dispatcher: dispatcher,
		lockPath:   lockPath,
		lock:       flock.New(lockPath),
	}
	d.monitor = newBatteryMonitor(cfg, logger, dispatcher)
	return d, nil
}

// Start acquires the instance lock, reconciles the pipe, applies initial
// thresholds, and probes control-point writability. Any returned error is
// fatal to the process.
func (d *Daemon) Start(ctx context.Context) error {
	locked, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire instance lock %s: %w", d.lockPath, err)
	}
	if !locked {
		return fmt.Errorf("another chargectld instance holds %s", d.lockPath)
	}

	mode, err := d.cfg.PipePermissions()
	if err != nil {
		return err
	}
	spec := pipe.Spec{
		Path: d.cfg.Pipe.Path,
		Mode: mode,
		UID:  d.cfg.Pipe.UID,
		GID:  d.cfg.Pipe.GID,
	}
	if err := pipe.Provision(d.logger, spec); err != nil {
		return err
	}

	d.applyInitialThresholds(ctx)

	if err := d.checkControlPoints(); err != nil {
		return err
	}

	if d.monitor != nil {
		d.monitor.Start(ctx)
	}
	return nil
}

// applyInitialThresholds writes the configured startup values, each side
// independently. Failures are logged by the dispatcher and are not fatal.
func (d *Daemon) applyInitialThresholds(ctx context.Context) {
	if d.cfg.Thresholds.Start != nil {
		_ = d.dispatcher.ApplyValue(ctx, threshold.ControlStart, uint8(*d.cfg.Thresholds.Start), "startup")
	} else {
		d.logger.Debug("no initial start threshold configured")
	}
	if d.cfg.Thresholds.End != nil {
		_ = d.dispatcher.ApplyValue(ctx, threshold.ControlEnd, uint8(*d.cfg.Thresholds.End), "startup")
	} else {
		d.logger.Debug("no initial end threshold configured")
	}
}

// checkControlPoints probes write access on both control points. Both
// unwritable is fatal; one unwritable is a warning, since conditions may
// change and every write reports its own outcome anyway.
func (d *Daemon) checkControlPoints() error {
	startWritable := threshold.Writable(d.cfg.Paths.StartThreshold)
	endWritable := threshold.Writable(d.cfg.Paths.EndThreshold)

	if !startWritable {
		d.logger.Warn("start control point is not writable",
			logging.String("path", d.cfg.Paths.StartThreshold),
			logging.String(logging.FieldEventType, "control_point_unwritable"),
			logging.String(logging.FieldErrorHint, "check sysfs permissions or run with sufficient privileges"),
			logging.String(logging.FieldImpact, "start threshold commands will fail"),
		)
	}
	if !endWritable {
		d.logger.Warn("end control point is not writable",
			logging.String("path", d.cfg.Paths.EndThreshold),
			logging.String(logging.FieldEventType, "control_point_unwritable"),
			logging.String(logging.FieldErrorHint, "check sysfs permissions or run with sufficient privileges"),
			logging.String(logging.FieldImpact, "end threshold commands will fail"),
		)
	}
	if !startWritable && !endWritable {
		return errors.New("neither control point is writable")
	}
	return nil
}

// Serve blocks on the pipe and dispatches every payload until ctx is
// canceled. A failing read never terminates the loop: a FIFO with no
// writer is normal, and end-of-pipe after a writer disconnects simply
// yields the next blocking read.
func (d *Daemon) Serve(ctx context.Context) {
	d.logger.Info("serving commands",
		logging.String("pipe", d.cfg.Pipe.Path),
		logging.String(logging.FieldEventType, "serving"),
	)

	// A blocked FIFO open only returns when a writer appears. Nudge the
	// pipe on shutdown so cancellation does not wait for the next command.
	go func() {
		<-ctx.Done()
		_ = pipe.WriteCommand(d.cfg.Pipe.Path, "")
	}()

	for {
		if ctx.Err() != nil {
			d.logger.Info("command loop stopping", logging.String(logging.FieldEventType, "serve_stopped"))
			return
		}

		payload, err := pipe.ReadPayload(d.cfg.Pipe.Path)
		if err != nil {
			d.logger.Error("pipe read failed",
				logging.Error(err),
				logging.String(logging.FieldEventType, "pipe_read_failed"),
			)
			continue
		}

		d.dispatcher.Dispatch(ctx, payload)
	}
}

// Close releases daemon resources.
func (d *Daemon) Close() {
	if d == nil {
		return
	}
	if d.monitor != nil {
		d.monitor.Stop()
	}
	if d.lock != nil {
		_ = d.lock.Unlock()
	}
}

// LockPath returns the instance lock location.
func (d *Daemon) LockPath() string {
	return d.lockPath
}
