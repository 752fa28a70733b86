package pipe

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/sys/unix"

	"chargectl/internal/logging"
	"chargectl/internal/perms"
)

// Spec describes the desired state of the command FIFO.
type Spec struct {
	Path string
	Mode perms.Value
	// UID and GID are optional; a nil side is left untouched during
	// ownership reconciliation.
	UID *int
	GID *int
}

// State captures the observed filesystem object at the pipe path.
type State struct {
	Exists bool
	IsFIFO bool
	Mode   perms.Value
	UID    int
	GID    int
}

// Inspect stats the pipe path. A missing path yields State{Exists: false}
// and no error; any other stat failure is returned.
func Inspect(path string) (State, error) {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		if errors.Is(err, unix.ENOENT) {
			return State{}, nil
		}
		return State{}, fmt.Errorf("stat %s: %w", path, err)
	}
	return State{
		Exists: true,
		IsFIFO: st.Mode&unix.S_IFMT == unix.S_IFIFO,
		Mode:   perms.Value(st.Mode & 0o777),
		UID:    int(st.Uid),
		GID:    int(st.Gid),
	}, nil
}

// Provision guarantees the pipe path holds a FIFO with the configured
// ownership and permission bits. It creates a missing FIFO, corrects
// ownership and mode drift on an existing one, and refuses to touch a
// non-FIFO occupant.
func Provision(logger *slog.Logger, spec Spec) error {
	log := logging.NewComponentLogger(logger, "pipe")

	state, err := Inspect(spec.Path)
	if err != nil {
		log.Error("unable to inspect pipe path",
			logging.Error(err),
			logging.String("path", spec.Path),
			logging.String(logging.FieldEventType, "pipe_inspect_failed"),
		)
		return err
	}

	if !state.Exists {
		log.Debug("pipe does not exist", logging.String("path", spec.Path))
		return create(log, spec)
	}

	if !state.IsFIFO {
		err := fmt.Errorf("pipe path %s is occupied by a non-FIFO object", spec.Path)
		log.Error("refusing to replace object at pipe path",
			logging.Error(err),
			logging.String(logging.FieldEventType, "pipe_path_occupied"),
			logging.String(logging.FieldErrorHint, "remove the object or configure a different pipe.path"),
			logging.String(logging.FieldImpact, "daemon cannot start"),
		)
		return err
	}

	if err := reconcileOwnership(log, spec, state); err != nil {
		return err
	}
	return reconcileMode(log, spec, state)
}

func reconcileOwnership(log *slog.Logger, spec Spec, state State) error {
	wrongUID := spec.UID != nil && state.UID != *spec.UID
	wrongGID := spec.GID != nil && state.GID != *spec.GID
	if !wrongUID && !wrongGID {
		return nil
	}

	// os.Chown leaves a side untouched when passed -1.
	uid, gid := -1, -1
	if spec.UID != nil {
		uid = *spec.UID
	}
	if spec.GID != nil {
		gid = *spec.GID
	}
	if err := os.Chown(spec.Path, uid, gid); err != nil {
		log.Error("unable to change pipe ownership",
			logging.Error(err),
			logging.String("path", spec.Path),
			logging.String(logging.FieldEventType, "pipe_chown_failed"),
		)
		return fmt.Errorf("chown pipe: %w", err)
	}
	log.Info("changed pipe ownership",
		logging.String("path", spec.Path),
		logging.Int("uid", uid),
		logging.Int("gid", gid),
		logging.String(logging.FieldEventType, "pipe_chown"),
	)
	return nil
}

func reconcileMode(log *slog.Logger, spec Spec, state State) error {
	if state.Mode == spec.Mode {
		log.Debug("pipe permissions are correct", logging.String("mode", state.Mode.String()))
		return nil
	}

	log.Debug("pipe permissions drifted",
		logging.String("observed", state.Mode.String()),
		logging.String("desired", spec.Mode.String()),
	)
	if err := os.Chmod(spec.Path, os.FileMode(spec.Mode.Bits())); err != nil {
		log.Error("unable to set pipe permissions",
			logging.Error(err),
			logging.String("path", spec.Path),
			logging.String(logging.FieldEventType, "pipe_chmod_failed"),
		)
		return fmt.Errorf("chmod pipe: %w", err)
	}
	log.Info("changed pipe permissions",
		logging.String("path", spec.Path),
		logging.String("mode", spec.Mode.String()),
		logging.String(logging.FieldEventType, "pipe_chmod"),
	)
	return nil
}

func create(log *slog.Logger, spec Spec) error {
	log.Info("creating pipe",
		logging.String("path", spec.Path),
		logging.String("mode", spec.Mode.String()),
		logging.String(logging.FieldEventType, "pipe_create"),
	)

	// Clear the umask so the requested mode lands verbatim. The previous
	// value is restored on every exit path.
	previous := unix.Umask(0)
	defer unix.Umask(previous)
	log.Debug("cleared umask", logging.String("previous", perms.Value(previous&0o777).String()))

	if err := unix.Mkfifo(spec.Path, spec.Mode.Bits()); err != nil {
		created := &CreateError{Path: spec.Path, Kind: classifyCreateError(err), Err: err}
		log.Error("unable to create pipe",
			logging.Error(created),
			logging.String("kind", string(created.Kind)),
			logging.String(logging.FieldEventType, "pipe_create_failed"),
			logging.String(logging.FieldImpact, "daemon cannot start"),
		)
		return created
	}

	log.Info("pipe created", logging.String("path", spec.Path), logging.String(logging.FieldEventType, "pipe_created"))
	return nil
}
