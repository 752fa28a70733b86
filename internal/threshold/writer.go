package threshold

import (
	"fmt"
	"os"
	"strconv"

	"golang.org/x/sys/unix"
)

// Writer writes validated threshold values to the two control points.
type Writer struct {
	startPath string
	endPath   string
}

// NewWriter returns a Writer bound to the configured control-point paths.
func NewWriter(startPath, endPath string) *Writer {
	return &Writer{startPath: startPath, endPath: endPath}
}

// Path returns the control-point path backing the given control.
func (w *Writer) Path(control Control) string {
	if control == ControlEnd {
		return w.endPath
	}
	return w.startPath
}

// Write replaces the contents of the control point with the decimal form of
// value. The write is best effort with respect to other writers of the same
// file; there is no locking on sysfs attributes.
func (w *Writer) Write(control Control, value uint8) error {
	path := w.Path(control)
	if err := os.WriteFile(path, []byte(strconv.Itoa(int(value))), 0o644); err != nil {
		return fmt.Errorf("write %s threshold: %w", control, err)
	}
	return nil
}

// Writable probes write access on a path without writing. The probe is
// advisory; conditions may change between the probe and a later write.
func Writable(path string) bool {
	return unix.Access(path, unix.W_OK) == nil
}
