package pipe

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// ReadPayload performs one blocking read cycle on the FIFO: the open blocks
// until a writer connects, then the whole payload up to end-of-pipe is
// returned. An empty payload is valid (a writer opened and closed without
// writing).
func ReadPayload(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read pipe %s: %w", path, err)
	}
	return string(data), nil
}

// ErrNoReader indicates a command was written while no daemon had the pipe
// open for reading.
var ErrNoReader = errors.New("no process is reading the pipe")

// WriteCommand sends one payload into the FIFO. The open is non-blocking so
// a missing reader surfaces as ErrNoReader instead of hanging the caller.
func WriteCommand(path, payload string) error {
	file, err := os.OpenFile(path, os.O_WRONLY|unix.O_NONBLOCK, 0)
	if err != nil {
		if errors.Is(err, unix.ENXIO) {
			return fmt.Errorf("open pipe %s: %w", path, ErrNoReader)
		}
		return fmt.Errorf("open pipe %s: %w", path, err)
	}
	defer file.Close()

	if _, err := file.WriteString(payload); err != nil {
		return fmt.Errorf("write pipe %s: %w", path, err)
	}
	return nil
}
