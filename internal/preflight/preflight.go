// Package preflight probes the filesystem state the daemon depends on before
// it enters the command loop. The probes are advisory: they shape startup
// decisions and status output, but every runtime operation still reports its
// own outcome.
package preflight

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"chargectl/internal/config"
	"chargectl/internal/threshold"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all preflight checks for the given config.
func RunAll(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}
	return []Result{
		CheckControlPoint("Start threshold", cfg.Paths.StartThreshold),
		CheckControlPoint("End threshold", cfg.Paths.EndThreshold),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
	}
}

// CheckControlPoint verifies the control point exists and is writable.
func CheckControlPoint(name, path string) Result {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !threshold.Writable(path) {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: not writable)", path)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (writable)", path)}
}

// CheckDirectoryAccess verifies that the directory exists and is usable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}
