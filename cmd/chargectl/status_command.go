package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"chargectl/internal/config"
	"chargectl/internal/pipe"
	"chargectl/internal/threshold"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show control point, pipe, and daemon state",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			if cfg == nil {
				return fmt.Errorf("configuration unavailable")
			}
			stdout := cmd.OutOrStdout()
			colorize := shouldColorize(stdout)

			printSection(stdout, "Control Points", colorize)
			rows := [][]string{
				controlPointRow(threshold.ControlStart, cfg.Paths.StartThreshold),
				controlPointRow(threshold.ControlEnd, cfg.Paths.EndThreshold),
			}
			fmt.Fprintln(stdout, renderTable(
				[]string{"Control", "Path", "Value", "Writable"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft},
			))

			printSection(stdout, "Control Pipe", colorize)
			fmt.Fprintln(stdout, renderTable(
				[]string{"Path", "Present", "FIFO", "Mode", "Owner"},
				[][]string{pipeRow(cfg)},
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
			))

			printSection(stdout, "Daemon", colorize)
			fmt.Fprintln(stdout, daemonStateLine(cfg))
			return nil
		},
	}
}

func controlPointRow(control threshold.Control, path string) []string {
	label := cases.Title(language.Und).String(string(control))
	value := "-"
	if data, err := os.ReadFile(path); err == nil {
		value = strings.TrimSpace(string(data))
	}
	return []string{label, path, value, yesNo(threshold.Writable(path))}
}

func pipeRow(cfg *config.Config) []string {
	state, err := pipe.Inspect(cfg.Pipe.Path)
	if err != nil {
		return []string{cfg.Pipe.Path, "?", "?", "?", "?"}
	}
	if !state.Exists {
		return []string{cfg.Pipe.Path, "no", "-", "-", "-"}
	}
	owner := fmt.Sprintf("%d:%d", state.UID, state.GID)
	return []string{cfg.Pipe.Path, "yes", yesNo(state.IsFIFO), state.Mode.String(), owner}
}

func daemonStateLine(cfg *config.Config) string {
	pid, err := runningDaemonPID(cfg)
	if err != nil {
		return "Daemon is not running"
	}
	return fmt.Sprintf("Daemon is running (pid %d)", pid)
}

func printSection(out io.Writer, title string, colorize bool) {
	line := fmt.Sprintf("== %s ==", title)
	if colorize {
		line = "\x1b[34m" + line + "\x1b[0m"
	}
	fmt.Fprintln(out, line)
}

func parsePIDFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("parse pid file %s: %w", path, err)
	}
	return pid, nil
}
