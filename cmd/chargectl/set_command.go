package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"chargectl/internal/pipe"
	"chargectl/internal/threshold"
)

func newSetCommand(ctx *commandContext) *cobra.Command {
	var startFlag string
	var endFlag string

	cmd := &cobra.Command{
		Use:   "set [<start>..<end>]",
		Short: "Send a threshold command to the running daemon",
		Long: `Send a threshold command through the daemon control pipe.

Pass a range argument ("70..80") to set both thresholds, or use --start
and --end to set one side at a time.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := buildSetPayload(args, startFlag, endFlag)
			if err != nil {
				return err
			}

			pipePath := ctx.pipePath()
			if err := pipe.WriteCommand(pipePath, payload); err != nil {
				if errors.Is(err, pipe.ErrNoReader) {
					return fmt.Errorf("no daemon is reading %s; start it with `chargectl daemon start`", pipePath)
				}
				return fmt.Errorf("send command: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Sent %q to %s\n", payload, pipePath)
			return nil
		},
	}

	cmd.Flags().StringVar(&startFlag, "start", "", "Charge start threshold (0-255)")
	cmd.Flags().StringVar(&endFlag, "end", "", "Charge end threshold (0-255)")
	return cmd
}

// buildSetPayload turns the positional range or the side flags into a
// pipe payload, rejecting values the daemon would refuse.
func buildSetPayload(args []string, startFlag, endFlag string) (string, error) {
	startFlag = strings.TrimSpace(startFlag)
	endFlag = strings.TrimSpace(endFlag)

	var payload string
	switch {
	case len(args) == 1:
		if startFlag != "" || endFlag != "" {
			return "", errors.New("pass either a range argument or --start/--end, not both")
		}
		payload = strings.TrimSpace(args[0])
		if payload == "" {
			return "", errors.New("empty threshold command")
		}
	case startFlag != "" && endFlag != "":
		payload = startFlag + ".." + endFlag
	case startFlag != "":
		payload = "start=" + startFlag
	case endFlag != "":
		payload = "end=" + endFlag
	default:
		return "", errors.New("nothing to set; pass a range argument or --start/--end")
	}

	intent, err := threshold.ParseCommand(payload)
	if err != nil {
		return "", err
	}
	if intent.Empty() {
		return "", fmt.Errorf("command %q carries no threshold", payload)
	}
	for control, raw := range map[threshold.Control]*string{
		threshold.ControlStart: intent.Start,
		threshold.ControlEnd:   intent.End,
	} {
		if raw == nil {
			continue
		}
		if _, err := strconv.ParseUint(*raw, 10, 8); err != nil {
			return "", fmt.Errorf("invalid %s threshold %q: must be 0-255", control, *raw)
		}
	}
	return payload, nil
}
