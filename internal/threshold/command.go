package threshold

import (
	"fmt"
	"strings"
)

// Control names one of the two charge threshold control points.
type Control string

const (
	ControlStart Control = "start"
	ControlEnd   Control = "end"
)

// Intent is a parsed, not-yet-validated request to update one or both
// thresholds. A nil side was not mentioned by the command.
type Intent struct {
	Start *string
	End   *string
}

// Empty reports whether the intent names no threshold at all.
func (i Intent) Empty() bool {
	return i.Start == nil && i.End == nil
}

// ParseCommand turns one raw pipe payload into an Intent.
//
// Grammar, first match wins:
//
//	"<start>..<end>"  both sides, split on the first "..", sides trimmed
//	"start=<value>"   start only
//	"end=<value>"     end only
//
// Any other assignment mode is an error. Payloads matching neither form
// yield an empty Intent and no error; the protocol silently ignores them.
func ParseCommand(payload string) (Intent, error) {
	if left, right, found := strings.Cut(payload, ".."); found {
		start := strings.TrimSpace(left)
		end := strings.TrimSpace(right)
		return Intent{Start: &start, End: &end}, nil
	}

	if mode, value, found := strings.Cut(payload, "="); found {
		mode = strings.TrimSpace(mode)
		trimmed := strings.TrimSpace(value)
		switch Control(mode) {
		case ControlStart:
			return Intent{Start: &trimmed}, nil
		case ControlEnd:
			return Intent{End: &trimmed}, nil
		default:
			return Intent{}, fmt.Errorf("unknown threshold mode %q", mode)
		}
	}

	return Intent{}, nil
}
