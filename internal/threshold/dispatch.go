package threshold

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"chargectl/internal/logging"
)

// Recorder journals successfully applied threshold values. Implementations
// must tolerate being called from the command loop; failures are logged and
// never block dispatch.
type Recorder interface {
	Record(ctx context.Context, control string, value uint8, source, correlationID string) error
}

// Dispatcher validates intents and drives the Writer, one side at a time.
type Dispatcher struct {
	logger   *slog.Logger
	writer   *Writer
	recorder Recorder
}

// NewDispatcher wires a dispatcher. recorder may be nil to disable
// journaling.
func NewDispatcher(logger *slog.Logger, writer *Writer, recorder Recorder) *Dispatcher {
	return &Dispatcher{
		logger:   logging.NewComponentLogger(logger, "threshold"),
		writer:   writer,
		recorder: recorder,
	}
}

// Dispatch parses one pipe payload and applies whatever it asks for. All
// failures are absorbed here; the command loop never sees them.
func (d *Dispatcher) Dispatch(ctx context.Context, payload string) {
	if strings.TrimSpace(payload) == "" {
		d.logger.Debug("empty payload", logging.String(logging.FieldEventType, "payload_empty"))
		return
	}

	correlationID := uuid.NewString()
	log := d.logger.With(logging.String(logging.FieldCorrelationID, correlationID))

	intent, err := ParseCommand(payload)
	if err != nil {
		log.Error("rejected command",
			logging.Error(err),
			logging.String(logging.FieldEventType, "command_rejected"),
			logging.String(logging.FieldErrorHint, "valid forms are <start>..<end>, start=<value>, end=<value>"),
		)
		return
	}
	if intent.Empty() {
		log.Debug("ignoring unrecognized payload",
			logging.String("payload", payload),
			logging.String(logging.FieldEventType, "payload_ignored"),
		)
		return
	}

	d.apply(ctx, log, intent, correlationID)
}

// apply validates each present side independently and writes the ones that
// parse. Zero attempted writes across a non-empty intent is reported once.
func (d *Dispatcher) apply(ctx context.Context, log *slog.Logger, intent Intent, correlationID string) {
	if intent.Empty() {
		log.Error("neither start nor end threshold provided",
			logging.String(logging.FieldEventType, "intent_empty"),
		)
		return
	}

	attempted := 0
	for _, side := range []struct {
		control Control
		raw     *string
	}{
		{ControlStart, intent.Start},
		{ControlEnd, intent.End},
	} {
		if side.raw == nil {
			continue
		}
		value, err := strconv.ParseUint(*side.raw, 10, 8)
		if err != nil {
			log.Debug("skipping unparsable threshold",
				logging.String(logging.FieldControl, string(side.control)),
				logging.String("raw", *side.raw),
				logging.String(logging.FieldEventType, "threshold_unparsable"),
			)
			continue
		}
		attempted++
		d.writeValue(ctx, log, side.control, uint8(value), "pipe", correlationID)
	}

	if attempted == 0 {
		log.Error("neither start nor end threshold parsable",
			logging.String(logging.FieldEventType, "intent_unparsable"),
			logging.String(logging.FieldErrorHint, "threshold values must be decimal integers between 0 and 255"),
		)
	}
}

// ApplyValue writes one already-validated value, logging and journaling the
// outcome. Startup defaults and the battery monitor use this entry point.
func (d *Dispatcher) ApplyValue(ctx context.Context, control Control, value uint8, source string) error {
	return d.writeValue(ctx, d.logger, control, value, source, uuid.NewString())
}

func (d *Dispatcher) writeValue(ctx context.Context, log *slog.Logger, control Control, value uint8, source, correlationID string) error {
	if err := d.writer.Write(control, value); err != nil {
		log.Error("threshold write failed",
			logging.Error(err),
			logging.String(logging.FieldControl, string(control)),
			logging.Int("value", int(value)),
			logging.String("source", source),
			logging.String(logging.FieldEventType, "threshold_write_failed"),
			logging.String(logging.FieldImpact, "threshold unchanged"),
		)
		return err
	}

	log.Info("threshold set",
		logging.String(logging.FieldControl, string(control)),
		logging.Int("value", int(value)),
		logging.String("source", source),
		logging.String(logging.FieldEventType, "threshold_set"),
	)

	if d.recorder != nil {
		if err := d.recorder.Record(ctx, string(control), value, source, correlationID); err != nil {
			log.Warn("unable to journal threshold change",
				logging.Error(err),
				logging.String(logging.FieldEventType, "history_record_failed"),
				logging.String(logging.FieldErrorHint, "check history.path and disk space"),
				logging.String(logging.FieldImpact, "history command will miss this change"),
			)
		}
	}
	return nil
}
