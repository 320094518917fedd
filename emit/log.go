package emit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
)

// LogEmitter writes events through a charmbracelet/log logger, one line
// per event. jsonMode switches between structured key=value fields and
// raw JSON.
type LogEmitter struct {
	logger   *log.Logger
	w        io.Writer
	jsonMode bool
}

// NewLogEmitter builds a LogEmitter writing to w. jsonMode emits each
// event as a single JSON object instead of logfmt-style fields.
func NewLogEmitter(w io.Writer, jsonMode bool) *LogEmitter {
	return &LogEmitter{
		logger:   log.NewWithOptions(w, log.Options{ReportTimestamp: false}),
		w:        w,
		jsonMode: jsonMode,
	}
}

func (l *LogEmitter) Emit(e Event) {
	if l.jsonMode {
		l.emitJSON(e)
		return
	}
	l.emitText(e)
}

func (l *LogEmitter) emitJSON(e Event) {
	b, err := json.Marshal(e)
	if err != nil {
		l.logger.Error("marshal event", "err", err)
		return
	}
	fmt.Fprintln(l.w, string(b))
}

func (l *LogEmitter) emitText(e Event) {
	l.logger.Info(e.Msg,
		"stream", e.Stream,
		"run_id", e.RunID,
		"step", e.Step,
		"node_id", e.NodeID,
	)
}

func (l *LogEmitter) EmitBatch(ctx context.Context, events []Event) error {
	for _, e := range events {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			l.Emit(e)
		}
	}
	return nil
}

func (l *LogEmitter) Flush(context.Context) error { return nil }
