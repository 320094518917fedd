package emit

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// OTelEmitter records each Event as a span event on a single run-scoped
// span, so a run's node/tool/task activity shows up as one trace in
// whatever backend the operator's OTel exporter is wired to.
type OTelEmitter struct {
	tracer trace.Tracer
	spans  map[string]trace.Span
	ends   map[string]context.CancelFunc
}

// NewOTelEmitter builds an OTelEmitter using the global tracer provider
// under the given instrumentation name.
func NewOTelEmitter(instrumentationName string) *OTelEmitter {
	return &OTelEmitter{
		tracer: otel.Tracer(instrumentationName),
		spans:  make(map[string]trace.Span),
	}
}

func (o *OTelEmitter) spanFor(ctx context.Context, runID string) trace.Span {
	if span, ok := o.spans[runID]; ok {
		return span
	}
	_, span := o.tracer.Start(ctx, "run:"+runID)
	o.spans[runID] = span
	return span
}

func (o *OTelEmitter) Emit(e Event) {
	span := o.spanFor(context.Background(), e.RunID)
	span.AddEvent(e.Msg, trace.WithAttributes(
		attribute.String("stream", string(e.Stream)),
		attribute.Int("step", e.Step),
		attribute.String("node_id", e.NodeID),
	))
}

func (o *OTelEmitter) EmitBatch(ctx context.Context, events []Event) error {
	for _, e := range events {
		if err := ctx.Err(); err != nil {
			return err
		}
		o.Emit(e)
	}
	return nil
}

// Flush ends every open run span, flushing them to the configured
// exporter.
func (o *OTelEmitter) Flush(ctx context.Context) error {
	for runID, span := range o.spans {
		span.End()
		delete(o.spans, runID)
	}
	return nil
}

// EndRun ends the span for a single run without flushing the others.
func (o *OTelEmitter) EndRun(runID string) {
	if span, ok := o.spans[runID]; ok {
		span.End()
		delete(o.spans, runID)
	}
}
