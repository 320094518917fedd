// Package streams implements four-stream event dispatch: messages,
// task, node, and tool subscribers each get their own typed callback
// registration, fed by one underlying emit.Emitter so the rest of the
// engine emits a single Event type.
package streams

import (
	"context"
	"time"

	"github.com/taskforge-dev/taskforge/emit"
)

// Subscriber receives events for one stream, in emission order.
// Dispatch is synchronous: a Subscriber must not block, since it runs
// inline with the engine's node loop. A subscriber that needs to do
// slow work should hand events off to its own AsyncQueue.
type Subscriber func(emit.Event)

// Dispatcher classifies incoming events by Stream and fans out to every
// subscriber registered for that stream, then forwards the event to the
// underlying Emitter for logging/persistence/tracing.
type Dispatcher struct {
	underlying  emit.Emitter
	subscribers map[emit.Stream][]Subscriber
	now         func() time.Time
}

// NewDispatcher wraps underlying with stream-based fan-out. underlying
// still receives every event regardless of subscriber registration, so
// LogEmitter/BufferedEmitter/OTelEmitter keep working unchanged.
func NewDispatcher(underlying emit.Emitter) *Dispatcher {
	return &Dispatcher{
		underlying:  underlying,
		subscribers: make(map[emit.Stream][]Subscriber),
		now:         time.Now,
	}
}

// Subscribe registers fn to receive every event on stream.
func (d *Dispatcher) Subscribe(stream emit.Stream, fn Subscriber) {
	d.subscribers[stream] = append(d.subscribers[stream], fn)
}

// Emit stamps e.Timestamp if unset, forwards it to the underlying
// Emitter, then fans it out to stream subscribers in registration
// order.
func (d *Dispatcher) Emit(e emit.Event) {
	if e.Timestamp.IsZero() {
		e.Timestamp = d.now()
	}
	d.underlying.Emit(e)
	for _, sub := range d.subscribers[e.Stream] {
		sub(e)
	}
}

func (d *Dispatcher) EmitBatch(ctx context.Context, events []emit.Event) error {
	for _, e := range events {
		if err := ctx.Err(); err != nil {
			return err
		}
		d.Emit(e)
	}
	return nil
}

func (d *Dispatcher) Flush(ctx context.Context) error {
	return d.underlying.Flush(ctx)
}
