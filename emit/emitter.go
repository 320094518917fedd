package emit

import "context"

// Emitter is the sink every node, tool, and bookkeeping step writes
// observability events to. Implementations decide whether to buffer,
// forward over the wire, or drop.
type Emitter interface {
	Emit(event Event)
	EmitBatch(ctx context.Context, events []Event) error
	Flush(ctx context.Context) error
}
