package emit

import (
	"context"
	"sync"
)

// HistoryFilter narrows GetHistoryWithFilter results. A nil field or nil
// bound means "don't filter on this dimension".
type HistoryFilter struct {
	Stream   Stream
	NodeID   string
	MinStep  *int
	MaxStep  *int
}

// BufferedEmitter retains every event per run in memory, for test
// assertions and other callers that need to inspect what was emitted.
type BufferedEmitter struct {
	mu     sync.Mutex
	events map[string][]Event
}

// NewBufferedEmitter returns an empty BufferedEmitter.
func NewBufferedEmitter() *BufferedEmitter {
	return &BufferedEmitter{events: make(map[string][]Event)}
}

func (b *BufferedEmitter) Emit(e Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events[e.RunID] = append(b.events[e.RunID], e)
}

func (b *BufferedEmitter) EmitBatch(ctx context.Context, events []Event) error {
	for _, e := range events {
		if err := ctx.Err(); err != nil {
			return err
		}
		b.Emit(e)
	}
	return nil
}

func (b *BufferedEmitter) Flush(context.Context) error { return nil }

// GetHistory returns every event recorded for runID, in emission order.
func (b *BufferedEmitter) GetHistory(runID string) []Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Event, len(b.events[runID]))
	copy(out, b.events[runID])
	return out
}

// GetHistoryWithFilter returns the subset of runID's events matching filter.
func (b *BufferedEmitter) GetHistoryWithFilter(runID string, filter HistoryFilter) []Event {
	var out []Event
	for _, e := range b.GetHistory(runID) {
		if matchesFilter(e, filter) {
			out = append(out, e)
		}
	}
	return out
}

func matchesFilter(e Event, f HistoryFilter) bool {
	if f.Stream != "" && e.Stream != f.Stream {
		return false
	}
	if f.NodeID != "" && e.NodeID != f.NodeID {
		return false
	}
	if f.MinStep != nil && e.Step < *f.MinStep {
		return false
	}
	if f.MaxStep != nil && e.Step > *f.MaxStep {
		return false
	}
	return true
}

// Clear drops every retained event for runID.
func (b *BufferedEmitter) Clear(runID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.events, runID)
}
