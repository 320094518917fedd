package streams

import (
	"context"
	"errors"
	"time"

	"github.com/taskforge-dev/taskforge/emit"
)

// ErrQueueBackpressure is returned by Push when the queue is full and
// BackpressureTimeout elapses before a slot frees up: a bounded-channel
// backpressure pattern repurposed here for event buffering rather than
// node scheduling, since this engine has no concurrent node scheduler
// of its own (see DESIGN.md).
var ErrQueueBackpressure = errors.New("streams: queue backpressure timeout")

// AsyncQueue is the bounded buffer an async stream Subscriber uses to
// decouple its own (possibly slow) processing from the engine's
// synchronous dispatch. The dispatcher's Emit call enqueues and returns
// immediately up to the queue's depth; only once it's full does Push
// block, and only up to BackpressureTimeout before giving up.
type AsyncQueue struct {
	ch                  chan emit.Event
	backpressureTimeout time.Duration
}

// NewAsyncQueue returns a queue with the given depth and backpressure
// timeout. A zero timeout means Push blocks indefinitely once full.
func NewAsyncQueue(depth int, backpressureTimeout time.Duration) *AsyncQueue {
	return &AsyncQueue{
		ch:                  make(chan emit.Event, depth),
		backpressureTimeout: backpressureTimeout,
	}
}

// Push enqueues e, returning ErrQueueBackpressure if the queue stays
// full past the configured timeout, or ctx.Err() if ctx is cancelled
// first.
func (q *AsyncQueue) Push(ctx context.Context, e emit.Event) error {
	select {
	case q.ch <- e:
		return nil
	default:
	}

	var timeout <-chan time.Time
	if q.backpressureTimeout > 0 {
		timer := time.NewTimer(q.backpressureTimeout)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case q.ch <- e:
		return nil
	case <-timeout:
		return ErrQueueBackpressure
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Subscriber returns a Subscriber function that pushes into this queue.
// When the queue is full it blocks the dispatching goroutine for up to
// the backpressure timeout (bounded by a context one second longer) and
// then drops the event, so a full queue delays the dispatch path by at
// most that long rather than stalling it.
func (q *AsyncQueue) Subscriber() Subscriber {
	return func(e emit.Event) {
		ctx, cancel := context.WithTimeout(context.Background(), q.backpressureTimeout+time.Second)
		defer cancel()
		_ = q.Push(ctx, e)
	}
}

// Events returns the channel consumers range over to drain the queue.
func (q *AsyncQueue) Events() <-chan emit.Event {
	return q.ch
}

// Close signals no more events will be pushed.
func (q *AsyncQueue) Close() {
	close(q.ch)
}
