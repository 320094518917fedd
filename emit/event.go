package emit

import "time"

// Stream identifies which of the four logical event streams an Event
// belongs to. A single Event type is multiplexed across all four so
// subscribers can filter cheaply without the dispatcher maintaining
// separate event types per stream.
type Stream string

const (
	// StreamMessages carries user-facing narration: what the system is
	// doing in plain language.
	StreamMessages Stream = "messages"
	// StreamTask carries task-lifecycle events: task started, task
	// completed, milestone advanced.
	StreamTask Stream = "task"
	// StreamNode carries per-node execution events: node entered, node
	// exited, routing decision taken.
	StreamNode Stream = "node"
	// StreamTool carries tool-call events: tool invoked, tool result.
	StreamTool Stream = "tool"
)

// Event is the single event type multiplexed across all four streams.
// Stream classifies it; Timestamp lets subscribers verify ordering
// within a stream without relying on delivery order.
type Event struct {
	RunID     string
	Stream    Stream
	Step      int
	NodeID    string
	Msg       string
	Meta      map[string]interface{}
	Timestamp time.Time
}
