package workflow

import "context"

// Node is a processing unit in the workflow graph. It receives the
// current State, performs its work (an LLM call, a tool call, pure
// bookkeeping), and returns a NodeResult describing how State changed
// and where execution goes next.
type Node interface {
	Run(ctx context.Context, state State) NodeResult
}

// NodeResult is the output of a single node execution.
type NodeResult struct {
	// Delta is the next State. Handlers receive the full prior State and
	// return the full next State; Reduce is a replace-reducer, not a
	// field-by-field merge, since every node already has everything it
	// needs to compute the complete next value.
	Delta State

	// Route is the next hop. Nodes may leave this zero and let the
	// engine fall back to the pure router functions in router.go; scope,
	// planner, qa, and assessor all do, since their routing depends only
	// on the fields they just wrote to Delta.
	Route Next

	// Err halts the run unless the caller recognizes it as a recoverable
	// node-specific error type (see the errs package).
	Err error
}

// Next specifies where execution goes after a node completes.
type Next struct {
	To       string
	Terminal bool
}

// Stop terminates workflow execution.
func Stop() Next { return Next{Terminal: true} }

// Goto routes to the named node.
func Goto(nodeID string) Next { return Next{To: nodeID} }

// NodeFunc adapts a plain function to the Node interface.
type NodeFunc func(ctx context.Context, state State) NodeResult

func (f NodeFunc) Run(ctx context.Context, state State) NodeResult {
	return f(ctx, state)
}

// Reduce merges a node's Delta into the accumulated State. It is a
// replace-reducer: since every Node receives the full prior State and
// computes the full next one, no field-by-field reconciliation is
// needed. Kept as its own function (rather than inlined in the engine)
// so tests can exercise reduction independent of node execution.
func Reduce(prev, delta State) State {
	return delta
}

// Reducer names the Reduce function's shape, so the engine's own field
// stays generalizable if a second State shape is ever threaded through it.
type Reducer func(prev, delta State) State
