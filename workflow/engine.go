package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/taskforge-dev/taskforge/emit"
	"github.com/taskforge-dev/taskforge/errs"
)

// Store persists a State snapshot after each node completes. It is
// satisfied by store.MemStore, store.SQLiteStore, and store.MySQLStore
// without workflow importing store — the engine only needs the two
// operations it actually calls.
type Store interface {
	SaveSnapshot(ctx context.Context, s State) error
	LoadLatest(ctx context.Context, runID string) (State, error)
}

// CheckpointHook is an optional external-persistence hook: the engine
// itself keeps no durable checkpoint beyond Store, but calls this after
// every mark_complete/mark_failed so an operator can wire their own
// durability.
type CheckpointHook func(s State)

// Options configures an Engine. Zero value is usable: MaxSteps defaults
// to a generous safety cap so a routing bug can't spin forever, and
// every other field is optional.
type Options struct {
	// MaxSteps is a hard safety cap on total node executions, independent
	// of State.MaxIterations (which counts planner rounds specifically).
	// There is no internal per-node timeout, but an unconditional step
	// ceiling guards against a routing bug creating an infinite cycle.
	MaxSteps int

	Store          Store
	Emitter        emit.Emitter
	Metrics        *Metrics
	CheckpointHook CheckpointHook
}

// Engine drives the single-threaded node loop: select node, invoke,
// reduce, emit, route, repeat until terminal. It never runs two nodes
// concurrently — this orchestrator always drives one task at a time, so
// a concurrent multi-node scheduler has no home here (see DESIGN.md).
type Engine struct {
	nodes     map[string]Node
	startNode string
	reducer   Reducer
	opts      Options
}

// New builds an Engine with the given start node. Nodes are registered
// via Add before Run is called.
func New(startNode string, opts Options) *Engine {
	if opts.MaxSteps <= 0 {
		opts.MaxSteps = 10000
	}
	if opts.Emitter == nil {
		opts.Emitter = emit.NewNullEmitter()
	}
	return &Engine{
		nodes:     make(map[string]Node),
		startNode: startNode,
		reducer:   Reduce,
		opts:      opts,
	}
}

// Add registers a node handler under name.
func (e *Engine) Add(name string, n Node) {
	e.nodes[name] = n
}

// Run executes the workflow loop to completion from the start node,
// returning the final State. It returns an error only for conditions
// the router cannot route past: an unregistered node name, a node-level
// error the engine doesn't recognize as routable, context cancellation,
// the MaxSteps or State.MaxIterations cap being reached, or a failed
// snapshot save.
func (e *Engine) Run(ctx context.Context, initial State) (State, error) {
	state := initial
	state.CurrentNode = e.startNode
	if state.Status == "" {
		state.Status = StatusRunning
	}
	return e.run(ctx, state)
}

// run drives the node loop starting from whatever state.CurrentNode
// already names, without resetting it to the start node. handleNodeError
// resumes here (at mark_failed, say) rather than through Run, which
// would otherwise restart the whole workflow from scope_agent.
func (e *Engine) run(ctx context.Context, state State) (State, error) {
	for step := 0; ; step++ {
		if step >= e.opts.MaxSteps {
			return e.fail(ctx, state, fmt.Errorf("exceeded max steps (%d)", e.opts.MaxSteps))
		}
		if err := ctx.Err(); err != nil {
			return e.fail(ctx, state, &errs.CancellationSignal{Cause: err})
		}

		nodeName := state.CurrentNode
		nodeImpl, ok := e.nodes[nodeName]
		if !ok {
			return e.fail(ctx, state, fmt.Errorf("no node registered for %q", nodeName))
		}
		if nodeName == NodeTaskPlanner && state.MaxIterations > 0 {
			if state.Iterations >= state.MaxIterations {
				return e.fail(ctx, state, fmt.Errorf("exceeded max iterations (%d)", state.MaxIterations))
			}
			state.Iterations++
		}

		e.emitNodeStart(state, nodeName, step)
		start := time.Now()
		result := nodeImpl.Run(ctx, state)
		elapsed := time.Since(start)
		if e.opts.Metrics != nil {
			e.opts.Metrics.StepLatency.WithLabelValues(nodeName).Observe(float64(elapsed.Milliseconds()))
		}

		if result.Err != nil {
			return e.handleNodeError(ctx, state, nodeName, result.Err)
		}

		prevMilestoneIndex := state.ActiveMilestoneIndex
		state = e.reducer(state, result.Delta)
		state.UpdatedAt = time.Now()
		e.recordStepMetrics(nodeName, prevMilestoneIndex, state)

		if e.opts.Store != nil {
			if err := e.opts.Store.SaveSnapshot(ctx, state); err != nil {
				e.emitNodeEnd(state, nodeName, step, err)
				return state, fmt.Errorf("save snapshot: %w", err)
			}
		}
		e.emitNodeEnd(state, nodeName, step, nil)

		if nodeName == NodeMarkComplete || nodeName == NodeMarkFailed {
			if e.opts.CheckpointHook != nil {
				e.opts.CheckpointHook(state)
			}
		}

		next := result.Route
		if next.Terminal {
			return e.finish(ctx, state)
		}
		if next.To != "" {
			state.CurrentNode = next.To
			continue
		}
		routed := Route(nodeName, state)
		if routed == NodeReport {
			return e.finish(ctx, state)
		}
		state.CurrentNode = routed
	}
}

// recordStepMetrics updates the run-level gauges and counters once a
// step's Delta has been folded into state. Urgency is set rather than
// incremented since the ledger already tracks its true value; the
// other four counters key off which bookkeeping/assessor node just ran.
func (e *Engine) recordStepMetrics(nodeName string, prevMilestoneIndex int, state State) {
	if e.opts.Metrics == nil {
		return
	}
	e.opts.Metrics.UrgencyGauge.WithLabelValues(state.RunID).Set(state.Urgency)
	switch nodeName {
	case NodeIncrementAttempt:
		e.opts.Metrics.RetriesTotal.WithLabelValues(state.RunID).Inc()
	case NodeMarkComplete:
		e.opts.Metrics.TasksCompleted.WithLabelValues(state.RunID).Inc()
	case NodeMarkFailed:
		e.opts.Metrics.AbortsTotal.WithLabelValues(state.RunID).Inc()
	case NodeAssessor:
		if state.ActiveMilestoneIndex > prevMilestoneIndex ||
			(state.LastAssessorVerdict == VerdictMilestoneComplete && state.Status == StatusComplete) {
			e.opts.Metrics.MilestonesDone.WithLabelValues(state.RunID).Inc()
		}
	}
}

func (e *Engine) finish(ctx context.Context, state State) (State, error) {
	if state.Status == StatusRunning {
		state.Status = StatusComplete
	}
	e.opts.Emitter.Emit(emit.Event{
		RunID:  state.RunID,
		Stream: emit.StreamTask,
		NodeID: NodeReport,
		Msg:    "run finished",
		Meta:   map[string]interface{}{"status": string(state.Status)},
	})
	return state, nil
}

func (e *Engine) fail(ctx context.Context, state State, cause error) (State, error) {
	state.Status = StatusFailed
	state.Error = cause.Error()
	e.opts.Emitter.Emit(emit.Event{
		RunID:  state.RunID,
		Stream: emit.StreamTask,
		NodeID: state.CurrentNode,
		Msg:    "run failed",
		Meta:   map[string]interface{}{"error": cause.Error()},
	})
	return state, cause
}

// handleNodeError applies the error-handling policy: ScopeError and
// CancellationSignal are terminal; PlannerError is treated as an abort
// that routes through mark_failed to the assessor; everything else
// surfaces unchanged.
func (e *Engine) handleNodeError(ctx context.Context, state State, nodeName string, err error) (State, error) {
	var scopeErr *errs.ScopeError
	var plannerErr *errs.PlannerError
	var cancel *errs.CancellationSignal

	switch {
	case errors.As(err, &scopeErr):
		return e.fail(ctx, state, err)
	case errors.As(err, &cancel):
		return e.fail(ctx, state, err)
	case errors.As(err, &plannerErr):
		state.TaskPlannerAction = ActionAbort
		state.EscalationContext = plannerErr.Error()
		state = Ledger{}.RecordAbort(state)
		state.CurrentNode = NodeMarkFailed
		return e.run(ctx, state)
	default:
		return e.fail(ctx, state, err)
	}
}

func (e *Engine) emitNodeStart(state State, nodeName string, step int) {
	e.opts.Emitter.Emit(emit.Event{
		RunID:  state.RunID,
		Stream: emit.StreamNode,
		Step:   step,
		NodeID: nodeName,
		Msg:    "node start",
	})
}

func (e *Engine) emitNodeEnd(state State, nodeName string, step int, err error) {
	meta := map[string]interface{}{}
	if err != nil {
		meta["error"] = err.Error()
	}
	e.opts.Emitter.Emit(emit.Event{
		RunID:  state.RunID,
		Stream: emit.StreamNode,
		Step:   step,
		NodeID: nodeName,
		Msg:    "node end",
		Meta:   meta,
	})
}
