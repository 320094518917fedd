package workflow

import "math"

// Urgency weights, accumulated by other nodes and reset when the
// assessor runs: named constants instead of magic numbers scattered
// through node bodies.
const (
	UrgencyQAFail           = 0.3
	UrgencyAbort            = 1.0
	UrgencyCarryForwardChurn = 0.2
	UrgencyMinorDrift       = 0.5

	// UrgencyThreshold pulls the assessor forward regardless of the
	// periodic review interval once crossed.
	UrgencyThreshold = 1.0

	// AbortsPerMilestoneSoftCap names a per-milestone abort count. No
	// node or router function compares AbortsThisMilestone against it;
	// escalation toward scope follows only from the assessor's
	// major-divergence verdict.
	AbortsPerMilestoneSoftCap = 2
)

// Ledger bundles the pure counter-update helpers the router and
// bookkeeping nodes share, so "reset on assessor" and "bump on failure"
// logic lives in one place instead of being re-derived per node.
type Ledger struct{}

// RecordQAFail bumps urgency and leaves the attempt/retry counters for
// the caller (increment_attempt) to update; it only owns the urgency
// accumulation side of a QA failure. The sum is rounded to nine decimal
// places so three failures give exactly 0.9 rather than 0.8999999999999999.
func (Ledger) RecordQAFail(s State) State {
	s.Urgency = math.Round((s.Urgency+UrgencyQAFail)*1e9) / 1e9
	return s
}

// RecordAbort bumps urgency immediately and the per-milestone abort
// counter. AfterMarkFailed routes to the assessor whatever the urgency;
// the counter is reset on milestone advance and re-scope, and the
// assessor does not read it.
func (Ledger) RecordAbort(s State) State {
	s.Urgency += UrgencyAbort
	s.AbortsThisMilestone++
	return s
}

// RecordCarryForwardChurn bumps urgency when more than half the
// carry-forward items changed between planner rounds.
func (Ledger) RecordCarryForwardChurn(s State, prev, next []string) State {
	if churnRatio(prev, next) > 0.5 {
		s.Urgency += UrgencyCarryForwardChurn
	}
	return s
}

// RecordMinorDrift bumps urgency after a minor-drift verdict, so a
// second consecutive drift within the review window pulls the next
// assessor invocation forward even faster.
func (Ledger) RecordMinorDrift(s State) State {
	s.Urgency += UrgencyMinorDrift
	return s
}

// ResetOnAssessor clears tasks_since_last_review and urgency once the
// assessor has run.
func (Ledger) ResetOnAssessor(s State) State {
	s.TasksSinceLastReview = 0
	s.Urgency = 0
	return s
}

// ResetOnMilestoneAdvance clears the sliding window and counters when a
// milestone completes and the next one begins.
func (Ledger) ResetOnMilestoneAdvance(s State) State {
	s.CarryForward = nil
	s.TasksSinceLastReview = 0
	s.AbortsThisMilestone = 0
	s.Urgency = 0
	return s
}

func churnRatio(prev, next []string) float64 {
	if len(prev) == 0 {
		if len(next) == 0 {
			return 0
		}
		return 1
	}
	kept := 0
	seen := make(map[string]bool, len(next))
	for _, item := range next {
		seen[item] = true
	}
	for _, item := range prev {
		if seen[item] {
			kept++
		}
	}
	changed := len(prev) - kept
	return float64(changed) / float64(len(prev))
}
