// Package report produces the final narrative summary the engine hands
// back once a run reaches a terminal state. Grounded on the
// consolidator summarization idiom used to merge multiple agents'
// findings into one report in the pack's multi-LLM-review example.
package report

import (
	"fmt"
	"strings"

	"github.com/taskforge-dev/taskforge/workflow"
)

// Reporter generates a work report from a terminal State's done list.
type Reporter struct{}

// Generate writes a plain-text summary: overall status, milestone
// progress, and one line per completed/skipped/failed task.
func (Reporter) Generate(s workflow.State) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Status: %s\n", s.Status)
	fmt.Fprintf(&b, "Remit: %s\n", s.Remit)
	fmt.Fprintf(&b, "Milestones completed: %d/%d\n\n", milestonesCompleted(s), len(s.Milestones))

	if s.Error != "" {
		fmt.Fprintf(&b, "Error: %s\n\n", s.Error)
	}

	completed, skipped, failed := 0, 0, 0
	for _, e := range s.DoneList {
		switch {
		case e.Failed:
			failed++
			fmt.Fprintf(&b, "[failed] %s — %s\n", e.TaskDescription, e.ResultSummary)
		case e.Skipped:
			skipped++
			fmt.Fprintf(&b, "[skipped] %s\n", e.TaskDescription)
		default:
			completed++
			fmt.Fprintf(&b, "[done] %s — %s\n", e.TaskDescription, e.ResultSummary)
		}
	}
	fmt.Fprintf(&b, "\n%d completed, %d skipped, %d failed (%d tasks total)\n",
		completed, skipped, failed, len(s.DoneList))

	return b.String()
}

func milestonesCompleted(s workflow.State) int {
	if s.Status == workflow.StatusComplete {
		return len(s.Milestones)
	}
	return s.ActiveMilestoneIndex
}
