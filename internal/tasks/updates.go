package tasks

import (
	"fmt"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	Queued Phase = iota
	Running
	Completed
	Failed
)

func (p Phase) String() string {
	switch p {
	case Queued:
		return "queued"
	case Running:
		return "running"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	default:
		return ""
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func queuedUpdate(total int, req Request) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Queued,
		Step:    0,
		Total:   total,
		Message: fmt.Sprintf("Running %s across %d accounts...", req.Action, total),
	}
}

func runningUpdate(step, total int, account string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Running,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s...", step, total, account),
	}
}

func resultUpdate(step, total int, res Result) ProgressUpdate {
	if res.OK() {
		return ProgressUpdate{
			Phase:   Completed,
			Step:    step,
			Total:   total,
			Message: fmt.Sprintf("[%d/%d] ✓ %s: %s", step, total, res.Request.Account, res.Message()),
			Data:    res,
		}
	}
	return ProgressUpdate{
		Phase:   Failed,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %s", step, total, res.Request.Account, res.Message()),
		Data:    res,
	}
}
