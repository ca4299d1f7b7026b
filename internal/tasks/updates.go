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
	Interpret Phase = iota
	Extract
	Resolve
	Complete
	Export
)

func (p Phase) String() string {
	switch p {
	case Interpret:
		return "interpret"
	case Extract:
		return "extract"
	case Resolve:
		return "resolve"
	case Complete:
		return "complete"
	case Export:
		return "export"
	default:
		return ""
	}
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
		// Channel full, skip this update
	}
}

func interpretUpdate(question string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Interpret,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Asking the model: %s", question),
	}
}

func extractUpdate(length int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Extract,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Extracting places from text (%d characters)...", length),
	}
}

func resolvingUpdate(step, total int, query string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Resolve,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Searching: %s", step, total, query),
	}
}

func resolvedUpdate(step, total int, r resolution) ProgressUpdate {
	u := ProgressUpdate{Phase: Resolve, Step: step, Total: total}
	switch {
	case r.marker != nil:
		u.Message = fmt.Sprintf("[%d/%d] ✓ %s", step, total, r.marker.Name)
		u.Data = *r.marker
	case r.unresolved:
		u.Message = fmt.Sprintf("[%d/%d] ? %s", step, total, r.query)
	default:
		u.Message = fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, r.query, r.err)
	}
	return u
}

func completeUpdate(result *RunResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Complete,
		Step:    result.Total,
		Total:   result.Total,
		Message: fmt.Sprintf("Added %d of %d places", len(result.Added), result.Total),
		Data:    result,
	}
}

func exportingListUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Export,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Exporting: %s...", step, total, name),
	}
}

func exportCompletedUpdate(step, total int, name string, filesCount int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Export,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%d files)", step, total, name, filesCount),
	}
}

func exportFailedUpdate(step, total int, name string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Export,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, name, err),
	}
}
