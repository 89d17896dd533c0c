package tasks

import (
	"fmt"

	"github.com/desertthunder/checklists/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data
}

// Operation phase enumeration
type Phase int

const (
	FetchUsers Phase = iota
	FetchChecklists
	ExportChecklist
	SweepSessions
)

func (p Phase) String() string {
	switch p {
	case FetchUsers:
		return "fetch_users"
	case FetchChecklists:
		return "fetch_checklists"
	case ExportChecklist:
		return "export_checklist"
	case SweepSessions:
		return "sweep_sessions"
	default:
		return ""
	}
}

func fetchUsersUpdate(total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchUsers,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Found %d users", total),
	}
}

func fetchChecklistsUpdate(step, total int, user *models.User) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchChecklists,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Fetching checklists for %s...", step, total, user.Email),
	}
}

func exportCompletedUpdate(step, total int, res ChecklistExportResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportChecklist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%d items)", step, total, res.Title, res.Items),
		Data:    res,
	}
}

func exportFailedUpdate(step, total int, res ChecklistExportResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportChecklist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, res.Title, res.Error),
		Data:    res,
	}
}

func sweepUpdate(removed int64) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SweepSessions,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Removed %d expired sessions", removed),
		Data:    removed,
	}
}
