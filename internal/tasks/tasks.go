package tasks

import (
	"context"

	"github.com/desertthunder/checklists/internal/models"
)

// UserLister lists accounts.
type UserLister interface {
	List(ctx context.Context) ([]*models.User, error)
}

// ChecklistLister lists one owner's checklists with their items.
type ChecklistLister interface {
	List(ctx context.Context, ownerID string) ([]*models.Checklist, error)
}

// Exporter exports stored checklists to files.
type Exporter struct {
	users      UserLister
	checklists ChecklistLister
}

// NewExporter creates an [Exporter] reading from the given stores.
func NewExporter(users UserLister, checklists ChecklistLister) *Exporter {
	return &Exporter{users: users, checklists: checklists}
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}
