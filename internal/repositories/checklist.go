package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/desertthunder/checklists/internal/models"
	"github.com/desertthunder/checklists/internal/shared"
)

// ChecklistRepository persists [models.Checklist] records.
//
// Every statement is scoped by the owner's user ID. A checklist owned by someone else is
// reported as [shared.ErrNotFound], the same as one that does not exist.
type ChecklistRepository struct {
	db *sql.DB
}

// NewChecklistRepository creates a new [ChecklistRepository] with the given database connection
func NewChecklistRepository(db *sql.DB) *ChecklistRepository {
	return &ChecklistRepository{db: db}
}

const checklistColumns = "id, sequence, user_id, title, created_at, updated_at"

// Create inserts a new, empty checklist for ownerID.
func (r *ChecklistRepository) Create(ctx context.Context, ownerID, title string) (*models.Checklist, error) {
	ts := now()
	checklist := &models.Checklist{
		ID:        shared.GenerateSortableID(),
		Title:     title,
		UserID:    ownerID,
		CreatedAt: ts,
		UpdatedAt: ts,
		Items:     []models.Item{},
	}

	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		sequence, err := NextSequence(ctx, tx, "checklists")
		if err != nil {
			return fmt.Errorf("failed to generate sequence: %w", err)
		}
		checklist.Sequence = sequence

		query := `
			INSERT INTO checklists (id, sequence, user_id, title, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`

		_, err = tx.ExecContext(ctx, query, checklist.ID, sequence, ownerID, title, ts, ts)
		if shared.IsForeignKeyViolation(err) {
			return fmt.Errorf("%w: user %s", shared.ErrNotFound, ownerID)
		}
		if err != nil {
			return fmt.Errorf("failed to insert checklist: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return checklist, nil
}

// List returns the owner's checklists, newest first, each with its items in insertion order.
func (r *ChecklistRepository) List(ctx context.Context, ownerID string) ([]*models.Checklist, error) {
	var checklists []*models.Checklist

	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		query := "SELECT " + checklistColumns + `
			FROM checklists
			WHERE user_id = ?
			ORDER BY created_at DESC, sequence DESC
		`

		rows, err := tx.QueryContext(ctx, query, ownerID)
		if err != nil {
			return fmt.Errorf("failed to query checklists: %w", err)
		}

		checklists = nil
		byID := make(map[string]*models.Checklist)
		for rows.Next() {
			c, err := scanChecklist(rows)
			if err != nil {
				rows.Close()
				return err
			}
			checklists = append(checklists, c)
			byID[c.ID] = c
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return fmt.Errorf("row iteration error: %w", err)
		}
		rows.Close()

		itemQuery := "SELECT " + itemColumns("i") + `
			FROM checklist_items i
			JOIN checklists c ON c.id = i.checklist_id
			WHERE c.user_id = ?
			ORDER BY i.id ASC
		`

		items, err := queryItems(ctx, tx, itemQuery, ownerID)
		if err != nil {
			return err
		}
		for _, item := range items {
			if c, ok := byID[item.ChecklistID]; ok {
				c.Items = append(c.Items, item)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return checklists, nil
}

// Get returns one checklist with its items.
func (r *ChecklistRepository) Get(ctx context.Context, ownerID, id string) (*models.Checklist, error) {
	var checklist *models.Checklist
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		var err error
		checklist, err = getChecklist(ctx, tx, ownerID, id)
		return err
	})
	return checklist, err
}

// Rename sets a new title on the owner's checklist and returns the updated checklist.
func (r *ChecklistRepository) Rename(ctx context.Context, ownerID, id, title string) (*models.Checklist, error) {
	var checklist *models.Checklist

	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			"UPDATE checklists SET title = ?, updated_at = ? WHERE id = ? AND user_id = ?",
			title, now(), id, ownerID,
		)
		if err != nil {
			return fmt.Errorf("failed to rename checklist: %w", err)
		}

		rows, err := rowsAffected(result)
		if err != nil {
			return err
		}
		if rows == 0 {
			return fmt.Errorf("%w: checklist %s", shared.ErrNotFound, id)
		}

		checklist, err = getChecklist(ctx, tx, ownerID, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	return checklist, nil
}

// Delete removes the owner's checklist. Its items are removed by the ON DELETE CASCADE
// constraint in the same statement.
func (r *ChecklistRepository) Delete(ctx context.Context, ownerID, id string) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, "DELETE FROM checklists WHERE id = ? AND user_id = ?", id, ownerID)
		if err != nil {
			return fmt.Errorf("failed to delete checklist: %w", err)
		}

		rows, err := rowsAffected(result)
		if err != nil {
			return err
		}
		if rows == 0 {
			return fmt.Errorf("%w: checklist %s", shared.ErrNotFound, id)
		}
		return nil
	})
}

func getChecklist(ctx context.Context, tx *sql.Tx, ownerID, id string) (*models.Checklist, error) {
	query := "SELECT " + checklistColumns + " FROM checklists WHERE id = ? AND user_id = ?"

	checklist, err := scanChecklist(tx.QueryRowContext(ctx, query, id, ownerID))
	if err != nil {
		return nil, err
	}

	itemQuery := "SELECT " + itemColumns("") + " FROM checklist_items WHERE checklist_id = ? ORDER BY id ASC"
	items, err := queryItems(ctx, tx, itemQuery, id)
	if err != nil {
		return nil, err
	}
	checklist.Items = items

	return checklist, nil
}

func scanChecklist(row scanner) (*models.Checklist, error) {
	var c models.Checklist

	err := row.Scan(&c.ID, &c.Sequence, &c.UserID, &c.Title, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: checklist", shared.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan checklist: %w", err)
	}

	c.Items = []models.Item{}
	return &c, nil
}
