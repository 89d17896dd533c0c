package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/desertthunder/checklists/internal/models"
	"github.com/desertthunder/checklists/internal/shared"
)

// ItemRepository persists [models.Item] records. Ownership is resolved through the parent checklist.
type ItemRepository struct {
	db *sql.DB
}

// NewItemRepository creates a new [ItemRepository] with the given database connection
func NewItemRepository(db *sql.DB) *ItemRepository {
	return &ItemRepository{db: db}
}

const ownedItemFilter = "checklist_id IN (SELECT id FROM checklists WHERE user_id = ?)"

func itemColumns(alias string) string {
	cols := []string{"id", "checklist_id", "content", "completed", "created_at", "updated_at"}
	if alias == "" {
		return strings.Join(cols, ", ")
	}
	for i, col := range cols {
		cols[i] = alias + "." + col
	}
	return strings.Join(cols, ", ")
}

// Create appends an item to the owner's checklist.
//
// The insert selects from the owned checklist row, so a missing or foreign checklist inserts
// nothing and is reported as [shared.ErrNotFound].
func (r *ItemRepository) Create(ctx context.Context, ownerID, checklistID, content string) (*models.Item, error) {
	ts := now()
	item := &models.Item{
		ID:          shared.GenerateSortableID(),
		Content:     content,
		ChecklistID: checklistID,
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}

	query := `
		INSERT INTO checklist_items (id, checklist_id, content, completed, created_at, updated_at)
		SELECT ?, id, ?, 0, ?, ?
		FROM checklists
		WHERE id = ? AND user_id = ?
	`

	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, query, item.ID, content, ts, ts, checklistID, ownerID)
		if err != nil {
			return fmt.Errorf("failed to insert item: %w", err)
		}

		rows, err := rowsAffected(result)
		if err != nil {
			return err
		}
		if rows == 0 {
			return fmt.Errorf("%w: checklist %s", shared.ErrNotFound, checklistID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return item, nil
}

// Update applies patch to the owner's item and returns the stored result.
// Fields left nil in patch keep their current values. An empty patch only reads the item.
func (r *ItemRepository) Update(ctx context.Context, ownerID, id string, patch models.ItemPatch) (*models.Item, error) {
	var item *models.Item

	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		if !patch.IsEmpty() {
			query := `
				UPDATE checklist_items
				SET content = COALESCE(?, content), completed = COALESCE(?, completed), updated_at = ?
				WHERE id = ? AND ` + ownedItemFilter

			result, err := tx.ExecContext(ctx, query, nullString(patch.Content), nullBool(patch.Completed), now(), id, ownerID)
			if err != nil {
				return fmt.Errorf("failed to update item: %w", err)
			}

			rows, err := rowsAffected(result)
			if err != nil {
				return err
			}
			if rows == 0 {
				return fmt.Errorf("%w: item %s", shared.ErrNotFound, id)
			}
		}

		query := "SELECT " + itemColumns("") + " FROM checklist_items WHERE id = ? AND " + ownedItemFilter

		var err error
		item, err = scanItem(tx.QueryRowContext(ctx, query, id, ownerID))
		return err
	})
	if err != nil {
		return nil, err
	}

	return item, nil
}

// Delete removes the owner's item.
func (r *ItemRepository) Delete(ctx context.Context, ownerID, id string) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, "DELETE FROM checklist_items WHERE id = ? AND "+ownedItemFilter, id, ownerID)
		if err != nil {
			return fmt.Errorf("failed to delete item: %w", err)
		}

		rows, err := rowsAffected(result)
		if err != nil {
			return err
		}
		if rows == 0 {
			return fmt.Errorf("%w: item %s", shared.ErrNotFound, id)
		}
		return nil
	})
}

func queryItems(ctx context.Context, tx *sql.Tx, query string, args ...any) ([]models.Item, error) {
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer rows.Close()

	items := []models.Item{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return items, nil
}

func scanItem(row scanner) (*models.Item, error) {
	var item models.Item

	err := row.Scan(&item.ID, &item.ChecklistID, &item.Content, &item.Completed, &item.CreatedAt, &item.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: item", shared.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan item: %w", err)
	}

	return &item, nil
}

func nullBool(b *bool) sql.NullBool {
	if b == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *b, Valid: true}
}
