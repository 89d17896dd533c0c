// package repositories provides persistence layer implementations for all model types.
//
// Writes run inside a transaction that is retried while SQLite reports the database busy.
package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/checklists/internal/shared"
	"github.com/sethvargo/go-retry"
)

const (
	busyRetryBase = 10 * time.Millisecond
	busyRetryMax  = 5
)

// NextSequence atomically increments and returns the next sequence number for the given table.
//
// Sequence numbers provide human-readable ordering for entities (e.g., user #42, checklist #15)
// and break ties between checklists created within the same millisecond.
func NextSequence(ctx context.Context, tx *sql.Tx, table string) (int, error) {
	sequenceTable := table + "_sequence"

	var sequence int
	err := tx.QueryRowContext(ctx,
		fmt.Sprintf("UPDATE %s SET value = value + 1 WHERE id = 1 RETURNING value", sequenceTable),
	).Scan(&sequence)
	if err != nil {
		return 0, fmt.Errorf("failed to increment sequence: %w", err)
	}

	return sequence, nil
}

// withTx runs fn inside a transaction and commits it. Busy or locked errors restart the whole
// transaction with exponential backoff; any other error rolls back and is returned as is.
func withTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	backoff := retry.WithMaxRetries(busyRetryMax, retry.NewExponential(busyRetryBase))

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := runTx(ctx, db, fn)
		if err != nil && shared.IsBusy(err) {
			return retry.RetryableError(err)
		}
		return err
	})
}

func runTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// now returns the current time in UTC truncated to the millisecond precision used in responses.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

func rowsAffected(result sql.Result) (int64, error) {
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return rows, nil
}
