package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/checklists/internal/models"
	"github.com/desertthunder/checklists/internal/shared"
)

// SessionRepository persists [models.Session] records keyed by token hash.
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a new [SessionRepository] with the given database connection
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create stores a session for userID that expires after ttl.
func (r *SessionRepository) Create(ctx context.Context, userID, tokenHash, userAgent, ip string, ttl time.Duration) (*models.Session, error) {
	ts := now()
	session := &models.Session{
		ID:         shared.GenerateID(),
		UserID:     userID,
		TokenHash:  tokenHash,
		UserAgent:  userAgent,
		IPAddress:  ip,
		ExpiresAt:  ts.Add(ttl),
		CreatedAt:  ts,
		LastSeenAt: ts,
	}

	query := `
		INSERT INTO sessions (id, user_id, token_hash, user_agent, ip_address, expires_at, created_at, last_seen_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, query,
			session.ID,
			session.UserID,
			session.TokenHash,
			session.UserAgent,
			session.IPAddress,
			session.ExpiresAt,
			session.CreatedAt,
			session.LastSeenAt,
		)
		if shared.IsForeignKeyViolation(err) {
			return fmt.Errorf("%w: user %s", shared.ErrNotFound, userID)
		}
		if err != nil {
			return fmt.Errorf("failed to insert session: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return session, nil
}

// GetByTokenHash retrieves the session whose token hashes to tokenHash. Expiry is not checked here.
func (r *SessionRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*models.Session, error) {
	query := `
		SELECT id, user_id, token_hash, user_agent, ip_address, expires_at, created_at, last_seen_at
		FROM sessions
		WHERE token_hash = ?
	`

	var s models.Session
	err := r.db.QueryRowContext(ctx, query, tokenHash).Scan(
		&s.ID, &s.UserID, &s.TokenHash, &s.UserAgent, &s.IPAddress, &s.ExpiresAt, &s.CreatedAt, &s.LastSeenAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: session", shared.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query session: %w", err)
	}

	return &s, nil
}

// Touch records activity on a session.
func (r *SessionRepository) Touch(ctx context.Context, id string) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, "UPDATE sessions SET last_seen_at = ? WHERE id = ?", now(), id)
		if err != nil {
			return fmt.Errorf("failed to touch session: %w", err)
		}
		return nil
	})
}

// Delete removes a session by ID. Deleting a missing session is not an error.
func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", id); err != nil {
			return fmt.Errorf("failed to delete session: %w", err)
		}
		return nil
	})
}

// DeleteExpired removes every session expired at t and returns how many were removed.
func (r *SessionRepository) DeleteExpired(ctx context.Context, t time.Time) (int64, error) {
	var removed int64
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, "DELETE FROM sessions WHERE expires_at <= ?", t.UTC())
		if err != nil {
			return fmt.Errorf("failed to delete expired sessions: %w", err)
		}
		removed, err = rowsAffected(result)
		return err
	})
	return removed, err
}
