package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/desertthunder/checklists/internal/models"
	"github.com/desertthunder/checklists/internal/shared"
)

// UserRepository persists [models.User] accounts.
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new [UserRepository] with the given database connection
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user with a generated ID and sequence.
//
// Returns [shared.ErrConflict] when the email is already registered.
// Emails are compared exactly as given.
func (r *UserRepository) Create(ctx context.Context, email, passwordHash string, name *string) (*models.User, error) {
	ts := now()
	user := &models.User{
		ID:           shared.GenerateID(),
		Email:        email,
		Name:         name,
		PasswordHash: passwordHash,
		CreatedAt:    ts,
		UpdatedAt:    ts,
	}

	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		sequence, err := NextSequence(ctx, tx, "users")
		if err != nil {
			return fmt.Errorf("failed to generate sequence: %w", err)
		}
		user.Sequence = sequence

		query := `
			INSERT INTO users (id, sequence, email, password_hash, name, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`

		_, err = tx.ExecContext(ctx, query, user.ID, sequence, email, passwordHash, nullString(name), ts, ts)
		if shared.IsUniqueViolation(err) {
			return fmt.Errorf("%w: email already registered", shared.ErrConflict)
		}
		if err != nil {
			return fmt.Errorf("failed to insert user: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return user, nil
}

// Get retrieves a user by ID
func (r *UserRepository) Get(ctx context.Context, id string) (*models.User, error) {
	query := `
		SELECT id, sequence, email, password_hash, name, created_at, updated_at
		FROM users
		WHERE id = ?
	`

	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

// GetByEmail retrieves a user by exact email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `
		SELECT id, sequence, email, password_hash, name, created_at, updated_at
		FROM users
		WHERE email = ?
	`

	return scanUser(r.db.QueryRowContext(ctx, query, email))
}

// List retrieves all users ordered by sequence
func (r *UserRepository) List(ctx context.Context) ([]*models.User, error) {
	query := `
		SELECT id, sequence, email, password_hash, name, created_at, updated_at
		FROM users
		ORDER BY sequence ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return users, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (*models.User, error) {
	var (
		user models.User
		name sql.NullString
	)

	err := row.Scan(&user.ID, &user.Sequence, &user.Email, &user.PasswordHash, &name, &user.CreatedAt, &user.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: user", shared.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}

	if name.Valid {
		user.Name = &name.String
	}
	return &user, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
