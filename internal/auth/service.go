package auth

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/desertthunder/checklists/internal/models"
	"github.com/desertthunder/checklists/internal/shared"
	"github.com/samber/oops"
)

// DefaultSessionTTL is how long a session stays valid when none is configured.
const DefaultSessionTTL = 30 * 24 * time.Hour

// UserStore is the account persistence the service depends on.
type UserStore interface {
	Create(ctx context.Context, email, passwordHash string, name *string) (*models.User, error)
	Get(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// SessionStore is the session persistence the service depends on.
type SessionStore interface {
	Create(ctx context.Context, userID, tokenHash, userAgent, ip string, ttl time.Duration) (*models.Session, error)
	GetByTokenHash(ctx context.Context, tokenHash string) (*models.Session, error)
	Touch(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context, t time.Time) (int64, error)
}

// Client describes where a login came from.
type Client struct {
	UserAgent string
	IPAddress string
}

// Service provides signup, login and session resolution.
type Service struct {
	users    UserStore
	sessions SessionStore
	hasher   PasswordHasher
	ttl      time.Duration
	now      func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

// NewService creates a new [Service]. A non-positive ttl uses [DefaultSessionTTL].
func NewService(users UserStore, sessions SessionStore, hasher PasswordHasher, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Service{
		users:    users,
		sessions: sessions,
		hasher:   hasher,
		ttl:      ttl,
		now:      time.Now,
	}
}

// Signup registers a new account. Returns [shared.ErrConflict] when the email is taken.
func (s *Service) Signup(ctx context.Context, email, password string, name *string) (*models.User, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, oops.Code("AUTH_SIGNUP_FAILED").With("operation", "hash password").Wrap(err)
	}

	user, err := s.users.Create(ctx, email, hash, name)
	if errors.Is(err, shared.ErrConflict) {
		return nil, oops.Code("AUTH_EMAIL_TAKEN").Wrap(err)
	}
	if err != nil {
		return nil, oops.Code("AUTH_SIGNUP_FAILED").With("operation", "create user").Wrap(err)
	}

	return user, nil
}

// Login verifies credentials and opens a session, returning the plaintext token.
//
// An unknown email and a wrong password produce the same [shared.ErrInvalidCredentials] and
// both run a full bcrypt comparison.
func (s *Service) Login(ctx context.Context, email, password string, client Client) (*models.User, *models.Session, string, error) {
	user, lookupErr := s.users.GetByEmail(ctx, email)

	var target string
	switch {
	case lookupErr == nil:
		target = user.PasswordHash
	case errors.Is(lookupErr, shared.ErrNotFound):
		target = s.dummy()
	default:
		return nil, nil, "", oops.Code("AUTH_LOGIN_FAILED").With("operation", "get user by email").Wrap(lookupErr)
	}

	valid, verifyErr := s.hasher.Verify(password, target)
	if lookupErr != nil || verifyErr != nil || !valid {
		return nil, nil, "", oops.Code("AUTH_INVALID_CREDENTIALS").Wrap(shared.ErrInvalidCredentials)
	}

	if _, err := s.sessions.DeleteExpired(ctx, s.now()); err != nil {
		return nil, nil, "", oops.Code("AUTH_LOGIN_FAILED").With("operation", "purge expired sessions").Wrap(err)
	}

	token, tokenHash, err := GenerateSessionToken()
	if err != nil {
		return nil, nil, "", oops.Code("AUTH_LOGIN_FAILED").Wrap(err)
	}

	session, err := s.sessions.Create(ctx, user.ID, tokenHash, client.UserAgent, client.IPAddress, s.ttl)
	if err != nil {
		return nil, nil, "", oops.Code("AUTH_SESSION_CREATE_FAILED").With("operation", "persist session").Wrap(err)
	}

	return user, session, token, nil
}

// Authenticate resolves a session token to its user.
//
// Returns [shared.ErrNotAuthenticated] for an empty or unknown token and [shared.ErrSessionExpired]
// for one past its expiry. Expired sessions are removed.
func (s *Service) Authenticate(ctx context.Context, token string) (*models.User, *models.Session, error) {
	if token == "" {
		return nil, nil, oops.Code("SESSION_TOKEN_EMPTY").Wrap(shared.ErrNotAuthenticated)
	}

	session, err := s.sessions.GetByTokenHash(ctx, HashSessionToken(token))
	if errors.Is(err, shared.ErrNotFound) {
		return nil, nil, oops.Code("SESSION_INVALID").Wrap(shared.ErrNotAuthenticated)
	}
	if err != nil {
		return nil, nil, oops.Code("SESSION_VALIDATE_FAILED").With("operation", "get session by token hash").Wrap(err)
	}

	if session.IsExpiredAt(s.now()) {
		_ = s.sessions.Delete(ctx, session.ID) //nolint:errcheck // the session is rejected either way
		return nil, nil, oops.Code("SESSION_EXPIRED").Wrap(shared.ErrSessionExpired)
	}

	user, err := s.users.Get(ctx, session.UserID)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, nil, oops.Code("SESSION_INVALID").Wrap(shared.ErrNotAuthenticated)
	}
	if err != nil {
		return nil, nil, oops.Code("SESSION_VALIDATE_FAILED").With("operation", "get session user").Wrap(err)
	}

	_ = s.sessions.Touch(ctx, session.ID) //nolint:errcheck // best effort

	return user, session, nil
}

// Logout ends the session identified by token. Unknown tokens are ignored.
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	session, err := s.sessions.GetByTokenHash(ctx, HashSessionToken(token))
	if errors.Is(err, shared.ErrNotFound) {
		return nil
	}
	if err != nil {
		return oops.Code("AUTH_LOGOUT_FAILED").With("operation", "get session by token hash").Wrap(err)
	}

	if err := s.sessions.Delete(ctx, session.ID); err != nil {
		return oops.Code("AUTH_LOGOUT_FAILED").With("session_id", session.ID).Wrap(err)
	}
	return nil
}

// TTL returns the lifetime given to new sessions.
func (s *Service) TTL() time.Duration {
	return s.ttl
}

// dummy returns a real hash at the configured cost, compared against when the email is unknown.
func (s *Service) dummy() string {
	s.dummyOnce.Do(func() {
		hash, err := s.hasher.Hash("checklists-dummy-password")
		if err == nil {
			s.dummyHash = hash
		}
	})
	return s.dummyHash
}
