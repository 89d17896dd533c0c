package shared

import (
	"context"
	"fmt"
	"time"

	"github.com/gofrs/flock"
)

// ProcessLock is an exclusive advisory lock on a file next to the database,
// held for the lifetime of a server process.
type ProcessLock struct {
	flock *flock.Flock
}

// LockPath returns the lock file path used for the database at dbPath.
func LockPath(dbPath string) string {
	return dbPath + ".lock"
}

// AcquireLock takes the lock at path, retrying every retryInterval until ctx is done.
//
// Returns [ErrDatabaseLocked] when the lock is still held by another process once ctx expires.
func AcquireLock(ctx context.Context, path string, retryInterval time.Duration) (*ProcessLock, error) {
	fl := flock.New(path)

	locked, err := fl.TryLockContext(ctx, retryInterval)
	if err != nil && ctx.Err() == nil {
		return nil, fmt.Errorf("failed to lock %s: %w", path, err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: %s", ErrDatabaseLocked, path)
	}

	return &ProcessLock{flock: fl}, nil
}

// Path returns the lock file path.
func (l *ProcessLock) Path() string {
	return l.flock.Path()
}

// Release unlocks the file. The lock file itself is left in place.
func (l *ProcessLock) Release() error {
	return l.flock.Unlock()
}
