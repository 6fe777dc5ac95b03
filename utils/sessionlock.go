package utils

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// SessionLock guards the local settings store so that a single CLI session owns it
type SessionLock struct {
	lockFile *flock.Flock
	lockPath string
}

// NewSessionLock creates a lock file next to the given store path
func NewSessionLock(storePath string) (*SessionLock, error) {
	dir := filepath.Dir(storePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}

	lockPath := storePath + ".lock"
	return &SessionLock{
		lockFile: flock.New(lockPath),
		lockPath: lockPath,
	}, nil
}

// TryLock attempts to acquire the session lock
// Returns nil if successful, error if lock is already held or other error occurs
func (l *SessionLock) TryLock() error {
	locked, err := l.lockFile.TryLock()
	if err != nil {
		return fmt.Errorf("failed to try lock: %w", err)
	}

	if !locked {
		return fmt.Errorf("another dgexport session is already using %s", l.lockPath)
	}

	return nil
}

// Unlock releases the session lock and removes the lock file
func (l *SessionLock) Unlock() error {
	if l.lockFile == nil {
		return nil
	}

	if err := l.lockFile.Unlock(); err != nil {
		return fmt.Errorf("failed to unlock: %w", err)
	}

	if err := os.Remove(l.lockPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove lock file: %w", err)
	}

	return nil
}

// GetLockPath returns the path to the lock file
func (l *SessionLock) GetLockPath() string {
	return l.lockPath
}
