package ioutils

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrLocked is returned when another process holds the directory lock.
var ErrLocked = errors.New("directory is locked by another process")

// DirLock is an exclusive, advisory lock on a directory.
//
// The lock file lives next to the directory (dir + ".lock"), not inside
// it, so the directory only ever holds installed artifacts.
type DirLock struct {
	fl *flock.Flock
}

// LockDir creates dir if needed and tries to lock it without blocking.
func LockDir(dir string) (*DirLock, error) {
	if err := EnsureDir(dir); err != nil {
		return nil, err
	}

	fl := flock.New(filepath.Clean(dir) + ".lock")
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", dir, err)
	}
	if !ok {
		return nil, fmt.Errorf("lock %s: %w", dir, ErrLocked)
	}
	return &DirLock{fl: fl}, nil
}

// Path returns the lock file path.
func (l *DirLock) Path() string {
	return l.fl.Path()
}

// Unlock releases the lock.
func (l *DirLock) Unlock() error {
	return l.fl.Unlock()
}
