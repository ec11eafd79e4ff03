package database

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/user/remind-me/personal/internal/config"
)

const writerLockFile = "writer.lock"

// ErrStorageBusy means another process holds the writer lock.
var ErrStorageBusy = errors.New("reminder storage is in use by another writer")

// WriterLock marks the single process allowed to write reminders. Every
// mutation rewrites the whole collection, so two writers lose each other's
// changes. The lock lives in STORAGE_DIR for every storage driver.
type WriterLock struct {
	lock *flock.Flock
}

func AcquireWriterLock(cfg *config.Config) (*WriterLock, error) {
	if err := os.MkdirAll(cfg.StorageDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	lock := flock.New(filepath.Join(cfg.StorageDir, writerLockFile))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to lock storage: %w", err)
	}
	if !locked {
		return nil, ErrStorageBusy
	}
	return &WriterLock{lock: lock}, nil
}

func (l *WriterLock) Path() string {
	return l.lock.Path()
}

func (l *WriterLock) Release() error {
	return l.lock.Unlock()
}
