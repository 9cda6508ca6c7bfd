package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

const (
	lockSuffix     = ".textnorris.lock"
	lockRetryDelay = 20 * time.Millisecond
)

// SidecarPath returns the hidden lock file guarding path, e.g.
// "dir/.notes.txt.textnorris.lock" for "dir/notes.txt".
// The lock never sits on the file itself: rewrites rename a new file over it.
func SidecarPath(path string) string {
	dir, name := filepath.Split(path)
	return filepath.Join(dir, "."+name+lockSuffix)
}

// PathLock is an exclusive advisory lock held on a lock file
type PathLock struct {
	flock *flock.Flock
	path  string
}

// NewPathLock creates a lock on the lock file at path. The file is created
// on first use.
func NewPathLock(path string) *PathLock {
	return &PathLock{
		flock: flock.New(path),
		path:  path,
	}
}

// LockContext waits until the lock is held or ctx is done. A lock won on a
// file that a previous holder already removed is dropped and taken again on
// the current file.
func (pl *PathLock) LockContext(ctx context.Context) error {
	for {
		acquired, err := pl.TryLock()
		if err != nil {
			return err
		}
		if acquired {
			if pl.current() {
				return nil
			}
			if err := pl.Unlock(); err != nil {
				return err
			}
			continue
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for lock on %s: %w", pl.path, ctx.Err())
		case <-time.After(lockRetryDelay):
		}
	}
}

// TryLock acquires the lock if it is free
func (pl *PathLock) TryLock() (bool, error) {
	acquired, err := pl.flock.TryLock()
	if err != nil {
		return false, fmt.Errorf("failed to try lock on %s: %w", pl.path, err)
	}
	return acquired, nil
}

// Unlock releases the lock and leaves the lock file in place
func (pl *PathLock) Unlock() error {
	if err := pl.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to release lock on %s: %w", pl.path, err)
	}
	return nil
}

// Release removes the lock file, then unlocks. Waiters still blocked on the
// removed file notice it is gone once they win it.
func (pl *PathLock) Release() error {
	removeErr := os.Remove(pl.path)
	if err := pl.Unlock(); err != nil {
		return err
	}
	if removeErr != nil && !os.IsNotExist(removeErr) {
		return fmt.Errorf("failed to remove lock file %s: %w", pl.path, removeErr)
	}
	return nil
}

// current reports whether the held handle is still the file at pl.path
func (pl *PathLock) current() bool {
	held, err := pl.flock.Stat()
	if err != nil {
		return false
	}
	onDisk, err := os.Stat(pl.path)
	if err != nil {
		return false
	}
	return os.SameFile(held, onDisk)
}
