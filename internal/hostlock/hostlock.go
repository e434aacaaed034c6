// Package hostlock serializes benchmark runs across processes on one host.
//
// Two benchmark processes measuring at the same time steal cycles from each
// other and skew both runs. Acquire takes a file lock shared by every
// nanofire process on the machine; a second process either waits or fails
// fast with ErrLockBusy.
package hostlock

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// ErrLockBusy is returned when another process holds the lock and the wait
// budget is exhausted.
var ErrLockBusy = errors.New("benchmark lock held by another process")

// Lock is a held host-wide benchmark lock.
type Lock struct {
	fl *flock.Flock
}

// DefaultPath returns the lock file location used when none is configured.
func DefaultPath() string {
	return filepath.Join(os.TempDir(), "nanofire.lock")
}

// Acquire takes the host-wide benchmark lock at path, retrying until wait has
// passed. An empty path uses DefaultPath; wait <= 0 means a single attempt.
func Acquire(path string, wait time.Duration) (*Lock, error) {
	if path == "" {
		path = DefaultPath()
	}
	fl := flock.New(path)

	if wait <= 0 {
		ok, err := fl.TryLock()
		if err != nil {
			return nil, fmt.Errorf("lock %s: %w", path, err)
		}
		if !ok {
			return nil, fmt.Errorf("lock %s: %w", path, ErrLockBusy)
		}
		return &Lock{fl: fl}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), wait)
	defer cancel()
	ok, err := fl.TryLockContext(ctx, 50*time.Millisecond)
	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return nil, fmt.Errorf("lock %s: %w", path, err)
	}
	if !ok {
		return nil, fmt.Errorf("lock %s: %w", path, ErrLockBusy)
	}
	return &Lock{fl: fl}, nil
}

// Path returns the lock file's location.
func (l *Lock) Path() string {
	return l.fl.Path()
}

// Release drops the lock. Safe to call on a nil lock.
func (l *Lock) Release() error {
	if l == nil || l.fl == nil {
		return nil
	}
	return l.fl.Unlock()
}
