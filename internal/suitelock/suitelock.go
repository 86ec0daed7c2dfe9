// Package suitelock serializes scenario runs across processes. Scenarios
// share named volumes, so two suites against the same deployment would
// destroy each other's data.
package suitelock

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/schmitthub/rdsharness/internal/logger"
)

// ErrLocked is returned when another process holds the lock.
var ErrLocked = errors.New("another rdsharness run holds the suite lock")

const retryDelay = 100 * time.Millisecond

// Lock is a held advisory file lock.
type Lock struct {
	fl *flock.Flock
}

// Acquire takes the exclusive lock at path. With wait <= 0 it fails
// immediately when the lock is held; otherwise it retries until wait
// elapses or ctx is done.
func Acquire(ctx context.Context, path string, wait time.Duration) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("cannot create lock directory: %w", err)
	}
	fl := flock.New(path)

	var (
		locked bool
		err    error
	)
	if wait <= 0 {
		locked, err = fl.TryLock()
	} else {
		lockCtx, cancel := context.WithTimeout(ctx, wait)
		defer cancel()
		locked, err = fl.TryLockContext(lockCtx, retryDelay)
		if err != nil && errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			locked, err = false, nil
		}
	}
	if err != nil {
		return nil, fmt.Errorf("acquiring suite lock %s: %w", path, err)
	}
	if !locked {
		return nil, fmt.Errorf("%w (%s)", ErrLocked, path)
	}

	logger.Debug().Str("path", path).Msg("acquired suite lock")
	return &Lock{fl: fl}, nil
}

// Path returns the lock file path.
func (l *Lock) Path() string {
	return l.fl.Path()
}

// Release drops the lock. Safe to call more than once.
func (l *Lock) Release() error {
	if l == nil || l.fl == nil || !l.fl.Locked() {
		return nil
	}
	if err := l.fl.Unlock(); err != nil {
		return fmt.Errorf("releasing suite lock %s: %w", l.fl.Path(), err)
	}
	logger.Debug().Str("path", l.fl.Path()).Msg("released suite lock")
	return nil
}
