// Package lock provides the advisory file lock held by mutating commands.
package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/flock"
)

// ErrAlreadyLocked is returned when another process holds the lock.
var ErrAlreadyLocked = errors.New("another bk command is already running")

// Flocker abstracts the subset of flock.Flock used for advisory locking.
type Flocker interface {
	TryLock() (bool, error)
	TryLockContext(ctx context.Context, retryDelay time.Duration) (bool, error)
	Unlock() error
}

// Lock wraps a Flocker. With a zero wait it fails fast; otherwise it retries
// until the wait or the context runs out.
type Lock struct {
	flocker Flocker
	wait    time.Duration
}

// Option configures a Lock.
type Option func(*Lock)

// WithWait makes TryLock keep retrying for up to d.
func WithWait(d time.Duration) Option {
	return func(l *Lock) { l.wait = d }
}

// New creates a Lock from the given Flocker.
func New(f Flocker, opts ...Option) *Lock {
	l := &Lock{flocker: f}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// NewFromPath creates a Lock backed by the file at path.
func NewFromPath(path string, opts ...Option) *Lock {
	return New(flock.New(path), opts...)
}

// retryDelay is how often a waiting TryLock polls the lock file.
const retryDelay = 50 * time.Millisecond

// TryLock acquires the lock. It returns ErrAlreadyLocked if another process
// still holds it once the wait is over.
func (l *Lock) TryLock(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var (
		ok  bool
		err error
	)
	if l.wait > 0 {
		waitCtx, cancel := context.WithTimeout(ctx, l.wait)
		defer cancel()
		ok, err = l.flocker.TryLockContext(waitCtx, retryDelay)
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return ErrAlreadyLocked
		}
	} else {
		ok, err = l.flocker.TryLock()
	}
	if err != nil {
		return fmt.Errorf("acquiring lock: %w", err)
	}
	if !ok {
		return ErrAlreadyLocked
	}
	return nil
}

// Unlock releases the lock.
func (l *Lock) Unlock() error {
	if err := l.flocker.Unlock(); err != nil {
		return fmt.Errorf("releasing lock: %w", err)
	}
	return nil
}
