// Package flock provides a directory-scoped advisory lock implementing the
// single-writer invariant for a shared collection directory. Lock files live
// in a locks/ directory beside the collection, one file per collection name.
package flock

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"github.com/akarwowski/docdex"
)

// Defaults for lock acquisition.
const (
	DefaultTimeout    = 10 * time.Second
	DefaultRetryDelay = 50 * time.Millisecond
)

// Ensure Locker implements docdex.Locker at compile time.
var _ docdex.Locker = (*Locker)(nil)

// Locker serializes mutations against one collection using an advisory file
// lock. Any number of processes may read concurrently; only the lock holder
// may write.
type Locker struct {
	lock       *flock.Flock
	timeout    time.Duration
	retryDelay time.Duration
}

// Option configures a Locker.
type Option func(*Locker)

// WithTimeout bounds how long Lock waits before reporting failure.
func WithTimeout(d time.Duration) Option {
	return func(l *Locker) {
		if d > 0 {
			l.timeout = d
		}
	}
}

// WithRetryDelay sets the polling interval while waiting for the lock.
func WithRetryDelay(d time.Duration) Option {
	return func(l *Locker) {
		if d > 0 {
			l.retryDelay = d
		}
	}
}

// New creates a Locker for the named collection under baseDir. The locks/
// directory is created if needed.
func New(baseDir, collection string, opts ...Option) (*Locker, error) {
	locksDir := filepath.Join(baseDir, "locks")
	if err := os.MkdirAll(locksDir, 0o755); err != nil {
		return nil, docdex.Errorf(docdex.EINTERNAL, "create locks directory: %v", err)
	}

	l := &Locker{
		lock:       flock.New(filepath.Join(locksDir, collection+".lock")),
		timeout:    DefaultTimeout,
		retryDelay: DefaultRetryDelay,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Lock acquires the advisory lock, waiting up to the configured timeout.
// Failure to acquire within the bound is a reported error, never a silent
// no-op.
func (l *Locker) Lock(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	ok, err := l.lock.TryLockContext(ctx, l.retryDelay)
	if err != nil {
		if ctx.Err() != nil {
			return docdex.Errorf(docdex.EUNAVAILABLE, "collection lock not acquired within %s", l.timeout)
		}
		return docdex.Errorf(docdex.EINTERNAL, "acquire collection lock: %v", err)
	}
	if !ok {
		return docdex.Errorf(docdex.EUNAVAILABLE, "collection lock held by another writer")
	}
	return nil
}

// Unlock releases the advisory lock.
func (l *Locker) Unlock() error {
	return l.lock.Unlock()
}
