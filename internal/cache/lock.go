package cache

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// lockRetryDelay is the polling interval when a lock wait is cancellable.
const lockRetryDelay = 50 * time.Millisecond

// TileLock serializes builds of one key across goroutines and processes
// with an advisory flock(2) on <artifact>.lock. The kernel drops the lock
// when the holding process exits, so a crash can't wedge the cache.
type TileLock struct {
	store *Store
}

// NewTileLock creates a lock factory for the store's keys.
func NewTileLock(store *Store) *TileLock {
	return &TileLock{store: store}
}

// WithLock runs fn while holding the lock for key. Without a cancellable
// ctx the wait is unbounded; otherwise it ends with ctx.
func (l *TileLock) WithLock(ctx context.Context, key Key, fn func() error) (err error) {
	path := l.store.LockPath(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create lock directory: %w", err)
	}

	fl := flock.New(path)
	if ctx.Done() == nil {
		err = fl.Lock()
	} else {
		var ok bool
		ok, err = fl.TryLockContext(ctx, lockRetryDelay)
		if err == nil && !ok {
			err = ctx.Err()
		}
	}
	if err != nil {
		return fmt.Errorf("lock %s: %w", path, err)
	}

	defer func() {
		if uerr := fl.Unlock(); uerr != nil && err == nil {
			err = fmt.Errorf("unlock %s: %w", path, uerr)
		}
	}()

	return fn()
}
