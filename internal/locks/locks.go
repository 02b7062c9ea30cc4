// Package locks serialises resolve runs that write to the same working tree.
package locks

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"github.com/i18nmerge/i18nmerge/internal/env"
	"github.com/i18nmerge/i18nmerge/internal/singleton"
)

// TreeMutex provides file-based mutual exclusion between processes resolving the same tree.
// The lock is automatically released if the holding process dies.
type TreeMutex struct {
	Root string
	mu   *flock.Flock
}

// LockPath returns the lock file used for root. Paths that resolve to the same absolute
// directory share a lock.
func LockPath(root string) string {
	abs, err := filepath.Abs(root)
	if err != nil {
		abs = root
	}
	sum := sha1.Sum([]byte(abs))
	return filepath.Join(os.TempDir(), "i18nmerge-"+hex.EncodeToString(sum[:6])+".lock")
}

func newTreeMutex(root string) *TreeMutex {
	return &TreeMutex{Root: root, mu: flock.New(LockPath(root))}
}

// ForTree returns the process-wide mutex for root.
var ForTree = singleton.Keyed(newTreeMutex)

type TryLockResult struct {
	Attempt int
	Error   error
	Success bool
}

// TryLock polls for the lock every retryDelay until it is held or ctx is done. Each failed
// attempt is reported on the channel before the next one; the final result closes the run.
func (m *TreeMutex) TryLock(ctx context.Context, retryDelay time.Duration) <-chan TryLockResult {
	ch := make(chan TryLockResult)
	go func() {
		defer close(ch)
		for attempt := 0; ; attempt++ {
			ok, err := m.mu.TryLock()
			if err != nil {
				ch <- TryLockResult{Attempt: attempt, Error: fmt.Errorf("failed to acquire lock (pid %d): %w", os.Getpid(), err)}
				return
			}
			if ok {
				ch <- TryLockResult{Attempt: attempt, Success: true}
				return
			}

			select {
			case <-ctx.Done():
				ch <- TryLockResult{Attempt: attempt, Error: ctx.Err()}
				return
			case <-time.After(retryDelay):
				ch <- TryLockResult{Attempt: attempt, Success: false}
			}
		}
	}()
	return ch
}

// Acquire blocks until the lock is held, calling onWait after every failed attempt. The
// returned release function unlocks. When locking is disabled through the environment,
// Acquire returns immediately with a no-op release.
func (m *TreeMutex) Acquire(ctx context.Context, retryDelay time.Duration, onWait func(attempt int)) (func() error, error) {
	if env.IsConcurrencyLockDisabled() {
		return func() error { return nil }, nil
	}

	for result := range m.TryLock(ctx, retryDelay) {
		switch {
		case result.Error != nil:
			return nil, result.Error
		case result.Success:
			return m.Unlock, nil
		case onWait != nil:
			onWait(result.Attempt)
		}
	}
	return nil, fmt.Errorf("lock for %s was not acquired", m.Root)
}

func (m *TreeMutex) Unlock() error {
	return m.mu.Unlock()
}
