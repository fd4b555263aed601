// Package lock provides the per-flight admission lock used by the
// reservation engine. At most one holder exists per key at a time, and
// waiting for it is bounded by a timeout.
package lock

import (
	"context"
	"time"
)

// Unlock releases a held lock. Calling it more than once is a no-op.
type Unlock func()

// Locker grants exclusive sections keyed by flight id.
type Locker interface {
	// Lock blocks until the key is held, the wait timeout elapses
	// (domain.ErrLockTimeout) or ctx is done.
	Lock(ctx context.Context, key string) (Unlock, error)
}

const DefaultWaitTimeout = 3 * time.Second
