package lock

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Domenick1991/charterbooking/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalLocker_MutualExclusion(t *testing.T) {
	l := NewLocalLocker(5 * time.Second)
	ctx := context.Background()

	var (
		inside  atomic.Int32
		maxSeen atomic.Int32
		wg      sync.WaitGroup
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := l.Lock(ctx, "CH101")
			if !assert.NoError(t, err) {
				return
			}
			n := inside.Add(1)
			if n > maxSeen.Load() {
				maxSeen.Store(n)
			}
			time.Sleep(time.Millisecond)
			inside.Add(-1)
			unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxSeen.Load())
	assert.Zero(t, l.size())
}

func TestLocalLocker_IndependentKeys(t *testing.T) {
	l := NewLocalLocker(50 * time.Millisecond)
	ctx := context.Background()

	unlockA, err := l.Lock(ctx, "CH101")
	require.NoError(t, err)
	defer unlockA()

	unlockB, err := l.Lock(ctx, "CH202")
	require.NoError(t, err)
	unlockB()
}

func TestLocalLocker_WaitTimeout(t *testing.T) {
	l := NewLocalLocker(30 * time.Millisecond)
	ctx := context.Background()

	unlock, err := l.Lock(ctx, "CH101")
	require.NoError(t, err)

	start := time.Now()
	_, err = l.Lock(ctx, "CH101")
	assert.ErrorIs(t, err, domain.ErrLockTimeout)
	assert.True(t, domain.IsTimeout(err))
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)

	unlock()
	unlock() // second call is a no-op

	unlock, err = l.Lock(ctx, "CH101")
	require.NoError(t, err)
	unlock()
	assert.Zero(t, l.size())
}

func TestLocalLocker_ContextCancelled(t *testing.T) {
	l := NewLocalLocker(time.Second)

	unlock, err := l.Lock(context.Background(), "CH101")
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = l.Lock(ctx, "CH101")
	assert.True(t, domain.IsTimeout(err))
	assert.ErrorIs(t, err, context.Canceled)
}
