package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Domenick1991/charterbooking/internal/domain"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// releaseScript deletes the key only while it still carries our token, so an
// expired holder cannot free a lock another replica has since taken.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

const releaseTimeout = 2 * time.Second

// RedisLocker shares admission across replicas. The TTL bounds how long a
// crashed holder can block a flight. It is not renewed: a holder that
// outlives it loses mutual exclusion for the rest of its critical section.
// Seats stay safe because the store's decrement is conditional, but the
// bookable re-check no longer excludes other admissions. Release reports
// such expiries. Keep the TTL well above the slowest admission.
type RedisLocker struct {
	client   *redis.Client
	wait     time.Duration
	ttl      time.Duration
	retry    time.Duration
	newToken func() string
	logger   *zap.Logger
}

type RedisOption func(*RedisLocker)

func WithRetryInterval(d time.Duration) RedisOption {
	return func(l *RedisLocker) {
		if d > 0 {
			l.retry = d
		}
	}
}

func WithTokenGenerator(fn func() string) RedisOption {
	return func(l *RedisLocker) { l.newToken = fn }
}

func WithLogger(logger *zap.Logger) RedisOption {
	return func(l *RedisLocker) { l.logger = logger }
}

// NewRedisLocker raises ttl to at least wait.
func NewRedisLocker(client *redis.Client, wait, ttl time.Duration, opts ...RedisOption) *RedisLocker {
	if wait <= 0 {
		wait = DefaultWaitTimeout
	}
	ttl = max(ttl, wait)
	l := &RedisLocker{
		client:   client,
		wait:     wait,
		ttl:      ttl,
		retry:    25 * time.Millisecond,
		newToken: uuid.NewString,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func redisKey(key string) string {
	return fmt.Sprintf("lock:flight:%s:admission", key)
}

func (l *RedisLocker) Lock(ctx context.Context, key string) (Unlock, error) {
	rkey := redisKey(key)
	token := l.newToken()
	deadline := time.Now().Add(l.wait)

	for {
		ok, err := l.client.SetNX(ctx, rkey, token, l.ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("%w: %w", domain.ErrTimeout, ctx.Err())
			}
			return nil, domain.Internal("acquire redis lock", err)
		}
		if ok {
			return l.unlockFunc(rkey, token), nil
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, domain.ErrLockTimeout
		}
		timer := time.NewTimer(min(l.retry, remaining))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, fmt.Errorf("%w: %w", domain.ErrTimeout, ctx.Err())
		case <-timer.C:
		}
	}
}

func (l *RedisLocker) unlockFunc(rkey, token string) Unlock {
	var once sync.Once
	return func() {
		once.Do(func() {
			ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
			defer cancel()
			deleted, err := releaseScript.Run(ctx, l.client, []string{rkey}, token).Int64()
			switch {
			case err != nil:
				// the TTL reclaims the key eventually
				l.logger.Warn("release redis lock", zap.String("key", rkey), zap.Error(err))
			case deleted == 0:
				l.logger.Warn("redis lock expired before release",
					zap.String("key", rkey), zap.Duration("ttl", l.ttl))
			}
		})
	}
}
