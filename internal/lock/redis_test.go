package lock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Domenick1991/charterbooking/internal/domain"
	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func fixedToken() string { return "tok-1" }

func TestRedisLocker_AcquireAndRelease(t *testing.T) {
	db, mock := redismock.NewClientMock()
	l := NewRedisLocker(db, time.Second, 10*time.Second, WithTokenGenerator(fixedToken))

	key := redisKey("CH101")
	mock.ExpectSetNX(key, "tok-1", 10*time.Second).SetVal(true)
	mock.ExpectEvalSha(releaseScript.Hash(), []string{key}, "tok-1").SetVal(int64(1))

	unlock, err := l.Lock(context.Background(), "CH101")
	require.NoError(t, err)
	unlock()
	unlock()

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisLocker_RetriesUntilFree(t *testing.T) {
	db, mock := redismock.NewClientMock()
	l := NewRedisLocker(db, time.Second, 10*time.Second,
		WithTokenGenerator(fixedToken), WithRetryInterval(5*time.Millisecond))

	key := redisKey("CH101")
	mock.ExpectSetNX(key, "tok-1", 10*time.Second).SetVal(false)
	mock.ExpectSetNX(key, "tok-1", 10*time.Second).SetVal(true)

	_, err := l.Lock(context.Background(), "CH101")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisLocker_WaitTimeout(t *testing.T) {
	db, mock := redismock.NewClientMock()
	l := NewRedisLocker(db, 20*time.Millisecond, 10*time.Second,
		WithTokenGenerator(fixedToken), WithRetryInterval(time.Second))

	key := redisKey("CH101")
	mock.ExpectSetNX(key, "tok-1", 10*time.Second).SetVal(false)
	mock.ExpectSetNX(key, "tok-1", 10*time.Second).SetVal(false)

	_, err := l.Lock(context.Background(), "CH101")
	assert.ErrorIs(t, err, domain.ErrLockTimeout)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisLocker_BackendError(t *testing.T) {
	db, mock := redismock.NewClientMock()
	l := NewRedisLocker(db, time.Second, 10*time.Second, WithTokenGenerator(fixedToken))

	mock.ExpectSetNX(redisKey("CH101"), "tok-1", 10*time.Second).SetErr(errors.New("connection refused"))

	_, err := l.Lock(context.Background(), "CH101")
	assert.True(t, domain.IsInternal(err))
}

func TestRedisLocker_ReportsExpiredLock(t *testing.T) {
	db, mock := redismock.NewClientMock()
	core, logs := observer.New(zapcore.WarnLevel)
	l := NewRedisLocker(db, time.Second, 10*time.Second,
		WithTokenGenerator(fixedToken), WithLogger(zap.New(core)))

	key := redisKey("CH101")
	mock.ExpectSetNX(key, "tok-1", 10*time.Second).SetVal(true)
	mock.ExpectEvalSha(releaseScript.Hash(), []string{key}, "tok-1").SetVal(int64(0))

	unlock, err := l.Lock(context.Background(), "CH101")
	require.NoError(t, err)
	unlock()

	assert.NoError(t, mock.ExpectationsWereMet())
	assert.Equal(t, 1, logs.FilterMessage("redis lock expired before release").Len())
}

func TestRedisLocker_TTLCoversWait(t *testing.T) {
	db, mock := redismock.NewClientMock()
	l := NewRedisLocker(db, 2*time.Second, 500*time.Millisecond, WithTokenGenerator(fixedToken))

	key := redisKey("CH101")
	mock.ExpectSetNX(key, "tok-1", 2*time.Second).SetVal(true)

	_, err := l.Lock(context.Background(), "CH101")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
