package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	cfg, err := Parse([]byte("auth:\n  jwt_secret: s3cret\n"))
	require.NoError(t, err)

	assert.Equal(t, StorageMemory, cfg.Storage.Driver)
	assert.Equal(t, LockLocal, cfg.Lock.Driver)
	assert.Equal(t, 3*time.Second, cfg.Lock.WaitTimeout())
	assert.Equal(t, "booking.events", cfg.Kafka.BookingEventsTopic)
	assert.Equal(t, ":8080", cfg.HTTP.Address)
}

func TestParse_Overrides(t *testing.T) {
	data := []byte(`
storage:
  driver: postgres
redis:
  enabled: true
  addr: redis:6379
lock:
  driver: redis
  wait_timeout_ms: 1500
  ttl_ms: 4000
database:
  host: db
  port: 5433
  user: charter
  password: filepw
  name: charter
auth:
  jwt_secret: from-file
`)
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("DATABASE_PASSWORD", "")

	cfg, err := Parse(data)
	require.NoError(t, err)

	assert.Equal(t, StoragePostgres, cfg.Storage.Driver)
	assert.Equal(t, 1500*time.Millisecond, cfg.Lock.WaitTimeout())
	assert.Equal(t, 4*time.Second, cfg.Lock.TTL())
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, "from-env", cfg.Auth.JWTSecret)
	assert.Equal(t, "host=db port=5433 user=charter password=filepw dbname=charter sslmode=disable", cfg.Database.DSN())
}

func TestParse_Invalid(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	testCases := []struct {
		name string
		data string
	}{
		{name: "missing secret", data: "storage:\n  driver: memory\n"},
		{name: "unknown storage", data: "storage:\n  driver: mongo\nauth:\n  jwt_secret: x\n"},
		{name: "unknown lock", data: "lock:\n  driver: etcd\nauth:\n  jwt_secret: x\n"},
		{name: "redis lock without redis", data: "lock:\n  driver: redis\nauth:\n  jwt_secret: x\n"},
		{name: "redis lock ttl below wait", data: "redis:\n  enabled: true\nlock:\n  driver: redis\n  wait_timeout_ms: 3000\n  ttl_ms: 1000\nauth:\n  jwt_secret: x\n"},
		{name: "zero wait", data: "lock:\n  wait_timeout_ms: 0\nauth:\n  jwt_secret: x\n"},
		{name: "broken yaml", data: "storage: [\n"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := Parse([]byte(tc.data))
			assert.Error(t, err)
			assert.Nil(t, cfg)
		})
	}
}

func TestLoadConfig_File(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("auth:\n  jwt_secret: abc\n"), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "abc", cfg.Auth.JWTSecret)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
