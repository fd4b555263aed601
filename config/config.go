package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"

	LockLocal = "local"
	LockRedis = "redis"
)

type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Storage   StorageConfig   `yaml:"storage"`
	Lock      LockConfig      `yaml:"lock"`
	Booking   BookingConfig   `yaml:"booking"`
	Worker    WorkerConfig    `yaml:"worker"`
	Auth      AuthConfig      `yaml:"auth"`
	Log       LogConfig       `yaml:"log"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

type HTTPConfig struct {
	Address                string `yaml:"address"`
	SwaggerDir             string `yaml:"swagger_dir"`
	ShutdownTimeoutSeconds int    `yaml:"shutdown_timeout_seconds"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
	Migrate  bool   `yaml:"migrate"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// RedisConfig is used by the flight cache and the redis lock driver.
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type KafkaConfig struct {
	Brokers            []string `yaml:"brokers"`
	BookingEventsTopic string   `yaml:"booking_events_topic"`
	GroupID            string   `yaml:"group_id"`
}

// StorageConfig selects the persistence backend once at startup.
type StorageConfig struct {
	Driver   string `yaml:"driver"`
	SeedFile string `yaml:"seed_file"`
}

type LockConfig struct {
	Driver          string `yaml:"driver"`
	WaitTimeoutMS   int    `yaml:"wait_timeout_ms"`
	TTLMS           int    `yaml:"ttl_ms"`
	RetryIntervalMS int    `yaml:"retry_interval_ms"`
}

func (l LockConfig) WaitTimeout() time.Duration {
	return time.Duration(l.WaitTimeoutMS) * time.Millisecond
}

func (l LockConfig) TTL() time.Duration {
	return time.Duration(l.TTLMS) * time.Millisecond
}

func (l LockConfig) RetryInterval() time.Duration {
	return time.Duration(l.RetryIntervalMS) * time.Millisecond
}

type BookingConfig struct {
	PendingTTLMinutes            int `yaml:"pending_ttl_minutes"`
	FlightsCacheTTL              int `yaml:"flights_cache_ttl_seconds"`
	CompensationMaxRetries       int `yaml:"compensation_max_retries"`
	CompensationInitialBackoffMS int `yaml:"compensation_initial_backoff_ms"`
}

type WorkerConfig struct {
	ExpirationSweepMinutes int `yaml:"expiration_sweep_minutes"`
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
	Issuer    string `yaml:"issuer"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type TelemetryConfig struct {
	Enabled       bool   `yaml:"enabled"`
	ServiceName   string `yaml:"service_name"`
	CollectorAddr string `yaml:"collector_addr"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML, applies defaults and environment overrides, then validates.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if v := os.Getenv("DATABASE_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func Default() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Address:                ":8080",
			ShutdownTimeoutSeconds: 5,
		},
		Database: DatabaseConfig{Port: 5432, SSLMode: "disable"},
		Redis:    RedisConfig{Addr: "localhost:6379"},
		Kafka: KafkaConfig{
			BookingEventsTopic: "booking.events",
			GroupID:            "charter-worker",
		},
		Storage: StorageConfig{Driver: StorageMemory},
		Lock: LockConfig{
			Driver:          LockLocal,
			WaitTimeoutMS:   3000,
			TTLMS:           10000,
			RetryIntervalMS: 25,
		},
		Booking: BookingConfig{
			FlightsCacheTTL:              30,
			CompensationMaxRetries:       5,
			CompensationInitialBackoffMS: 50,
		},
		Worker: WorkerConfig{ExpirationSweepMinutes: 1},
		Auth:   AuthConfig{Issuer: "charter-booking"},
		Log:    LogConfig{Level: "info", Format: "json"},
		Telemetry: TelemetryConfig{
			ServiceName:   "charter-booking",
			CollectorAddr: "localhost:4317",
		},
	}
}

func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case StorageMemory, StoragePostgres:
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	switch c.Lock.Driver {
	case LockLocal, LockRedis:
	default:
		return fmt.Errorf("unknown lock driver %q", c.Lock.Driver)
	}
	if c.Lock.WaitTimeoutMS <= 0 {
		return errors.New("lock.wait_timeout_ms must be positive")
	}
	if c.Lock.Driver == LockRedis {
		if !c.Redis.Enabled {
			return errors.New("lock.driver redis requires redis.enabled")
		}
		if c.Lock.TTLMS < c.Lock.WaitTimeoutMS {
			return errors.New("lock.ttl_ms must be at least lock.wait_timeout_ms for the redis lock")
		}
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret is required")
	}
	if c.Booking.CompensationMaxRetries < 0 {
		return errors.New("booking.compensation_max_retries cannot be negative")
	}
	return nil
}
