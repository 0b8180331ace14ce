package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Storage backends accepted by KTP_STORAGE_BACKEND.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
	BackendRedis    = "redis"
)

const (
	DefaultAddr            = ":3000"
	DefaultSyncTimeout     = 5 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultRequestTimeout  = 15 * time.Second
	DefaultRedisKey        = "ktp:applicants"
)

type ctxKey string

const configContextKey ctxKey = "ktp.config"

// WithContext stores cfg on ctx for cobra subcommands.
func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configContextKey, cfg)
}

// FromContext returns the config stored by WithContext, or nil.
func FromContext(ctx context.Context) *Config {
	cfg, ok := ctx.Value(configContextKey).(*Config)
	if !ok {
		return nil
	}
	return cfg
}

// Config is the full runtime configuration of the ktp binary.
type Config struct {
	Server   Server         `yaml:"server"`
	Storage  Storage        `yaml:"storage"`
	Postgres PostgresConfig `yaml:"postgres"`
	SQLite   SQLiteConfig   `yaml:"sqlite"`
	Redis    RedisConfig    `yaml:"redis"`
	Tracing  bool           `yaml:"tracing" envconfig:"KTP_TRACING"`
	Debug    bool           `yaml:"debug"   envconfig:"KTP_DEBUG"`
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string        `yaml:"addr"            envconfig:"KTP_ADDR"`
	RequestTimeout  time.Duration `yaml:"requestTimeout"  envconfig:"KTP_REQUEST_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout" envconfig:"KTP_SHUTDOWN_TIMEOUT"`
}

// Storage selects the persistence backend.
type Storage struct {
	Backend     string        `yaml:"backend"     envconfig:"KTP_STORAGE_BACKEND"`
	SyncTimeout time.Duration `yaml:"syncTimeout" envconfig:"KTP_SYNC_TIMEOUT"`
}

type PostgresConfig struct {
	// DSN of the application database, e.g. postgres://postgres:pw@localhost:5432/id-application?sslmode=disable
	DSN          string        `yaml:"dsn"          envconfig:"KTP_POSTGRES_DSN"`
	MaxOpenConns int           `yaml:"maxOpenConns" envconfig:"KTP_POSTGRES_MAX_OPEN_CONNS"`
	MaxIdleConns int           `yaml:"maxIdleConns" envconfig:"KTP_POSTGRES_MAX_IDLE_CONNS"`
	ConnLifetime time.Duration `yaml:"connLifetime" envconfig:"KTP_POSTGRES_CONN_LIFETIME"`
}

type SQLiteConfig struct {
	// Path of the database file. Empty keeps the database in memory.
	Path string `yaml:"path" envconfig:"KTP_SQLITE_PATH"`
}

type RedisConfig struct {
	URL          string        `yaml:"url"          envconfig:"KTP_REDIS_URL"`
	Key          string        `yaml:"key"          envconfig:"KTP_REDIS_KEY"`
	PoolSize     int           `yaml:"poolSize"     envconfig:"KTP_REDIS_POOL_SIZE"`
	MinIdleConns int           `yaml:"minIdleConns" envconfig:"KTP_REDIS_MIN_IDLE_CONNS"`
	DialTimeout  time.Duration `yaml:"dialTimeout"  envconfig:"KTP_REDIS_DIAL_TIMEOUT"`
	ReadTimeout  time.Duration `yaml:"readTimeout"  envconfig:"KTP_REDIS_READ_TIMEOUT"`
	WriteTimeout time.Duration `yaml:"writeTimeout" envconfig:"KTP_REDIS_WRITE_TIMEOUT"`
}

// Default returns the configuration used when neither a file nor the
// environment sets a value.
func Default() *Config {
	return &Config{
		Server: Server{
			Addr:            DefaultAddr,
			RequestTimeout:  DefaultRequestTimeout,
			ShutdownTimeout: DefaultShutdownTimeout,
		},
		Storage: Storage{
			Backend:     BackendMemory,
			SyncTimeout: DefaultSyncTimeout,
		},
		Postgres: PostgresConfig{
			MaxOpenConns: 10,
			MaxIdleConns: 5,
			ConnLifetime: 30 * time.Minute,
		},
		Redis: RedisConfig{
			Key:          DefaultRedisKey,
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
	}
}

// Load builds the config from defaults, then the optional YAML file, then
// KTP_* environment variables.
func Load(configFile string) (*Config, error) {
	cfg := Default()
	if configFile != "" {
		buf, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		if err := yaml.Unmarshal(buf, cfg); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
	}
	if err := envconfig.Process("ktp", cfg); err != nil {
		return nil, fmt.Errorf("error processing environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects combinations the server cannot start with.
func (c *Config) Validate() error {
	var errs []error
	switch c.Storage.Backend {
	case BackendMemory, BackendSQLite:
	case BackendPostgres:
		if c.Postgres.DSN == "" {
			errs = append(errs, errors.New("postgres backend requires KTP_POSTGRES_DSN"))
		}
	case BackendRedis:
		if c.Redis.URL == "" {
			errs = append(errs, errors.New("redis backend requires KTP_REDIS_URL"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage backend %q", c.Storage.Backend))
	}
	if c.Storage.SyncTimeout <= 0 {
		errs = append(errs, errors.New("sync timeout must be positive"))
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("shutdown timeout must be positive"))
	}
	return errors.Join(errs...)
}
