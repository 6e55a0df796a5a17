// Package config loads the activity to-do configuration.
//
// Configuration is read from a YAML file and then overridden from the
// environment. Environment variables use the TODO_ prefix followed by the
// section and field, e.g. TODO_STORAGE_BACKEND or TODO_LISTENER_ADDR. A .env
// file in the working directory is loaded first if present.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix for environment overrides.
const EnvPrefix = "todo"

// Storage backends.
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

const redactedValue = "REDACTED"

const (
	defaultListenAddr = ":8080"

	defaultStorageBackend = BackendFile
	defaultStorageDir     = "data"
	defaultStorageKey     = "tasks"
	defaultRedisAddr      = "localhost:6379"
	defaultRedisPrefix    = "activitytodo:"

	defaultSnapshotKeep = 24

	defaultMetricsPrefix = "activitytodo"
	defaultJobName       = "activitytodo"
	defaultPushTimeout   = 30 * time.Second

	defaultLogLevel  = "info"
	defaultLogFormat = "json"
	defaultLogOutput = "stdout"
)

var backends = []string{BackendMemory, BackendFile, BackendRedis, BackendPostgres}

// Config represents the complete application configuration.
type Config struct {
	Listener   ListenerConfig   `yaml:"listener" envconfig:"listener"`
	Storage    StorageConfig    `yaml:"storage" envconfig:"storage"`
	Snapshot   SnapshotConfig   `yaml:"snapshot" envconfig:"snapshot"`
	Logging    LoggingConfig    `yaml:"logging" envconfig:"logging"`
	Monitoring MonitoringConfig `yaml:"monitoring" envconfig:"monitoring"`
}

// ListenerConfig holds HTTP server listener settings.
type ListenerConfig struct {
	// The listen address, defaults to :8080
	Addr string `yaml:"addr" envconfig:"addr"`
	// TLSCert and TLSKey enable HTTPS when both are set.
	TLSCert string `yaml:"tls_cert" envconfig:"tls_cert"`
	TLSKey  string `yaml:"tls_key" envconfig:"tls_key"`
}

// StorageConfig selects and configures the key-value backend.
type StorageConfig struct {
	// Backend is one of memory, file, redis, postgres.
	Backend string `yaml:"backend" envconfig:"backend"`
	// Dir is the directory used by the file backend.
	Dir string `yaml:"dir" envconfig:"dir"`
	// Key is the key the task list is stored under.
	Key      string         `yaml:"key" envconfig:"key"`
	Redis    RedisConfig    `yaml:"redis" envconfig:"redis"`
	Postgres PostgresConfig `yaml:"postgres" envconfig:"postgres"`
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string `yaml:"addr" envconfig:"addr"`
	Password string `yaml:"password" envconfig:"password"`
	DB       int    `yaml:"db" envconfig:"db"`
	Prefix   string `yaml:"prefix" envconfig:"prefix"`
}

// PostgresConfig holds PostgreSQL connection settings.
type PostgresConfig struct {
	// URL is a postgres:// connection string.
	URL string `yaml:"url" envconfig:"url"`
}

// SnapshotConfig configures periodic snapshots of the task list.
// Snapshots are disabled when Schedule is empty.
type SnapshotConfig struct {
	// Schedule is a 5 field cron expression, e.g. "0 * * * *".
	Schedule string `yaml:"schedule" envconfig:"schedule"`
	Dir      string `yaml:"dir" envconfig:"dir"`
	// Keep is the number of snapshot files retained.
	Keep int `yaml:"keep" envconfig:"keep"`
}

// LoggingConfig defines logging behavior settings.
type LoggingConfig struct {
	Level     string `yaml:"level" envconfig:"level"`
	Format    string `yaml:"format" envconfig:"format"`
	Output    string `yaml:"output" envconfig:"output"`
	AddSource bool   `yaml:"add_source" envconfig:"add_source"`
}

// MonitoringConfig holds metrics settings. VictoriaMetricsURL is only used by
// the CLI, which pushes instead of being scraped.
type MonitoringConfig struct {
	VictoriaMetricsURL string        `yaml:"victoriametrics_url" envconfig:"victoriametrics_url"`
	MetricsPrefix      string        `yaml:"metrics_prefix" envconfig:"metrics_prefix"`
	JobName            string        `yaml:"jobname" envconfig:"jobname"`
	PushTimeout        time.Duration `yaml:"push_timeout" envconfig:"push_timeout"`
}

// Load reads the YAML file at path (if path is non-empty), applies environment
// overrides, fills in defaults and validates the result.
func Load(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := LoadEnvFile(".env"); err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}

	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) loadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open config file %s: %w", path, err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil {
		return fmt.Errorf("failed to decode YAML config %s: %w", path, err)
	}
	return nil
}

// LoadEnvFile loads variables from the given dotenv files into the process
// environment. Missing files are ignored and variables that are already set
// are not overwritten.
func LoadEnvFile(paths ...string) error {
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load env file %s: %w", p, err)
		}
	}
	return nil
}

// ApplyEnv overrides fields from TODO_* environment variables. Fields with no
// matching variable keep their current value.
func (c *Config) ApplyEnv() error {
	if err := envconfig.Process(EnvPrefix, c); err != nil {
		return fmt.Errorf("failed to apply environment overrides: %w", err)
	}
	return nil
}

// SetDefaults sets reasonable default values for optional fields.
func (c *Config) SetDefaults() {
	if c.Listener.Addr == "" {
		c.Listener.Addr = defaultListenAddr
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = defaultStorageBackend
	}
	if c.Storage.Dir == "" {
		c.Storage.Dir = defaultStorageDir
	}
	if c.Storage.Key == "" {
		c.Storage.Key = defaultStorageKey
	}
	if c.Storage.Redis.Addr == "" {
		c.Storage.Redis.Addr = defaultRedisAddr
	}
	if c.Storage.Redis.Prefix == "" {
		c.Storage.Redis.Prefix = defaultRedisPrefix
	}
	if c.Snapshot.Dir == "" {
		c.Snapshot.Dir = filepath.Join(c.Storage.Dir, "snapshots")
	}
	if c.Snapshot.Keep == 0 {
		c.Snapshot.Keep = defaultSnapshotKeep
	}
	if c.Monitoring.MetricsPrefix == "" {
		c.Monitoring.MetricsPrefix = defaultMetricsPrefix
	}
	if c.Monitoring.JobName == "" {
		c.Monitoring.JobName = defaultJobName
	}
	if c.Monitoring.PushTimeout == 0 {
		c.Monitoring.PushTimeout = defaultPushTimeout
	}
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	if c.Logging.Output == "" {
		c.Logging.Output = defaultLogOutput
	}
}

// Validate performs basic validation on the configuration.
func (c *Config) Validate() error {
	if !slices.Contains(backends, c.Storage.Backend) {
		return fmt.Errorf("storage backend %q must be one of %v", c.Storage.Backend, backends)
	}
	if c.Storage.Key == "" {
		return fmt.Errorf("storage key is required")
	}
	switch c.Storage.Backend {
	case BackendFile:
		if c.Storage.Dir == "" {
			return fmt.Errorf("storage dir is required for the file backend")
		}
	case BackendRedis:
		if c.Storage.Redis.Addr == "" {
			return fmt.Errorf("redis addr is required for the redis backend")
		}
		if c.Storage.Redis.DB < 0 {
			return fmt.Errorf("redis db must not be negative")
		}
	case BackendPostgres:
		if c.Storage.Postgres.URL == "" {
			return fmt.Errorf("postgres url is required for the postgres backend")
		}
	}
	if (c.Listener.TLSCert == "") != (c.Listener.TLSKey == "") {
		return fmt.Errorf("tls_cert and tls_key must be set together")
	}
	if c.Snapshot.Schedule != "" {
		if c.Snapshot.Dir == "" {
			return fmt.Errorf("snapshot dir is required when a schedule is set")
		}
		if c.Snapshot.Keep < 1 {
			return fmt.Errorf("snapshot keep must be at least 1")
		}
	}
	return nil
}

// Redacted returns a copy of the config with secrets masked.
func (c *Config) Redacted() *Config {
	r := *c
	if r.Storage.Redis.Password != "" {
		r.Storage.Redis.Password = redactedValue
	}
	r.Storage.Postgres.URL = redactURL(r.Storage.Postgres.URL)
	return &r
}

func redactURL(raw string) string {
	if raw == "" {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return redactedValue
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), redactedValue)
	}
	return u.String()
}
