// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package config loads HoloAuth settings from defaults, an optional YAML
// file, the environment and command-line flags, in that order.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/holomush/holoauth/internal/xdg"
)

// EnvPrefix prefixes every environment override. Sections are separated by
// a double underscore: HOLOAUTH_SESSION__DURATION_SECONDS.
const EnvPrefix = "HOLOAUTH_"

// LegacyDurationEnv is honored when the prefixed variable is absent.
// Values that are not integers mean 0.
const LegacyDurationEnv = "SESSION_DURATION"

// Durable session record backends.
const (
	DurableNone     = "none"
	DurablePostgres = "postgres"
	DurableSQLite   = "sqlite"
	DurableRedis    = "redis"
)

// Account storage drivers.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config is the effective HoloAuth configuration.
type Config struct {
	Session SessionConfig `koanf:"session" json:"session" yaml:"session"`
	Storage StorageConfig `koanf:"storage" json:"storage" yaml:"storage"`
	Redis   RedisConfig   `koanf:"redis" json:"redis" yaml:"redis"`
	Log     LogConfig     `koanf:"log" json:"log" yaml:"log"`
	Metrics MetricsConfig `koanf:"metrics" json:"metrics" yaml:"metrics"`
}

// SessionConfig controls the session strategy stack.
type SessionConfig struct {
	DurationSeconds int    `koanf:"duration_seconds" json:"duration_seconds" yaml:"duration_seconds" jsonschema:"minimum=0,description=Session lifetime in seconds; 0 never expires"`
	Durable         string `koanf:"durable" json:"durable" yaml:"durable" jsonschema:"enum=none,enum=postgres,enum=sqlite,enum=redis,description=Durable mirror for session records"`
}

// Duration returns the session lifetime. Zero means sessions never expire.
func (s SessionConfig) Duration() time.Duration {
	return time.Duration(s.DurationSeconds) * time.Second
}

// StorageConfig selects the account repository.
type StorageConfig struct {
	Driver      string `koanf:"driver" json:"driver" yaml:"driver" jsonschema:"enum=memory,enum=postgres,enum=sqlite"`
	DatabaseURL string `koanf:"database_url" json:"database_url,omitempty" yaml:"database_url,omitempty" jsonschema:"description=PostgreSQL connection URL"`
	SQLitePath  string `koanf:"sqlite_path" json:"sqlite_path" yaml:"sqlite_path" jsonschema:"minLength=1"`
}

// RedisConfig configures the Redis durable record store.
type RedisConfig struct {
	Addr     string `koanf:"addr" json:"addr" yaml:"addr" jsonschema:"minLength=1"`
	Password string `koanf:"password" json:"password,omitempty" yaml:"password,omitempty"`
	DB       int    `koanf:"db" json:"db" yaml:"db" jsonschema:"minimum=0,maximum=15"`
}

// LogConfig controls log output.
type LogConfig struct {
	Format string   `koanf:"format" json:"format" yaml:"format" jsonschema:"enum=json,enum=text"`
	Level  string   `koanf:"level" json:"level" yaml:"level" jsonschema:"enum=debug,enum=info,enum=warn,enum=error"`
	Redact []string `koanf:"redact" json:"redact" yaml:"redact" jsonschema:"description=Attribute keys whose values are masked"`
}

// MetricsConfig controls the observability server.
type MetricsConfig struct {
	Addr string `koanf:"addr" json:"addr" yaml:"addr" jsonschema:"minLength=1"`
}

// DefaultRedactKeys are masked in logs unless overridden.
var DefaultRedactKeys = []string{"email", "password", "session_id", "reset_token", "token"}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Session: SessionConfig{DurationSeconds: 0, Durable: DurableNone},
		Storage: StorageConfig{Driver: DriverMemory, SQLitePath: filepath.Join(xdg.DataDir(), "holoauth.db")},
		Redis:   RedisConfig{Addr: "localhost:6379"},
		Log: LogConfig{
			Format: "json",
			Level:  "info",
			Redact: append([]string(nil), DefaultRedactKeys...),
		},
		Metrics: MetricsConfig{Addr: "127.0.0.1:9100"},
	}
}

// flagKeys maps command-line flags to config keys.
var flagKeys = map[string]string{
	"session-duration": "session.duration_seconds",
	"durable":          "session.durable",
	"storage-driver":   "storage.driver",
	"database-url":     "storage.database_url",
	"sqlite-path":      "storage.sqlite_path",
	"redis-addr":       "redis.addr",
	"log-format":       "log.format",
	"log-level":        "log.level",
	"metrics-addr":     "metrics.addr",
}

// RegisterFlags adds the config override flags to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.String("config", "", "path to a YAML config file")
	fs.Int("session-duration", d.Session.DurationSeconds, "session lifetime in seconds (0 never expires)")
	fs.String("durable", d.Session.Durable, "durable session mirror: none, postgres, sqlite or redis")
	fs.String("storage-driver", d.Storage.Driver, "account storage: memory, postgres or sqlite")
	fs.String("database-url", d.Storage.DatabaseURL, "PostgreSQL connection URL")
	fs.String("sqlite-path", d.Storage.SQLitePath, "SQLite database file")
	fs.String("redis-addr", d.Redis.Addr, "Redis address")
	fs.String("log-format", d.Log.Format, "log format: json or text")
	fs.String("log-level", d.Log.Level, "log level: debug, info, warn or error")
	fs.String("metrics-addr", d.Metrics.Addr, "observability server listen address")
}

// Load builds the effective configuration. fs may be nil. The file named
// by --config, or else xdg.ConfigFile() when it exists, is checked against
// the schema and applied over the defaults.
func Load(fs *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := setDefaults(k); err != nil {
		return nil, err
	}

	if path := configPath(fs); path != "" {
		data, err := os.ReadFile(path) //nolint:gosec // operator-supplied path
		if err != nil {
			return nil, oops.Code("CONFIG_READ_FAILED").With("path", path).Wrap(err)
		}
		if err := ValidateYAML(data); err != nil {
			return nil, oops.Code("CONFIG_INVALID").With("path", path).Wrap(err)
		}
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("path", path).Wrap(err)
		}
	}

	if err := loadLegacyDuration(k); err != nil {
		return nil, err
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "env").Wrap(err)
	}

	if fs != nil {
		provider := posflag.ProviderWithFlag(fs, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok {
				return "", nil
			}
			return key, posflag.FlagVal(fs, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "flags").Wrap(err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.Code("CONFIG_DECODE_FAILED").Wrap(err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(k *koanf.Koanf) error {
	d := Default()
	defaults := map[string]any{
		"session.duration_seconds": d.Session.DurationSeconds,
		"session.durable":          d.Session.Durable,
		"storage.driver":           d.Storage.Driver,
		"storage.database_url":     d.Storage.DatabaseURL,
		"storage.sqlite_path":      d.Storage.SQLitePath,
		"redis.addr":               d.Redis.Addr,
		"redis.password":           d.Redis.Password,
		"redis.db":                 d.Redis.DB,
		"log.format":               d.Log.Format,
		"log.level":                d.Log.Level,
		"log.redact":               d.Log.Redact,
		"metrics.addr":             d.Metrics.Addr,
	}
	for key, val := range defaults {
		if err := k.Set(key, val); err != nil {
			return oops.Code("CONFIG_LOAD_FAILED").With("key", key).Wrap(err)
		}
	}
	return nil
}

func configPath(fs *pflag.FlagSet) string {
	if fs != nil {
		if path, err := fs.GetString("config"); err == nil && path != "" {
			return path
		}
	}
	if _, err := os.Stat(xdg.ConfigFile()); err == nil {
		return xdg.ConfigFile()
	}
	return ""
}

// envKey turns HOLOAUTH_SESSION__DURATION_SECONDS into session.duration_seconds.
func envKey(s string) string {
	s = strings.TrimPrefix(s, EnvPrefix)
	return strings.ReplaceAll(strings.ToLower(s), "__", ".")
}

// loadLegacyDuration applies SESSION_DURATION. A value that does not parse
// as an integer yields 0, not an error.
func loadLegacyDuration(k *koanf.Koanf) error {
	raw, ok := os.LookupEnv(LegacyDurationEnv)
	if !ok {
		return nil
	}
	if _, modern := os.LookupEnv(EnvPrefix + "SESSION__DURATION_SECONDS"); modern {
		return nil
	}
	seconds := ParseDuration(raw)
	if err := k.Set("session.duration_seconds", seconds); err != nil {
		return oops.Code("CONFIG_LOAD_FAILED").With("source", LegacyDurationEnv).Wrap(err)
	}
	return nil
}

// ParseDuration reads a session duration in seconds. Anything that is not
// a base-10 integer is treated as 0, and so are negative values since a
// non-positive duration never expires.
func ParseDuration(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// Validate checks cfg against the generated JSON Schema and the rules the
// schema cannot express.
func (c *Config) Validate() error {
	if err := validateValue(c); err != nil {
		return oops.Code("CONFIG_INVALID").Wrap(err)
	}
	needsPostgres := c.Storage.Driver == DriverPostgres || c.Session.Durable == DurablePostgres
	if needsPostgres && c.Storage.DatabaseURL == "" {
		return oops.Code("CONFIG_INVALID").
			With("key", "storage.database_url").
			Errorf("storage.database_url is required when postgres is selected")
	}
	return nil
}
