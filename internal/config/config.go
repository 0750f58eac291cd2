// Package config loads server and CLI settings from defaults, an optional
// YAML file, a .env file and WORKLANE_* environment variables, in that
// order of increasing precedence.
package config

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. WORKLANE_HTTP_ADDR.
const EnvPrefix = "WORKLANE"

// Store backends.
const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

type Config struct {
	HTTP     HTTPConfig     `mapstructure:"http"`
	Store    string         `mapstructure:"store"`
	Database DatabaseConfig `mapstructure:"database"`
	Log      LogConfig      `mapstructure:"log"`
	Timezone string         `mapstructure:"timezone"`
	Grouping GroupingConfig `mapstructure:"grouping"`
	Members  MembersConfig  `mapstructure:"members"`
}

type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

type DatabaseConfig struct {
	URL      string `mapstructure:"url"`
	MaxConns int32  `mapstructure:"max_conns"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"` // empty logs to stdout
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

type GroupingConfig struct {
	GroupLimit      int `mapstructure:"group_limit"`
	DefaultPageSize int `mapstructure:"default_page_size"`
	MaxPageSize     int `mapstructure:"max_page_size"`
	Parallelism     int `mapstructure:"parallelism"`
}

type MembersConfig struct {
	Breaker BreakerConfig `mapstructure:"breaker"`
}

type BreakerConfig struct {
	MaxRequests         uint32        `mapstructure:"max_requests"`
	Timeout             time.Duration `mapstructure:"timeout"`
	ConsecutiveFailures uint32        `mapstructure:"consecutive_failures"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("store", StorePostgres)
	v.SetDefault("database.url", "postgres://localhost:5432/worklane?sslmode=disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)
	v.SetDefault("log.compress", true)
	v.SetDefault("timezone", "UTC")
	v.SetDefault("grouping.group_limit", 50)
	v.SetDefault("grouping.default_page_size", 20)
	v.SetDefault("grouping.max_page_size", 100)
	v.SetDefault("grouping.parallelism", 4)
	v.SetDefault("members.breaker.max_requests", 1)
	v.SetDefault("members.breaker.timeout", "5s")
	v.SetDefault("members.breaker.consecutive_failures", 3)
}

// Load reads the configuration. path may be empty; a named file that does
// not exist is an error, a missing .env is not.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	switch c.Store {
	case StorePostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("database.url is required for the postgres store")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("unknown store %q (want %s or %s)", c.Store, StorePostgres, StoreMemory)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	g := c.Grouping
	if g.GroupLimit < 1 || g.DefaultPageSize < 1 || g.MaxPageSize < 1 || g.Parallelism < 1 {
		return fmt.Errorf("grouping sizes must be positive")
	}
	if g.DefaultPageSize > g.MaxPageSize {
		return fmt.Errorf("grouping.default_page_size %d exceeds max_page_size %d", g.DefaultPageSize, g.MaxPageSize)
	}
	return nil
}

// Location resolves Timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}
