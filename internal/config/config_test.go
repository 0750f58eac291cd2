package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, StorePostgres, cfg.Store)
	assert.Equal(t, int32(10), cfg.Database.MaxConns)
	assert.Equal(t, 50, cfg.Grouping.GroupLimit)
	assert.Equal(t, 20, cfg.Grouping.DefaultPageSize)
	assert.Equal(t, 100, cfg.Grouping.MaxPageSize)
	assert.Equal(t, 5*time.Second, cfg.Members.Breaker.Timeout)
	assert.Equal(t, uint32(3), cfg.Members.Breaker.ConsecutiveFailures)
	assert.Equal(t, "", cfg.Log.File)
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "worklane.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
store: memory
timezone: Europe/Belgrade
http:
  addr: ":9000"
grouping:
  group_limit: 10
members:
  breaker:
    timeout: 30s
`), 0o600))

	t.Setenv("WORKLANE_HTTP_ADDR", ":7000")
	t.Setenv("WORKLANE_GROUPING_PARALLELISM", "8")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, StoreMemory, cfg.Store)
	assert.Equal(t, ":7000", cfg.HTTP.Addr)
	assert.Equal(t, 10, cfg.Grouping.GroupLimit)
	assert.Equal(t, 8, cfg.Grouping.Parallelism)
	assert.Equal(t, 30*time.Second, cfg.Members.Breaker.Timeout)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Belgrade", loc.String())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Store:    StoreMemory,
			Timezone: "UTC",
			Grouping: GroupingConfig{GroupLimit: 50, DefaultPageSize: 20, MaxPageSize: 100, Parallelism: 4},
		}
	}
	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown store", func(c *Config) { c.Store = "redis" }},
		{"postgres without url", func(c *Config) { c.Store = StorePostgres }},
		{"bad timezone", func(c *Config) { c.Timezone = "Mars/Olympus" }},
		{"zero group limit", func(c *Config) { c.Grouping.GroupLimit = 0 }},
		{"default above max", func(c *Config) { c.Grouping.DefaultPageSize = 200 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}
