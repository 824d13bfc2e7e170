package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "BIND_ADDRESS", "STORE_BACKEND", "CACHE_BACKEND", "CACHE_TTL", "CACHE_CAPACITY",
		"HEAL_QUEUE_SIZE", "HEAL_WORKERS", "HEAL_DRAIN_TIMEOUT", "QBANK_CONFIG",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, BackendPostgres, cfg.StoreBackend)
	assert.Equal(t, BackendMemory, cfg.CacheBackend)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
	assert.Equal(t, 5000, cfg.CacheCapacity)
	assert.Equal(t, 70.0, cfg.Tuning.FuzzyAcceptScore)
	assert.Equal(t, "localhost:8080", cfg.Addr())
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORE_BACKEND", "Mongo")
	t.Setenv("CACHE_BACKEND", "redis")
	t.Setenv("CACHE_TTL", "30s")
	t.Setenv("HEAL_WORKERS", "4")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, BackendMongo, cfg.StoreBackend)
	assert.Equal(t, BackendRedis, cfg.CacheBackend)
	assert.Equal(t, 30*time.Second, cfg.CacheTTL)
	assert.Equal(t, 4, cfg.HealWorkers)
}

func TestLoadFileOverlay(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "qbank.toml")
	contents := `
[resolver]
fuzzy_accept_score = 80
short_phrase_coverage = 0.6

[cache]
ttl = "1m"

[heal_queue]
workers = 8
drain_timeout = "3s"
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	t.Setenv("QBANK_CONFIG", path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 80.0, cfg.Tuning.FuzzyAcceptScore)
	assert.Equal(t, 0.6, cfg.Tuning.ShortPhraseCoverage)
	assert.Equal(t, 8, cfg.Tuning.FragmentMinLength, "unset keys keep their defaults")
	assert.Equal(t, time.Minute, cfg.CacheTTL)
	assert.Equal(t, 5000, cfg.CacheCapacity)
	assert.Equal(t, 8, cfg.HealWorkers)
	assert.Equal(t, 256, cfg.HealQueueSize)
	assert.Equal(t, 3*time.Second, cfg.HealDrainTimeout)
}

func TestLoadRejectsUnknownFileKeys(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "qbank.toml")
	require.NoError(t, os.WriteFile(path, []byte("[resolver]\nfuzy_accept_score = 1\n"), 0o600))
	t.Setenv("QBANK_CONFIG", path)

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsBadEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("CACHE_TTL", "soon")

	_, err := Load()
	assert.ErrorContains(t, err, "CACHE_TTL")
}

func TestValidate(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	require.NoError(t, err)

	cfg.StoreBackend = "sqlite"
	cfg.CacheCapacity = 0
	cfg.Tuning.MinorityCoverage = 2

	err = cfg.Validate()
	require.Error(t, err)
	assert.ErrorContains(t, err, "store backend")
	assert.ErrorContains(t, err, "cache capacity")
	assert.ErrorContains(t, err, "resolver")
}
