package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg := FromEnv()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 15*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 10*time.Second, cfg.FetchTimeout)
	assert.Equal(t, 30, cfg.WindowDays)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
	assert.False(t, cfg.DemoMode)
	assert.Equal(t, 3.0, cfg.ROASBenchmark)
	assert.Equal(t, 2.0, cfg.ROASWarn)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("FETCH_TIMEOUT_SECONDS", "3")
	t.Setenv("WINDOW_DAYS", "7")
	t.Setenv("DEMO_MODE", "true")
	t.Setenv("DEMO_SEED", "42")
	t.Setenv("ROAS_WARN", "1.5")
	t.Setenv("REDIS_ADDR", "localhost:6379")

	cfg := FromEnv()
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 3*time.Second, cfg.FetchTimeout)
	assert.Equal(t, 7, cfg.WindowDays)
	assert.True(t, cfg.DemoMode)
	assert.Equal(t, int64(42), cfg.DemoSeed)
	assert.Equal(t, 1.5, cfg.ROASWarn)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
}

func TestFromEnvIgnoresGarbage(t *testing.T) {
	t.Setenv("WINDOW_DAYS", "lots")
	t.Setenv("ROAS_WARN", "??")

	cfg := FromEnv()
	assert.Equal(t, 30, cfg.WindowDays)
	assert.Equal(t, 2.0, cfg.ROASWarn)
}

func TestLoadSources(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sources.yaml")
	content := `sources:
  - id: meta
    type: ads
    url: http://bridge:9000/meta
  - id: shopify
    type: ecommerce
    url: http://bridge:9000/shopify
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	specs, err := LoadSources(path)
	require.NoError(t, err)
	require.Len(t, specs, 2)
	assert.Equal(t, "meta", specs[0].ID)
	assert.Equal(t, "ads", specs[0].Type)
	assert.Equal(t, "http://bridge:9000/shopify", specs[1].URL)
}

func TestLoadSourcesValidation(t *testing.T) {
	dir := t.TempDir()

	missing := filepath.Join(dir, "missing.yaml")
	require.NoError(t, os.WriteFile(missing, []byte("sources:\n  - id: meta\n"), 0o644))
	_, err := LoadSources(missing)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing id or url")

	badType := filepath.Join(dir, "badtype.yaml")
	require.NoError(t, os.WriteFile(badType, []byte("sources:\n  - id: x\n    type: radio\n    url: http://x\n"), 0o644))
	_, err = LoadSources(badType)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown type")
}

func TestLoadSourcesFileNotFound(t *testing.T) {
	_, err := LoadSources(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
