package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir changes the working directory for the duration of the test,
// mirroring t.Chdir from Go 1.24 for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Errorf("restoring working directory: %v", err)
		}
	})
}

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://vocab.perseus.org", cfg.Perseus.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.Perseus.Timeout)
	assert.Equal(t, "lexitheras.db", cfg.Catalog.CachePath)
	assert.Equal(t, 7, cfg.Catalog.FreshnessDays)
	assert.Equal(t, 7*24*time.Hour, cfg.Catalog.Freshness())
	assert.Equal(t, 4, cfg.Build.Workers)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadEnvOverrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("LEXI_PERSEUS_BASE_URL", "http://localhost:8080")
	t.Setenv("LEXI_CATALOG_FRESHNESS", "2")
	t.Setenv("LEXI_LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080", cfg.Perseus.BaseURL)
	assert.Equal(t, 2, cfg.Catalog.FreshnessDays)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lexitheras.yaml")
	yaml := "perseus:\n  base_url: http://mirror.example\ncatalog:\n  freshness_days: 14\n"
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))
	t.Setenv("LEXI_CONFIG_PATH", path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://mirror.example", cfg.Perseus.BaseURL)
	assert.Equal(t, 14, cfg.Catalog.FreshnessDays)
}

func TestLoadExplicitMissingFileFails(t *testing.T) {
	t.Setenv("LEXI_CONFIG_PATH", filepath.Join(t.TempDir(), "nope.yaml"))

	_, err := Load()
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := Config{
		Perseus: PerseusConfig{BaseURL: "https://vocab.perseus.org", Timeout: time.Second},
		Catalog: CatalogConfig{CachePath: "x.db", FreshnessDays: 1},
		Build:   BuildConfig{Workers: 1},
	}
	require.NoError(t, valid.Validate())

	bad := valid
	bad.Perseus.Timeout = 0
	assert.Error(t, bad.Validate())

	bad = valid
	bad.Catalog.FreshnessDays = 0
	assert.Error(t, bad.Validate())

	bad = valid
	bad.Build.Workers = 0
	assert.Error(t, bad.Validate())

	bad = valid
	bad.Perseus.BaseURL = ""
	assert.Error(t, bad.Validate())
}
