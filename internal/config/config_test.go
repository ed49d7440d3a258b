package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 1500, cfg.Encoder.MaxFeatures)
	assert.True(t, cfg.Encoder.Normalize)
	assert.Equal(t, 100, cfg.Forest.Trees)
	assert.Equal(t, 20, cfg.Server.MinTextLength)
	assert.Equal(t, "none", cfg.Cache.Type)
	assert.InDelta(t, 0.2, cfg.Training.TestSize, 1e-12)
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yml := `
forest:
  trees: 7
cache:
  type: redis
store:
  type: postgres
  postgres:
    url: postgres://x@db/mbti
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o644))
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Forest.Trees)
	assert.Equal(t, int64(42), cfg.Forest.Seed)
	assert.Equal(t, 1500, cfg.Encoder.MaxFeatures)
	require.NotNil(t, cfg.Cache.Redis)
	assert.Equal(t, "localhost:6379", cfg.Cache.Redis.Addr)
	assert.Equal(t, "postgres://x@db/mbti", cfg.Store.Postgres.URL)
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("forest: [1, 2"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("MBTI_ARTIFACT", "/tmp/model.json.gz")
	t.Setenv("MBTI_MIN_TEXT_LENGTH", "30")
	t.Setenv("MBTI_REDIS_ADDR", "cache:6379")
	t.Setenv("MBTI_WORKERS", "not-a-number")
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "/tmp/model.json.gz", cfg.Artifact.Path)
	assert.Equal(t, 30, cfg.Server.MinTextLength)
	assert.Equal(t, "cache:6379", cfg.Cache.Redis.Addr)
	assert.Equal(t, 4, cfg.Forest.Workers)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := defaultConfig()
	cfg.Forest.Trees = 11
	require.NoError(t, Save(path, cfg))
	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 11, loaded.Forest.Trees)
	assert.Equal(t, cfg.Dataset, loaded.Dataset)
}

func TestLoadDefaultWritesUserConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	oldWD, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(oldWD) })
	cfg, path, err := LoadDefault()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".config", "mbti", "config.yaml"), path)
	assert.Equal(t, 100, cfg.Forest.Trees)
	_, err = os.Stat(path)
	assert.NoError(t, err)
}
