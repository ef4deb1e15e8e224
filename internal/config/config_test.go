package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, FileConfig{}, cfg)

	_, err = LoadConfig("")
	require.Error(t, err)
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[engine]
seed = 42

[amsler]
eye = "left"
blink-interval-ms = 2500
blink-probability = 0.5

[observer]
php-threshold = 0.1
scotoma = ["2,2", "1,3"]

[log]
level = "debug"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.NotNil(t, cfg.Engine.Seed)
	assert.Equal(t, int64(42), *cfg.Engine.Seed)
	require.NotNil(t, cfg.Amsler.Eye)
	assert.Equal(t, "left", *cfg.Amsler.Eye)
	require.NotNil(t, cfg.Amsler.BlinkIntervalMs)
	assert.Equal(t, 2500, *cfg.Amsler.BlinkIntervalMs)
	assert.Nil(t, cfg.Amsler.BlinkDurationMs)
	require.NotNil(t, cfg.Observer.Scotoma)
	assert.Equal(t, []string{"2,2", "1,3"}, *cfg.Observer.Scotoma)
	require.NotNil(t, cfg.Log.Level)
	assert.Equal(t, "debug", *cfg.Log.Level)
	assert.Nil(t, cfg.Reading.Sentences)
}

func TestLoadConfigRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[amsler]\nblink = 3\n"), 0o644))
	_, err := LoadConfig(path)
	require.ErrorContains(t, err, "amsler.blink")
}

func TestLoadConfigRejectsBadToml(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[engine\n"), 0o644))
	_, err := LoadConfig(path)
	require.ErrorContains(t, err, "failed to decode config")
}

func TestDefaultPathsFollowXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/cfg")
	t.Setenv("XDG_STATE_HOME", "/tmp/state")
	assert.Equal(t, filepath.Join("/tmp/cfg", "macula", "config.toml"), DefaultConfigPath())
	assert.Equal(t, filepath.Join("/tmp/cfg", "macula", "sentences.txt"), DefaultSentencesPath())
	assert.Equal(t, filepath.Join("/tmp/state", "macula", "macula.log"), DefaultLogPath())
}
