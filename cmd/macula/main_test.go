package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/macula/internal/config"
	"github.com/verte-zerg/macula/internal/engine"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_STATE_HOME", t.TempDir())
	return executeInEnv(t, args...)
}

func executeInEnv(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeConfig(t *testing.T, body string) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("XDG_STATE_HOME", t.TempDir())
	path := config.DefaultConfigPath()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func TestTestsCommandListsEveryKind(t *testing.T) {
	out, err := execute(t, "tests")
	require.NoError(t, err)
	for _, name := range []string{"amsler", "php", "sdh", "mchart", "central-field", "reading"} {
		assert.Contains(t, out, name)
	}
	assert.Contains(t, out, "Reading speed")
}

func TestSimulateSdhPerfectObserver(t *testing.T) {
	out, err := execute(t, "simulate", "sdh", "--seed", "7", "--lapse", "0", "--sdh-sensitivity", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Correct: 20/20")
	assert.Contains(t, out, "Score: 100%")
}

func TestSimulateCentralFieldScotoma(t *testing.T) {
	out, err := execute(t, "simulate", "central", "--seed", "3", "--lapse", "0", "--scotoma", "2,2", "--scotoma", "0,4")
	require.NoError(t, err)
	assert.Contains(t, out, "Seen: 23/25")
}

func TestSimulateStaircasesReportThreshold(t *testing.T) {
	for _, test := range []string{"php", "mchart"} {
		out, err := execute(t, "simulate", test, "--seed", "11", "--width", "40")
		require.NoError(t, err, test)
		assert.Contains(t, out, "staircase", test)
		assert.Contains(t, out, "Threshold", test)
	}
}

func TestSimulateAmslerAndReading(t *testing.T) {
	out, err := execute(t, "simulate", "amsler", "--seed", "5", "--eye", "left", "--scotoma", "1,1")
	require.NoError(t, err)
	assert.Contains(t, out, "Amsler grid (LEFT eye)")

	out, err = execute(t, "simulate", "reading", "--seed", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "Sentences read: 4/4")
}

func TestSimulateUsesConfigFile(t *testing.T) {
	writeConfig(t, "[observer]\nlapse = 0.0\nsdh-sensitivity = 1.0\n")
	out, err := executeInEnv(t, "simulate", "sdh", "--seed", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Correct: 20/20")
}

func TestFlagsOverrideConfigFile(t *testing.T) {
	writeConfig(t, "[observer]\nlapse = 0.0\nsdh-sensitivity = 1.0\n")
	out, err := executeInEnv(t, "simulate", "sdh", "--seed", "1", "--sdh-sensitivity", "0")
	require.NoError(t, err)
	assert.Contains(t, out, "Correct: 0/20")
}

func TestSimulateRejectsBadInput(t *testing.T) {
	_, err := execute(t, "simulate", "snellen")
	require.ErrorIs(t, err, engine.ErrUnknownTest)

	_, err = execute(t, "simulate", "amsler", "--eye", "both")
	require.Error(t, err)

	_, err = execute(t, "simulate", "amsler", "--blink-probability", "1.5")
	require.Error(t, err)

	_, err = execute(t, "simulate", "central", "--scotoma", "x")
	require.Error(t, err)

	writeConfig(t, "[observer]\nunknown = 1\n")
	_, err = executeInEnv(t, "simulate", "sdh")
	require.Error(t, err)
}

func TestRunOnlySupportsReading(t *testing.T) {
	_, err := execute(t, "run", "php")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "macula simulate php")
}

func TestResolveSentencesFallsBackToDefault(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	readingSentences = ""
	corpus, err := resolveSentences(config.FileConfig{})
	require.NoError(t, err)
	assert.Len(t, corpus, 4)

	readingSentences = filepath.Join(t.TempDir(), "missing.txt")
	defer func() { readingSentences = "" }()
	_, err = resolveSentences(config.FileConfig{})
	require.Error(t, err)
}

func TestResolveSentencesReadsDefaultPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	readingSentences = ""
	path := config.DefaultSentencesPath()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("one two three\n"), 0o644))

	corpus, err := resolveSentences(config.FileConfig{})
	require.NoError(t, err)
	require.Len(t, corpus, 1)
	assert.Equal(t, 3, corpus[0].WordCount)
}

func TestEnsureConfigFileWritesTemplateOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "macula", "config.toml")
	require.NoError(t, ensureConfigFile(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[amsler]")
	assert.Contains(t, string(data), "[observer]")

	require.NoError(t, os.WriteFile(path, []byte("[log]\n"), 0o644))
	require.NoError(t, ensureConfigFile(path))
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[log]\n", string(data))
}

func TestConfigTemplateDecodesWhenUncommented(t *testing.T) {
	var b strings.Builder
	for _, line := range strings.Split(defaultConfigTemplate(), "\n") {
		if strings.HasPrefix(line, "# ") && strings.Contains(line, " = ") {
			line = strings.TrimPrefix(line, "# ")
		}
		b.WriteString(line + "\n")
	}
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)
	require.NotNil(t, cfg.Amsler.BlinkIntervalMs)
	assert.Equal(t, 3000, *cfg.Amsler.BlinkIntervalMs)
	require.NotNil(t, cfg.Observer.Scotoma)
	assert.Equal(t, []string{"2,2"}, *cfg.Observer.Scotoma)
}
