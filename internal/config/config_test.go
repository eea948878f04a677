package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir()) // no config.yaml present

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "data/cnpj.db", cfg.Registry.Path)
	assert.Equal(t, 50000, cfg.Registry.BatchSize)
	assert.Equal(t, "sqlite", cfg.Leads.Driver)
	assert.InDelta(t, 0.6, cfg.Matcher.SimilarityThreshold, 1e-9)
	assert.Equal(t, 20, cfg.Matcher.MaxCandidates)
	assert.Equal(t, 20, cfg.Receita.IntervalSecs)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadFromFile(t *testing.T) {
	t.Chdir(t.TempDir())

	yaml := []byte("registry:\n  path: /srv/registry.db\nmatcher:\n  similarity_threshold: 0.75\nlog:\n  level: debug\n")
	require.NoError(t, os.WriteFile("config.yaml", yaml, 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/srv/registry.db", cfg.Registry.Path)
	assert.InDelta(t, 0.75, cfg.Matcher.SimilarityThreshold, 1e-9)
	assert.Equal(t, "debug", cfg.Log.Level)
	// Untouched keys keep their defaults.
	assert.Equal(t, 20, cfg.Matcher.MaxCandidates)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PROSPECTOR_LEADS_DRIVER", "postgres")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Leads.Driver)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	assert.NoError(t, err)
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	assert.NoError(t, err)
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "loud", Format: "json"})
	assert.Error(t, err)
}
