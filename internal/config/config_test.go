package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFile)

	cfg := Default()
	cfg.Dirs.Input = "incoming"
	cfg.Limits.MaxTextBytes = 1 << 20
	cfg.RulesFile = "rules.yaml"
	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorContains(t, err, "reading config")
}

func TestLoad_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFile)
	require.NoError(t, os.WriteFile(path, []byte("dirs: ["), 0o644))

	_, err := Load(path)
	assert.ErrorContains(t, err, "parsing config")
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "statements", cfg.Dirs.Input)
	assert.Equal(t, "out", cfg.Dirs.Output)
	assert.Equal(t, "vault.json", cfg.Vault.Store)
	assert.Equal(t, "vault.key", cfg.Vault.Key)
	assert.Zero(t, cfg.Limits.MaxTextBytes, "no text limit override by default")
}
