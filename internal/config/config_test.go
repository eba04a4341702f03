package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, doc string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))
	return path
}

func TestLoadServerFile(t *testing.T) {
	path := writeConfig(t, `
addr: "127.0.0.1:9000"
database_file: "/var/lib/sk-anoncred/slots.db"
allow_main_channel: true
require_batch_attestation: false
`)

	cfg, err := LoadServerFile(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", cfg.Addr)
	assert.Equal(t, "/var/lib/sk-anoncred/slots.db", cfg.DatabaseFile)
	assert.True(t, cfg.AllowMainChannel)
	require.NotNil(t, cfg.RequireBatchAttestation)
	assert.False(t, *cfg.RequireBatchAttestation)
	assert.False(t, cfg.DisableUpgrade)
}

func TestLoadServerFileKeepsDefaults(t *testing.T) {
	path := writeConfig(t, "disable_upgrade: true\n")

	cfg, err := LoadServerFile(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultServer().Addr, cfg.Addr)
	assert.Empty(t, cfg.DatabaseFile)
	assert.True(t, cfg.DisableUpgrade)

	// Absent means "use the build default", not "false".
	assert.Nil(t, cfg.RequireBatchAttestation)
}

func TestLoadServerFileErrors(t *testing.T) {
	_, err := LoadServerFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := writeConfig(t, "addr: [not, a, string\n")
	_, err = LoadServerFile(path)
	assert.Error(t, err)
}
