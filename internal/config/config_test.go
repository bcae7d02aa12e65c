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
	var c Config
	c.LoadDefaults()

	assert.Equal(t, "./.sharevault", c.DataDir)
	assert.Equal(t, 7*24*time.Hour, c.DefaultLinkExpiry)
	assert.Equal(t, 30*24*time.Hour, c.MaxLinkLifetime)
	assert.Equal(t, 1800, c.MaxSnapshotURLLength)
	assert.Equal(t, 1200, c.ImageMaxDimension)
	assert.Equal(t, 72, c.ImageQuality)
	assert.Equal(t, int64(25_000_000), c.MaxAssetBytes)
	assert.Equal(t, 5, c.SettingsBackupRetention)
	require.NoError(t, c.Validate())
}

func TestConfig_Paths(t *testing.T) {
	c := Config{DataDir: "/var/sv", DatabaseFile: "vault.db"}
	assert.Equal(t, filepath.Join("/var/sv", "vault.db"), c.DatabasePath())
	assert.Equal(t, filepath.Join("/var/sv", "blobs"), c.BlobDir())

	c.DatabaseFile = ":memory:"
	assert.Equal(t, ":memory:", c.DatabasePath())

	c.DatabaseFile = "/tmp/other.db"
	assert.Equal(t, "/tmp/other.db", c.DatabasePath())
}

func TestValidate_ReportsAllProblems(t *testing.T) {
	var c Config
	c.LoadDefaults()
	c.ImageQuality = 0
	c.MaxLinkLifetime = 0

	err := c.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "image quality")
	assert.Contains(t, err.Error(), "max link lifetime")
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte("base_url: https://file.example/\nimage_quality: 50\n"), 0o600))

	t.Setenv("SHAREVAULT_IMAGE_QUALITY", "90")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://file.example/", cfg.BaseURL)
	assert.Equal(t, 90, cfg.ImageQuality)
	assert.Equal(t, 1200, cfg.ImageMaxDimension)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
}
