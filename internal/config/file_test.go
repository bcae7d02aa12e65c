package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, dir, name string, data map[string]any) string {
	t.Helper()
	if dir == "" {
		dir = t.TempDir()
	}
	if name == "" {
		name = "cfg.json"
	}
	path := filepath.Join(dir, name)
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseFile_JSON(t *testing.T) {
	path := writeTempJSON(t, "", "", map[string]any{
		"base_url":            "https://deck.example.com/",
		"default_link_expiry": "72h",
		"sweep_interval":      int64(30 * time.Second),
		"max_asset_bytes":     "2MB",
	})

	var cfg Config
	cfg.LoadDefaults()
	require.NoError(t, parseFile(&cfg, path))

	assert.Equal(t, "https://deck.example.com/", cfg.BaseURL)
	assert.Equal(t, 72*time.Hour, cfg.DefaultLinkExpiry)
	assert.Equal(t, 30*time.Second, cfg.SweepInterval)
	assert.Equal(t, int64(2_000_000), cfg.MaxAssetBytes)
	// untouched keys keep their defaults
	assert.Equal(t, 72, cfg.ImageQuality)
}

func Test_parseFile_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yml")
	body := "data_dir: /srv/sv\nmax_link_lifetime: 240h\nmax_asset_bytes: 1048576\nlog_format: json\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	var cfg Config
	cfg.LoadDefaults()
	require.NoError(t, parseFile(&cfg, path))

	assert.Equal(t, "/srv/sv", cfg.DataDir)
	assert.Equal(t, 240*time.Hour, cfg.MaxLinkLifetime)
	assert.Equal(t, int64(1048576), cfg.MaxAssetBytes)
	assert.Equal(t, "json", cfg.LogFormat)
}

func Test_parseFile_Errors(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{ this is not valid json`), 0o600))

	toml := filepath.Join(dir, "cfg.toml")
	require.NoError(t, os.WriteFile(toml, []byte(`a = 1`), 0o600))

	badDur := writeTempJSON(t, dir, "dur.json", map[string]any{"sweep_interval": true})

	var cfg Config
	assert.Error(t, parseFile(&cfg, bad))
	assert.ErrorContains(t, parseFile(&cfg, toml), "unsupported")
	assert.Error(t, parseFile(&cfg, badDur))
}
