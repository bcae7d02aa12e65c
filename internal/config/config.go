package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
)

// Config holds runtime settings for the sharevault CLI and local API.
type Config struct {
	DataDir      string
	DatabaseFile string

	// BaseURL is the document URL share links are built on.
	BaseURL              string
	DefaultLinkExpiry    time.Duration
	MaxLinkLifetime      time.Duration
	MaxSnapshotURLLength int
	SweepInterval        time.Duration

	ImageMaxDimension int
	ImageQuality      int
	MaxAssetBytes     int64

	SettingsBackupRetention int

	HTTPAddr  string
	LogLevel  string
	LogFormat string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.DataDir = "./.sharevault"
	c.DatabaseFile = "vault.db"
	c.BaseURL = "http://localhost:8080/"
	c.DefaultLinkExpiry = 7 * 24 * time.Hour
	c.MaxLinkLifetime = 30 * 24 * time.Hour
	c.MaxSnapshotURLLength = 1800
	c.SweepInterval = time.Minute
	c.ImageMaxDimension = 1200
	c.ImageQuality = 72
	c.MaxAssetBytes = 25 * humanize.MByte
	c.SettingsBackupRetention = 5
	c.HTTPAddr = ":8080"
	c.LogLevel = "info"
	c.LogFormat = "text"
}

// DatabasePath returns the SQLite file location. An absolute DatabaseFile
// or ":memory:" is returned as is.
func (c *Config) DatabasePath() string {
	if c.DatabaseFile == ":memory:" || filepath.IsAbs(c.DatabaseFile) {
		return c.DatabaseFile
	}
	return filepath.Join(c.DataDir, c.DatabaseFile)
}

// BlobDir returns the directory holding asset payload files.
func (c *Config) BlobDir() string {
	return filepath.Join(c.DataDir, "blobs")
}

// Validate reports the first setting that cannot be used.
func (c *Config) Validate() error {
	var errs []error
	if c.DataDir == "" {
		errs = append(errs, errors.New("data dir must not be empty"))
	}
	if c.DefaultLinkExpiry < 0 {
		errs = append(errs, fmt.Errorf("default link expiry must not be negative, got %s", c.DefaultLinkExpiry))
	}
	if c.MaxLinkLifetime <= 0 {
		errs = append(errs, fmt.Errorf("max link lifetime must be positive, got %s", c.MaxLinkLifetime))
	}
	if c.SweepInterval <= 0 {
		errs = append(errs, fmt.Errorf("sweep interval must be positive, got %s", c.SweepInterval))
	}
	if c.ImageMaxDimension <= 0 {
		errs = append(errs, fmt.Errorf("image max dimension must be positive, got %d", c.ImageMaxDimension))
	}
	if c.ImageQuality < 1 || c.ImageQuality > 100 {
		errs = append(errs, fmt.Errorf("image quality must be within 1..100, got %d", c.ImageQuality))
	}
	if c.MaxAssetBytes <= 0 {
		errs = append(errs, fmt.Errorf("max asset bytes must be positive, got %d", c.MaxAssetBytes))
	}
	if c.SettingsBackupRetention < 1 {
		errs = append(errs, fmt.Errorf("settings backup retention must be at least 1, got %d", c.SettingsBackupRetention))
	}
	return errors.Join(errs...)
}

// Load builds a Config from defaults, the optional file at path and the
// environment. Flags are applied separately by ApplyFlags.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if path != "" {
		if err := parseFile(cfg, path); err != nil {
			return nil, err
		}
	}

	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}
	if err := parseEnv(cfg, lookupEnv); err != nil {
		return nil, err
	}

	return cfg, nil
}
