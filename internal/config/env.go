package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"
)

const envPrefix = "SHAREVAULT_"

var lookupEnv = os.LookupEnv

// loadDotEnv loads path into the process environment when it exists.
// Variables already set are left untouched.
func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// parseEnv overlays cfg with SHAREVAULT_* variables.
func parseEnv(cfg *Config, lookup func(string) (string, bool)) error {
	var errs []error

	str := func(name string, dst *string) {
		if v, ok := lookup(envPrefix + name); ok {
			*dst = v
		}
	}
	num := func(name string, dst *int) {
		if v, ok := lookup(envPrefix + name); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", envPrefix, name, err))
				return
			}
			*dst = n
		}
	}
	dur := func(name string, dst *time.Duration) {
		if v, ok := lookup(envPrefix + name); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", envPrefix, name, err))
				return
			}
			*dst = d
		}
	}

	str("DATA_DIR", &cfg.DataDir)
	str("DATABASE_FILE", &cfg.DatabaseFile)
	str("BASE_URL", &cfg.BaseURL)
	dur("DEFAULT_LINK_EXPIRY", &cfg.DefaultLinkExpiry)
	dur("MAX_LINK_LIFETIME", &cfg.MaxLinkLifetime)
	num("MAX_SNAPSHOT_URL_LENGTH", &cfg.MaxSnapshotURLLength)
	dur("SWEEP_INTERVAL", &cfg.SweepInterval)
	num("IMAGE_MAX_DIMENSION", &cfg.ImageMaxDimension)
	num("IMAGE_QUALITY", &cfg.ImageQuality)
	num("SETTINGS_BACKUP_RETENTION", &cfg.SettingsBackupRetention)
	str("HTTP_ADDR", &cfg.HTTPAddr)
	str("LOG_LEVEL", &cfg.LogLevel)
	str("LOG_FORMAT", &cfg.LogFormat)

	if v, ok := lookup(envPrefix + "MAX_ASSET_BYTES"); ok {
		n, err := humanize.ParseBytes(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sMAX_ASSET_BYTES: %w", envPrefix, err))
		} else {
			cfg.MaxAssetBytes = int64(n)
		}
	}

	return errors.Join(errs...)
}
