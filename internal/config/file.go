package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// fileConfig is a DTO used exclusively for file unmarshalling. Pointer
// fields tell "absent" apart from zero values so a file can override only
// some settings.
type fileConfig struct {
	DataDir                 *string   `json:"data_dir" yaml:"data_dir"`
	DatabaseFile            *string   `json:"database_file" yaml:"database_file"`
	BaseURL                 *string   `json:"base_url" yaml:"base_url"`
	DefaultLinkExpiry       *Duration `json:"default_link_expiry" yaml:"default_link_expiry"`
	MaxLinkLifetime         *Duration `json:"max_link_lifetime" yaml:"max_link_lifetime"`
	MaxSnapshotURLLength    *int      `json:"max_snapshot_url_length" yaml:"max_snapshot_url_length"`
	SweepInterval           *Duration `json:"sweep_interval" yaml:"sweep_interval"`
	ImageMaxDimension       *int      `json:"image_max_dimension" yaml:"image_max_dimension"`
	ImageQuality            *int      `json:"image_quality" yaml:"image_quality"`
	MaxAssetBytes           *ByteSize `json:"max_asset_bytes" yaml:"max_asset_bytes"`
	SettingsBackupRetention *int      `json:"settings_backup_retention" yaml:"settings_backup_retention"`
	HTTPAddr                *string   `json:"http_addr" yaml:"http_addr"`
	LogLevel                *string   `json:"log_level" yaml:"log_level"`
	LogFormat               *string   `json:"log_format" yaml:"log_format"`
}

// parseFile overlays cfg with the values present in the file at path.
func parseFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		err = json.Unmarshal(data, &fc)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &fc)
	default:
		return fmt.Errorf("unsupported config file extension %q", ext)
	}
	if err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	fc.apply(cfg)
	return nil
}

func (fc *fileConfig) apply(cfg *Config) {
	setIf(&cfg.DataDir, fc.DataDir)
	setIf(&cfg.DatabaseFile, fc.DatabaseFile)
	setIf(&cfg.BaseURL, fc.BaseURL)
	setIf(&cfg.MaxSnapshotURLLength, fc.MaxSnapshotURLLength)
	setIf(&cfg.ImageMaxDimension, fc.ImageMaxDimension)
	setIf(&cfg.ImageQuality, fc.ImageQuality)
	setIf(&cfg.SettingsBackupRetention, fc.SettingsBackupRetention)
	setIf(&cfg.HTTPAddr, fc.HTTPAddr)
	setIf(&cfg.LogLevel, fc.LogLevel)
	setIf(&cfg.LogFormat, fc.LogFormat)

	if fc.DefaultLinkExpiry != nil {
		cfg.DefaultLinkExpiry = fc.DefaultLinkExpiry.Duration
	}
	if fc.MaxLinkLifetime != nil {
		cfg.MaxLinkLifetime = fc.MaxLinkLifetime.Duration
	}
	if fc.SweepInterval != nil {
		cfg.SweepInterval = fc.SweepInterval.Duration
	}
	if fc.MaxAssetBytes != nil {
		cfg.MaxAssetBytes = int64(*fc.MaxAssetBytes)
	}
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}
