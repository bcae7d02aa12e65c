package config

import (
	"github.com/dustin/go-humanize"
	"github.com/spf13/pflag"
)

// Flag names shared by RegisterFlags and ApplyFlags.
const (
	FlagConfig     = "config"
	FlagDataDir    = "data-dir"
	FlagBaseURL    = "base-url"
	FlagHTTPAddr   = "addr"
	FlagLogLevel   = "log-level"
	FlagLogFormat  = "log-format"
	FlagExpiry     = "default-expiry"
	FlagMaxAsset   = "max-asset-size"
	FlagImageMax   = "image-max-dimension"
	FlagImageQual  = "image-quality"
	flagURLMaxSize = "max-url-length"
)

// RegisterFlags defines the configuration flags on fs. Defaults shown in
// help text come from LoadDefaults.
func RegisterFlags(fs *pflag.FlagSet) {
	var d Config
	d.LoadDefaults()

	fs.StringP(FlagConfig, "c", "", "path to a JSON or YAML config file")
	fs.String(FlagDataDir, d.DataDir, "directory holding the database and asset payloads")
	fs.String(FlagBaseURL, d.BaseURL, "document URL share links are built on")
	fs.String(FlagHTTPAddr, d.HTTPAddr, "bind address of the local API")
	fs.String(FlagLogLevel, d.LogLevel, "log level (debug, info, warn, error)")
	fs.String(FlagLogFormat, d.LogFormat, "log format (text, json)")
	fs.Duration(FlagExpiry, d.DefaultLinkExpiry, "default lifetime of managed links")
	fs.String(FlagMaxAsset, humanize.Bytes(uint64(d.MaxAssetBytes)), "largest accepted asset payload")
	fs.Int(FlagImageMax, d.ImageMaxDimension, "long-edge limit for shared images, in pixels")
	fs.Int(FlagImageQual, d.ImageQuality, "JPEG quality for shared images (1-100)")
	fs.Int(flagURLMaxSize, d.MaxSnapshotURLLength, "URL length above which embedded links warn")
}

// ApplyFlags overlays cfg with the flags the user set explicitly.
func ApplyFlags(fs *pflag.FlagSet, cfg *Config) error {
	var err error
	fs.Visit(func(f *pflag.Flag) {
		if err != nil {
			return
		}
		switch f.Name {
		case FlagDataDir:
			cfg.DataDir, err = fs.GetString(f.Name)
		case FlagBaseURL:
			cfg.BaseURL, err = fs.GetString(f.Name)
		case FlagHTTPAddr:
			cfg.HTTPAddr, err = fs.GetString(f.Name)
		case FlagLogLevel:
			cfg.LogLevel, err = fs.GetString(f.Name)
		case FlagLogFormat:
			cfg.LogFormat, err = fs.GetString(f.Name)
		case FlagExpiry:
			cfg.DefaultLinkExpiry, err = fs.GetDuration(f.Name)
		case FlagImageMax:
			cfg.ImageMaxDimension, err = fs.GetInt(f.Name)
		case FlagImageQual:
			cfg.ImageQuality, err = fs.GetInt(f.Name)
		case flagURLMaxSize:
			cfg.MaxSnapshotURLLength, err = fs.GetInt(f.Name)
		case FlagMaxAsset:
			var n uint64
			if n, err = humanize.ParseBytes(f.Value.String()); err == nil {
				cfg.MaxAssetBytes = int64(n)
			}
		}
	})
	return err
}
