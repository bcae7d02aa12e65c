// Package config loads runtime configuration for sharevault.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional config file given with --config. The format is chosen by
//     extension: .json, .yaml or .yml.
//  3. Environment variables prefixed with SHAREVAULT_. A .env file in the
//     working directory is loaded first and never overrides the real
//     environment.
//  4. Command-line flags registered with RegisterFlags, applied only when
//     the user actually set them.
//
// Durations accept strings like "72h" or integer nanoseconds. Byte sizes
// accept integers or human-readable strings like "25MB".
//
// Example YAML:
//
//	data_dir: ~/.sharevault
//	base_url: https://deck.example.com/
//	default_link_expiry: 168h
//	max_asset_bytes: 25MB
//	log_format: json
package config
