// Package config manages procheckd daemon configuration using koanf/v2.
//
// Supports YAML files and environment variables layered over defaults.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// -------------------------------------------------------------------------
// Configuration Structures
// -------------------------------------------------------------------------

// Config holds the complete procheckd configuration.
type Config struct {
	Flash    FlashConfig    `koanf:"flash"`
	Loader   LoaderConfig   `koanf:"loader"`
	Verifier VerifierConfig `koanf:"verifier"`
	AdminAPI AdminAPIConfig `koanf:"adminapi"`
	Metrics  MetricsConfig  `koanf:"metrics"`
	Log      LogConfig      `koanf:"log"`
}

// FlashConfig describes the flash image the Process-Load Driver scans.
type FlashConfig struct {
	// Path is the flash image file mmap'd read-only by internal/flash.
	Path string `koanf:"path"`
	// BaseAddress is the flash address of the first byte of Path, used to
	// label slots with their real address for the Arbiter's tie-break.
	BaseAddress int64 `koanf:"base_address"`
}

// LoaderConfig describes the Process-Load Driver's slot table and policy.
type LoaderConfig struct {
	// Capacity is the fixed slot-table size.
	Capacity int `koanf:"capacity"`
	// MaxRetries bounds verifier Error retries before folding to Reject.
	MaxRetries int `koanf:"max_retries"`
	// PreferProgramHeader selects which header's binary_end_offset wins
	// when both a Main Header and a Program Header are present.
	PreferProgramHeader bool `koanf:"prefer_program_header"`
	// RequireCredentials selects the credentials checking policy consulted
	// on Exhausted: true is StrictPolicy, false is PermissivePolicy.
	RequireCredentials bool `koanf:"require_credentials"`
	// ReadyNotify enables the post-Promote sd_notify readiness signal.
	ReadyNotify bool `koanf:"ready_notify"`
}

// VerifierConfig configures the reference RSAVerifier's trust material.
type VerifierConfig struct {
	// TrustedKeyModuli are hex-encoded RSA modulus bytes, trusted for
	// Rsa3072Key/Rsa4096Key-family credentials.
	TrustedKeyModuli []string `koanf:"trusted_key_moduli"`
	// AllowedHashes are hex-encoded digests accepted by SHA256/384/512
	// credentials.
	AllowedHashes []string `koanf:"allowed_hashes"`
}

// AdminAPIConfig holds the read-only admin HTTP API configuration.
type AdminAPIConfig struct {
	// Addr is the HTTP listen address (e.g., ":8080").
	Addr string `koanf:"addr"`
}

// MetricsConfig holds the Prometheus metrics endpoint configuration.
type MetricsConfig struct {
	// Addr is the HTTP listen address for the metrics endpoint (e.g., ":9100").
	Addr string `koanf:"addr"`
	// Path is the URL path for the metrics endpoint (e.g., "/metrics").
	Path string `koanf:"path"`
}

// LogConfig holds the logging configuration.
type LogConfig struct {
	// Level is the log level: "debug", "info", "warn", "error".
	Level string `koanf:"level"`
	// Format is the log output format: "json" or "text".
	Format string `koanf:"format"`
}

// -------------------------------------------------------------------------
// Defaults
// -------------------------------------------------------------------------

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Flash: FlashConfig{
			Path:        "/var/lib/procheckd/flash.img",
			BaseAddress: 0,
		},
		Loader: LoaderConfig{
			Capacity:            64,
			MaxRetries:          3,
			PreferProgramHeader: true,
			RequireCredentials:  true,
			ReadyNotify:         true,
		},
		AdminAPI: AdminAPIConfig{
			Addr: ":8080",
		},
		Metrics: MetricsConfig{
			Addr: ":9100",
			Path: "/metrics",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// -------------------------------------------------------------------------
// Loader
// -------------------------------------------------------------------------

// envPrefix is the environment variable prefix for procheckd configuration.
// Variables are named GOPROCHECKD_<section>_<key>, e.g.,
// GOPROCHECKD_LOADER_CAPACITY.
const envPrefix = "GOPROCHECKD_"

// Load reads configuration from a YAML file at path, overlays environment
// variable overrides (GOPROCHECKD_ prefix), and merges on top of
// DefaultConfig(). Missing fields inherit defaults.
//
// Environment variable mapping:
//
//	GOPROCHECKD_FLASH_PATH           -> flash.path
//	GOPROCHECKD_LOADER_CAPACITY      -> loader.capacity
//	GOPROCHECKD_ADMINAPI_ADDR        -> adminapi.addr
//	GOPROCHECKD_METRICS_ADDR         -> metrics.addr
//	GOPROCHECKD_LOG_LEVEL            -> log.level
//
// Uses koanf/v2 with file + env providers and YAML parser.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	defaults := DefaultConfig()
	if err := loadDefaults(k, defaults); err != nil {
		return nil, fmt.Errorf("load config defaults: %w", err)
	}

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("load config from %s: %w", path, err)
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKeyMapper), nil); err != nil {
		return nil, fmt.Errorf("load env overrides: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validate config from %s: %w", path, err)
	}

	return cfg, nil
}

// envKeyMapper transforms GOPROCHECKD_LOADER_CAPACITY -> loader.capacity.
// Strips the GOPROCHECKD_ prefix, lowercases, and replaces _ with .
func envKeyMapper(s string) string {
	s = strings.TrimPrefix(s, envPrefix)
	s = strings.ToLower(s)
	return strings.ReplaceAll(s, "_", ".")
}

// loadDefaults marshals the default config into koanf as the base layer.
func loadDefaults(k *koanf.Koanf, defaults *Config) error {
	defaultMap := map[string]any{
		"flash.path":                   defaults.Flash.Path,
		"flash.base_address":           defaults.Flash.BaseAddress,
		"loader.capacity":              defaults.Loader.Capacity,
		"loader.max_retries":           defaults.Loader.MaxRetries,
		"loader.prefer_program_header": defaults.Loader.PreferProgramHeader,
		"loader.require_credentials":   defaults.Loader.RequireCredentials,
		"loader.ready_notify":          defaults.Loader.ReadyNotify,
		"adminapi.addr":                defaults.AdminAPI.Addr,
		"metrics.addr":                 defaults.Metrics.Addr,
		"metrics.path":                 defaults.Metrics.Path,
		"log.level":                    defaults.Log.Level,
		"log.format":                   defaults.Log.Format,
	}

	for key, val := range defaultMap {
		if err := k.Set(key, val); err != nil {
			return fmt.Errorf("set default %s: %w", key, err)
		}
	}

	return nil
}

// -------------------------------------------------------------------------
// Validation
// -------------------------------------------------------------------------

// Validation errors.
var (
	// ErrEmptyFlashPath indicates no flash image path was configured.
	ErrEmptyFlashPath = errors.New("flash.path must not be empty")

	// ErrInvalidCapacity indicates the slot-table capacity is non-positive.
	ErrInvalidCapacity = errors.New("loader.capacity must be >= 1")

	// ErrInvalidMaxRetries indicates a negative retry bound.
	ErrInvalidMaxRetries = errors.New("loader.max_retries must be >= 0")

	// ErrEmptyAdminAPIAddr indicates the admin API listen address is empty.
	ErrEmptyAdminAPIAddr = errors.New("adminapi.addr must not be empty")

	// ErrEmptyMetricsAddr indicates the metrics listen address is empty.
	ErrEmptyMetricsAddr = errors.New("metrics.addr must not be empty")
)

// Validate checks the configuration for logical errors.
// Returns the first validation error encountered.
func Validate(cfg *Config) error {
	if cfg.Flash.Path == "" {
		return ErrEmptyFlashPath
	}

	if cfg.Loader.Capacity < 1 {
		return ErrInvalidCapacity
	}

	if cfg.Loader.MaxRetries < 0 {
		return ErrInvalidMaxRetries
	}

	if cfg.AdminAPI.Addr == "" {
		return ErrEmptyAdminAPIAddr
	}

	if cfg.Metrics.Addr == "" {
		return ErrEmptyMetricsAddr
	}

	return nil
}

// -------------------------------------------------------------------------
// Log Level Parsing
// -------------------------------------------------------------------------

// ParseLogLevel maps a configuration log level string to the corresponding
// slog.Level. Unknown values default to slog.LevelInfo.
//
// Recognized values: "debug", "info", "warn", "error" (case-insensitive).
func ParseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
