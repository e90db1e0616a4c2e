package config_test

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/dantte-lp/procheckd/internal/config"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()

	if cfg.Flash.Path == "" {
		t.Error("Flash.Path is empty")
	}

	if cfg.Loader.Capacity != 64 {
		t.Errorf("Loader.Capacity = %d, want 64", cfg.Loader.Capacity)
	}

	if cfg.Loader.MaxRetries != 3 {
		t.Errorf("Loader.MaxRetries = %d, want 3", cfg.Loader.MaxRetries)
	}

	if !cfg.Loader.PreferProgramHeader {
		t.Error("Loader.PreferProgramHeader = false, want true")
	}

	if !cfg.Loader.RequireCredentials {
		t.Error("Loader.RequireCredentials = false, want true")
	}

	if cfg.AdminAPI.Addr != ":8080" {
		t.Errorf("AdminAPI.Addr = %q, want %q", cfg.AdminAPI.Addr, ":8080")
	}

	if cfg.Metrics.Addr != ":9100" {
		t.Errorf("Metrics.Addr = %q, want %q", cfg.Metrics.Addr, ":9100")
	}

	if cfg.Metrics.Path != "/metrics" {
		t.Errorf("Metrics.Path = %q, want %q", cfg.Metrics.Path, "/metrics")
	}

	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, "info")
	}

	if cfg.Log.Format != "json" {
		t.Errorf("Log.Format = %q, want %q", cfg.Log.Format, "json")
	}

	// Defaults must pass validation.
	if err := config.Validate(cfg); err != nil {
		t.Errorf("DefaultConfig() failed validation: %v", err)
	}
}

func TestLoadFromYAML(t *testing.T) {
	t.Parallel()

	yamlContent := `
flash:
  path: "/mnt/flash0.img"
  base_address: 4096
loader:
  capacity: 16
  max_retries: 5
  prefer_program_header: false
  require_credentials: false
  ready_notify: false
adminapi:
  addr: ":9090"
metrics:
  addr: ":9200"
  path: "/custom-metrics"
log:
  level: "debug"
  format: "text"
`

	path := writeTemp(t, yamlContent)

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load(%q) error: %v", path, err)
	}

	if cfg.Flash.Path != "/mnt/flash0.img" {
		t.Errorf("Flash.Path = %q, want %q", cfg.Flash.Path, "/mnt/flash0.img")
	}

	if cfg.Flash.BaseAddress != 4096 {
		t.Errorf("Flash.BaseAddress = %d, want 4096", cfg.Flash.BaseAddress)
	}

	if cfg.Loader.Capacity != 16 {
		t.Errorf("Loader.Capacity = %d, want 16", cfg.Loader.Capacity)
	}

	if cfg.Loader.MaxRetries != 5 {
		t.Errorf("Loader.MaxRetries = %d, want 5", cfg.Loader.MaxRetries)
	}

	if cfg.Loader.PreferProgramHeader {
		t.Error("Loader.PreferProgramHeader = true, want false")
	}

	if cfg.Loader.RequireCredentials {
		t.Error("Loader.RequireCredentials = true, want false")
	}

	if cfg.AdminAPI.Addr != ":9090" {
		t.Errorf("AdminAPI.Addr = %q, want %q", cfg.AdminAPI.Addr, ":9090")
	}

	if cfg.Metrics.Addr != ":9200" {
		t.Errorf("Metrics.Addr = %q, want %q", cfg.Metrics.Addr, ":9200")
	}

	if cfg.Metrics.Path != "/custom-metrics" {
		t.Errorf("Metrics.Path = %q, want %q", cfg.Metrics.Path, "/custom-metrics")
	}

	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, "debug")
	}

	if cfg.Log.Format != "text" {
		t.Errorf("Log.Format = %q, want %q", cfg.Log.Format, "text")
	}
}

func TestLoadMergesDefaults(t *testing.T) {
	t.Parallel()

	// Partial YAML: only override flash.path and log.level.
	// Everything else should inherit from defaults.
	yamlContent := `
flash:
  path: "/mnt/flash1.img"
log:
  level: "warn"
`

	path := writeTemp(t, yamlContent)

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load(%q) error: %v", path, err)
	}

	// Overridden values.
	if cfg.Flash.Path != "/mnt/flash1.img" {
		t.Errorf("Flash.Path = %q, want %q", cfg.Flash.Path, "/mnt/flash1.img")
	}

	if cfg.Log.Level != "warn" {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, "warn")
	}

	// Default values should be preserved.
	if cfg.Loader.Capacity != 64 {
		t.Errorf("Loader.Capacity = %d, want default 64", cfg.Loader.Capacity)
	}

	if cfg.AdminAPI.Addr != ":8080" {
		t.Errorf("AdminAPI.Addr = %q, want default %q", cfg.AdminAPI.Addr, ":8080")
	}

	if cfg.Metrics.Addr != ":9100" {
		t.Errorf("Metrics.Addr = %q, want default %q", cfg.Metrics.Addr, ":9100")
	}

	if cfg.Log.Format != "json" {
		t.Errorf("Log.Format = %q, want default %q", cfg.Log.Format, "json")
	}
}

func TestValidateErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		modify  func(*config.Config)
		wantErr error
	}{
		{
			name: "empty flash path",
			modify: func(cfg *config.Config) {
				cfg.Flash.Path = ""
			},
			wantErr: config.ErrEmptyFlashPath,
		},
		{
			name: "zero capacity",
			modify: func(cfg *config.Config) {
				cfg.Loader.Capacity = 0
			},
			wantErr: config.ErrInvalidCapacity,
		},
		{
			name: "negative capacity",
			modify: func(cfg *config.Config) {
				cfg.Loader.Capacity = -1
			},
			wantErr: config.ErrInvalidCapacity,
		},
		{
			name: "negative max retries",
			modify: func(cfg *config.Config) {
				cfg.Loader.MaxRetries = -1
			},
			wantErr: config.ErrInvalidMaxRetries,
		},
		{
			name: "empty adminapi addr",
			modify: func(cfg *config.Config) {
				cfg.AdminAPI.Addr = ""
			},
			wantErr: config.ErrEmptyAdminAPIAddr,
		},
		{
			name: "empty metrics addr",
			modify: func(cfg *config.Config) {
				cfg.Metrics.Addr = ""
			},
			wantErr: config.ErrEmptyMetricsAddr,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := config.DefaultConfig()
			tt.modify(cfg)

			err := config.Validate(cfg)
			if err == nil {
				t.Fatal("Validate() returned nil, want error")
			}

			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  slog.Level
	}{
		{input: "debug", want: slog.LevelDebug},
		{input: "DEBUG", want: slog.LevelDebug},
		{input: "info", want: slog.LevelInfo},
		{input: "INFO", want: slog.LevelInfo},
		{input: "warn", want: slog.LevelWarn},
		{input: "WARN", want: slog.LevelWarn},
		{input: "error", want: slog.LevelError},
		{input: "Error", want: slog.LevelError},
		{input: "unknown", want: slog.LevelInfo},
		{input: "", want: slog.LevelInfo},
		{input: "trace", want: slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			got := config.ParseLogLevel(tt.input)
			if got != tt.want {
				t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestLoadNonexistentFile(t *testing.T) {
	t.Parallel()

	_, err := config.Load("/nonexistent/path/config.yml")
	if err == nil {
		t.Fatal("Load() returned nil error for nonexistent file")
	}
}

func TestLoadWithTrustedKeysAndHashes(t *testing.T) {
	t.Parallel()

	yamlContent := `
flash:
  path: "/mnt/flash0.img"
verifier:
  trusted_key_moduli:
    - "deadbeef"
    - "cafebabe"
  allowed_hashes:
    - "0123456789abcdef"
`

	path := writeTemp(t, yamlContent)

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load(%q) error: %v", path, err)
	}

	if len(cfg.Verifier.TrustedKeyModuli) != 2 {
		t.Fatalf("TrustedKeyModuli count = %d, want 2", len(cfg.Verifier.TrustedKeyModuli))
	}

	if cfg.Verifier.TrustedKeyModuli[0] != "deadbeef" {
		t.Errorf("TrustedKeyModuli[0] = %q, want %q", cfg.Verifier.TrustedKeyModuli[0], "deadbeef")
	}

	if len(cfg.Verifier.AllowedHashes) != 1 {
		t.Fatalf("AllowedHashes count = %d, want 1", len(cfg.Verifier.AllowedHashes))
	}
}

// -------------------------------------------------------------------------
// Environment Variable Override Tests
// -------------------------------------------------------------------------

func TestLoadEnvOverrides(t *testing.T) {
	// Environment variable tests cannot be parallel because they modify
	// process-wide state (os.Setenv).

	yamlContent := `
flash:
  path: "/mnt/flash0.img"
log:
  level: "info"
`
	path := writeTemp(t, yamlContent)

	t.Setenv("GOPROCHECKD_FLASH_PATH", "/mnt/flash-override.img")
	t.Setenv("GOPROCHECKD_LOG_LEVEL", "debug")

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load(%q) error: %v", path, err)
	}

	if cfg.Flash.Path != "/mnt/flash-override.img" {
		t.Errorf("Flash.Path = %q, want %q (from env)", cfg.Flash.Path, "/mnt/flash-override.img")
	}

	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want %q (from env)", cfg.Log.Level, "debug")
	}
}

func TestLoadEnvOverridesMetrics(t *testing.T) {
	yamlContent := `
flash:
  path: "/mnt/flash0.img"
metrics:
  addr: ":9100"
  path: "/metrics"
`
	path := writeTemp(t, yamlContent)

	t.Setenv("GOPROCHECKD_METRICS_ADDR", ":9200")
	t.Setenv("GOPROCHECKD_METRICS_PATH", "/custom")

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load(%q) error: %v", path, err)
	}

	if cfg.Metrics.Addr != ":9200" {
		t.Errorf("Metrics.Addr = %q, want %q (from env)", cfg.Metrics.Addr, ":9200")
	}

	if cfg.Metrics.Path != "/custom" {
		t.Errorf("Metrics.Path = %q, want %q (from env)", cfg.Metrics.Path, "/custom")
	}
}

// writeTemp creates a temporary YAML file and returns its path.
// The file is automatically cleaned up when the test finishes.
func writeTemp(t *testing.T, content string) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "procheckd.yml")

	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write temp file: %v", err)
	}

	return path
}
