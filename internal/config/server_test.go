package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/banshee-data/flightcompare/internal/reconcile"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestDefaultServerConfig(t *testing.T) {
	cfg := DefaultServerConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should be valid: %v", err)
	}
	if got := cfg.GetListen(); got != ":8000" {
		t.Errorf("GetListen() = %q, want :8000", got)
	}
	if got := cfg.GetCacheTTL(); got != 30*time.Minute {
		t.Errorf("GetCacheTTL() = %v, want 30m", got)
	}
	if got := cfg.GetMovingAverageWindow(); got != 10*time.Second {
		t.Errorf("GetMovingAverageWindow() = %v, want 10s", got)
	}
	if got := cfg.GetReconcileMode(); got != reconcile.ModeTwoPass {
		t.Errorf("GetReconcileMode() = %v, want two-pass", got)
	}
}

func TestGetterDefaults(t *testing.T) {
	cfg := &ServerConfig{}
	tests := []struct {
		name string
		got  interface{}
		want interface{}
	}{
		{"upload_dir", cfg.GetUploadDir(), "uploads"},
		{"samples_dir", cfg.GetSamplesDir(), "samples"},
		{"sample_file_a", cfg.GetSampleFileA(), "flight1_6.gpx"},
		{"sample_file_b", cfg.GetSampleFileB(), "flight1_17.gpx"},
		{"upload_max_mb", cfg.GetUploadMaxMB(), 32},
		{"upload_retention", cfg.GetUploadRetention(), 72 * time.Hour},
		{"db_path", cfg.GetDBPath(), "flightcompare.db"},
		{"log_file", cfg.GetLogFile(), ""},
		{"cache_capacity", cfg.GetCacheCapacity(), 64},
		{"speed_units", cfg.GetSpeedUnits(), "mps"},
		{"request_timeout", cfg.GetRequestTimeout(), 60 * time.Second},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
		}
	}
	if got := cfg.GetCORSOrigins(); len(got) != 1 || got[0] != "*" {
		t.Errorf("GetCORSOrigins() = %v, want [*]", got)
	}
}

func TestLoadServerConfigJSON(t *testing.T) {
	path := writeConfig(t, "server.json", `{
		"listen": "127.0.0.1:9000",
		"cache_ttl": "5m",
		"speed_units": "kt",
		"reconcile_mode": "early-hours"
	}`)

	cfg, err := LoadServerConfig(path)
	if err != nil {
		t.Fatalf("LoadServerConfig: %v", err)
	}
	if got := cfg.GetListen(); got != "127.0.0.1:9000" {
		t.Errorf("GetListen() = %q", got)
	}
	if got := cfg.GetCacheTTL(); got != 5*time.Minute {
		t.Errorf("GetCacheTTL() = %v, want 5m", got)
	}
	if got := cfg.GetSpeedUnits(); got != "kt" {
		t.Errorf("GetSpeedUnits() = %q, want kt", got)
	}
	if got := cfg.GetReconcileMode(); got != reconcile.ModeEarlyHoursOnly {
		t.Errorf("GetReconcileMode() = %v, want early-hours", got)
	}
	// Unset fields fall back to defaults.
	if got := cfg.GetUploadDir(); got != "uploads" {
		t.Errorf("GetUploadDir() = %q, want uploads", got)
	}
}

func TestLoadServerConfigYAML(t *testing.T) {
	path := writeConfig(t, "server.yaml", `
listen: ":8080"
moving_average_window: 5s
cors_origins:
  - http://localhost:3000
  - http://localhost:5173
`)

	cfg, err := LoadServerConfig(path)
	if err != nil {
		t.Fatalf("LoadServerConfig: %v", err)
	}
	if got := cfg.GetMovingAverageWindow(); got != 5*time.Second {
		t.Errorf("GetMovingAverageWindow() = %v, want 5s", got)
	}
	if got := cfg.GetCORSOrigins(); len(got) != 2 || got[1] != "http://localhost:5173" {
		t.Errorf("GetCORSOrigins() = %v", got)
	}
}

func TestLoadServerConfigMissing(t *testing.T) {
	if _, err := LoadServerConfig(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadServerConfigRejectsExtension(t *testing.T) {
	path := writeConfig(t, "server.toml", `listen = ":8000"`)
	_, err := LoadServerConfig(path)
	if err == nil || !strings.Contains(err.Error(), "extension") {
		t.Errorf("expected extension error, got %v", err)
	}
}

func TestLoadServerConfigRejectsLargeFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "big.json")
	if err := os.WriteFile(path, make([]byte, maxFileSize+1), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := LoadServerConfig(path)
	if err == nil || !strings.Contains(err.Error(), "too large") {
		t.Errorf("expected size error, got %v", err)
	}
}

func TestLoadServerConfigInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"listen": `},
		{"bad listen", `{"listen": "not a host"}`},
		{"bad duration", `{"cache_ttl": "soon"}`},
		{"negative duration", `{"request_timeout": "-1s"}`},
		{"bad units", `{"speed_units": "furlongs"}`},
		{"bad mode", `{"reconcile_mode": "sometimes"}`},
		{"zero capacity", `{"cache_capacity": 0}`},
		{"sample not gpx", `{"sample_file_a": "a.kml"}`},
		{"empty origin", `{"cors_origins": [""]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, "server.json", tt.body)
			if _, err := LoadServerConfig(path); err == nil {
				t.Errorf("expected error for %s", tt.body)
			}
		})
	}
}

func TestLoadExampleConfigFile(t *testing.T) {
	cfg := MustLoadExampleConfig()
	if got := cfg.GetListen(); got != "localhost:8000" {
		t.Errorf("example listen = %q", got)
	}
	if got := cfg.GetReconcileMode(); got != reconcile.ModeTwoPass {
		t.Errorf("example reconcile mode = %v", got)
	}
}
