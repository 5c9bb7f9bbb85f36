package config

import (
	"os"
	"path/filepath"
	"testing"
)

// TestDefaultConfig verifies the documented defaults.
func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.API.BaseURL != "http://api.brain-map.org" {
		t.Errorf("default base URL = %q", cfg.API.BaseURL)
	}
	if cfg.API.TimeoutSeconds != 120 {
		t.Errorf("default timeout = %d, want 120", cfg.API.TimeoutSeconds)
	}
	if cfg.Download.DownsampleRef != 25 {
		t.Errorf("default downsampleRef = %d, want 25", cfg.Download.DownsampleRef)
	}
	if cfg.Download.DownsampleImg != 0 {
		t.Errorf("default downsampleImg = %d, want 0", cfg.Download.DownsampleImg)
	}
	if cfg.Download.IncludeExpression {
		t.Error("expression downloads should be off by default")
	}
}

// TestLoadConfigMissingFile verifies that a missing file yields defaults.
func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.Download.DownsampleRef != 25 {
		t.Errorf("missing file should yield defaults, got downsampleRef = %d", cfg.Download.DownsampleRef)
	}
}

// TestLoadConfigOverrides verifies that file values override defaults and
// omitted values keep them.
func TestLoadConfigOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte(`
api:
  baseURL: http://localhost:8080
download:
  downsampleRef: 50
  includeExpression: true
`)
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.API.BaseURL != "http://localhost:8080" {
		t.Errorf("base URL = %q, want the file value", cfg.API.BaseURL)
	}
	if cfg.Download.DownsampleRef != 50 {
		t.Errorf("downsampleRef = %d, want 50", cfg.Download.DownsampleRef)
	}
	if !cfg.Download.IncludeExpression {
		t.Error("includeExpression should be true")
	}
	// Omitted keys keep their defaults.
	if cfg.API.TimeoutSeconds != 120 {
		t.Errorf("timeout = %d, want the default 120", cfg.API.TimeoutSeconds)
	}
}

// TestSaveConfigRoundTrip verifies that a saved configuration loads back
// identically.
func TestSaveConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")

	cfg := DefaultConfig()
	cfg.API.BaseURL = "http://example.org"
	cfg.Download.DownsampleImg = 3

	if err := SaveConfig(cfg, path); err != nil {
		t.Fatalf("SaveConfig returned error: %v", err)
	}
	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if *loaded != *cfg {
		t.Errorf("round trip mismatch: %+v != %+v", loaded, cfg)
	}
}
