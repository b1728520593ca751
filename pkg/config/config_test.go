package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFromMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	def := DefaultConfig()
	if cfg.SourceURL != def.SourceURL {
		t.Errorf("SourceURL = %q, want default %q", cfg.SourceURL, def.SourceURL)
	}
	if cfg.UI.DefaultCategory != "temperature" {
		t.Errorf("DefaultCategory = %q", cfg.UI.DefaultCategory)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	in := Config{
		SourceURL: "https://seed.example.net",
		DBPath:    "/tmp/series.db",
		UI:        UIConfig{DefaultCategory: "precipitation"},
	}
	if err := SaveTo(in, path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}
	out, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if out != in {
		t.Errorf("round trip = %+v, want %+v", out, in)
	}
}

func TestLoadFromRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("source_url: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFrom(path); err == nil {
		t.Fatal("malformed YAML should error")
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("CLIMOGRAM_SOURCE_URL", "https://override.example.net")
	t.Setenv("CLIMOGRAM_DB", "/var/tmp/override.db")
	t.Setenv("CLIMOGRAM_CATEGORY", "precipitation")

	cfg := DefaultConfig()
	ApplyEnv(&cfg)

	if cfg.SourceURL != "https://override.example.net" {
		t.Errorf("SourceURL = %q", cfg.SourceURL)
	}
	if cfg.DBPath != "/var/tmp/override.db" {
		t.Errorf("DBPath = %q", cfg.DBPath)
	}
	if cfg.UI.DefaultCategory != "precipitation" {
		t.Errorf("DefaultCategory = %q", cfg.UI.DefaultCategory)
	}
}
