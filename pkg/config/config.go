// Package config handles loading and saving climogram configuration.
//
// Configuration follows the XDG Base Directory specification:
//   - Config: ~/.config/climogram/config.yaml
//   - Data:   ~/.local/share/climogram/ (series cache)
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// UIConfig holds UI preference settings.
type UIConfig struct {
	DefaultCategory string `yaml:"default_category,omitempty"` // temperature, precipitation
}

// Config is the top-level configuration for climogram.
type Config struct {
	// SourceURL is the base URL of the seed source; categories are
	// fetched from {SourceURL}/data/{category}.json.
	SourceURL string `yaml:"source_url,omitempty"`
	// DBPath is the SQLite cache location.
	DBPath string   `yaml:"db_path,omitempty"`
	UI     UIConfig `yaml:"ui,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		SourceURL: "http://localhost:8080",
		DBPath:    filepath.Join(DataDir(), "series.db"),
		UI: UIConfig{
			DefaultCategory: "temperature",
		},
	}
}

// ConfigDir returns the XDG config directory for climogram.
func ConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "climogram")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "climogram")
}

// DataDir returns the XDG data directory for climogram.
func DataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "climogram")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "share", "climogram")
}

// ConfigPath returns the full path to config.yaml.
func ConfigPath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// Load reads the config file from the XDG config directory.
// Returns DefaultConfig if the file doesn't exist.
func Load() (Config, error) {
	path := ConfigPath()
	if path == "" {
		return DefaultConfig(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads config from a specific path.
// Returns DefaultConfig if the file doesn't exist.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	cfg.DBPath = expandHome(cfg.DBPath)
	return cfg, nil
}

// ApplyEnv overlays CLIMOGRAM_* environment variables on cfg. Called
// after Load so the environment wins over the file.
func ApplyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("CLIMOGRAM_SOURCE_URL")); v != "" {
		cfg.SourceURL = v
	}
	if v := strings.TrimSpace(os.Getenv("CLIMOGRAM_DB")); v != "" {
		cfg.DBPath = expandHome(v)
	}
	if v := strings.TrimSpace(os.Getenv("CLIMOGRAM_CATEGORY")); v != "" {
		cfg.UI.DefaultCategory = v
	}
}

// Save writes the config to the XDG config directory.
func Save(cfg Config) error {
	path := ConfigPath()
	if path == "" {
		return fmt.Errorf("cannot determine config directory")
	}
	return SaveTo(cfg, path)
}

// SaveTo writes the config to a specific path.
func SaveTo(cfg Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
