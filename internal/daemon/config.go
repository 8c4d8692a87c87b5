// Package daemon holds runtime configuration for the glow daemon.
// Config lives at ~/.glow/config.toml; every field has a working default so
// a missing file is not an error.
package daemon

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// ─── Config ─────────────────────────────────────────────────────────────────

// Config is the full daemon configuration.
type Config struct {
	API     APIConfig     `toml:"api"`
	Storage StorageConfig `toml:"storage"`
}

// APIConfig configures the HTTP server.
type APIConfig struct {
	Host    string `toml:"host"`
	Port    int    `toml:"port"`
	Metrics bool   `toml:"metrics"`
	Dev     bool   `toml:"dev"` // mounts destructive dev endpoints (reset)
}

// StorageConfig configures the sqlite store.
type StorageConfig struct {
	Path      string `toml:"path"`      // empty = <home>/glow.db
	Namespace string `toml:"namespace"` // storage namespace for this session
}

// DefaultConfig returns the stock configuration.
func DefaultConfig() Config {
	return Config{
		API: APIConfig{
			Host:    "127.0.0.1",
			Port:    8090,
			Metrics: true,
			Dev:     false,
		},
		Storage: StorageConfig{
			Path:      "",
			Namespace: "default",
		},
	}
}

// Load reads the config file at path, or the default location when path is
// empty. A missing file yields DefaultConfig.
func Load(path string) (Config, error) {
	if path == "" {
		path = filepath.Join(HomeDir(), "config.toml")
	}

	cfg := DefaultConfig()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Addr returns the host:port listen address.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.API.Host, c.API.Port)
}

// DBPath resolves the sqlite database path.
func (c Config) DBPath() string {
	if c.Storage.Path != "" {
		return c.Storage.Path
	}
	return filepath.Join(HomeDir(), "glow.db")
}

// HomeDir returns the glow data directory, honoring GLOW_HOME.
func HomeDir() string {
	if env := os.Getenv("GLOW_HOME"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".glow")
}
