// Package config loads and stores bridge configuration in the XDG config dir.
// Only non-secret settings are kept here; the database DSN goes to the OS
// keychain or arrives via environment variables.
package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	"pgbridge/cli/internal/xdg"
)

// Config holds non-sensitive bridge settings.
type Config struct {
	LogLevel string     `json:"log_level"`
	HTTP     HTTPConfig `json:"http"`
	DB       DBConfig   `json:"db"`
}

// HTTPConfig holds the HTTP boundary settings.
type HTTPConfig struct {
	// Addr is the listen address of the bridge.
	Addr string `json:"addr"`
	// RequestTimeoutSeconds bounds one tool call end to end.
	RequestTimeoutSeconds int `json:"request_timeout_seconds"`
}

// RequestTimeout returns the configured timeout as a duration.
func (h HTTPConfig) RequestTimeout() time.Duration {
	return time.Duration(h.RequestTimeoutSeconds) * time.Second
}

// DBConfig holds database connection settings.
type DBConfig struct {
	DSN      string `json:"dsn"`
	Provided bool   `json:"provided"`
}

// path returns the path to the config file.
func path() (string, error) {
	dir, err := xdg.ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads configuration; missing file returns defaults.
func Load() (Config, error) {
	var c Config
	p, err := path()
	if err != nil {
		return c, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			// Defaults (DB credentials loaded from env/keychain, not config)
			c.LogLevel = "info"
			c.HTTP = HTTPConfig{Addr: "127.0.0.1:8089", RequestTimeoutSeconds: 30}
			c.DB = DBConfig{} // No default DSN - fail-fast if not provided via env/keychain
			return c, nil
		}
		return c, err
	}
	if err := json.Unmarshal(data, &c); err != nil {
		return c, err
	}
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = "127.0.0.1:8089"
	}
	if c.HTTP.RequestTimeoutSeconds <= 0 {
		c.HTTP.RequestTimeoutSeconds = 30
	}
	return c, nil
}

// Save writes configuration with 0600 permissions.
func Save(c Config) error {
	p, err := path()
	if err != nil {
		return err
	}
	b, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(p, b, 0o600)
}
