// Package config provides configuration loading for the server.
//
// LAYERING (lowest to highest precedence):
//  1. Built-in defaults
//  2. TOML config file (path from the CONFIG_FILE env var, default
//     "config.toml" if that file exists)
//  3. Environment variable overrides
//
// Env vars win so that a containerised deployment can override a baked-in
// config file without rebuilding the image: file for the stable shape, env
// for the per-environment knobs.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

// Store backends selectable via DB_BACKEND / [store] backend.
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Config is the complete server configuration.
type Config struct {
	Port int `toml:"port"`

	Store   StoreConfig   `toml:"store"`
	Auth    AuthConfig    `toml:"auth"`
	Session SessionConfig `toml:"session"`
}

// StoreConfig selects and parameterises the user store backend.
type StoreConfig struct {
	// Backend is "memory", "sqlite", or "postgres".
	Backend string `toml:"backend"`
	// Path is the sqlite database file (sqlite backend only).
	Path string `toml:"path"`
	// DSN is the postgres connection string (postgres backend only).
	DSN string `toml:"dsn"`
	// Seed creates the demo users (demo admin + member) on startup when
	// they don't exist yet.
	Seed bool `toml:"seed"`
}

// AuthConfig holds authentication capabilities.
type AuthConfig struct {
	// TrustedLogin enables the id/role login path, which resolves a user
	// with NO password check. Demo environments only — never expose this
	// on a public deployment.
	TrustedLogin bool `toml:"trusted_login"`
}

// SessionConfig holds the inactivity policy published to clients.
type SessionConfig struct {
	InactivityTimeoutSeconds int `toml:"inactivity_timeout_seconds"`
	WarningLeadSeconds       int `toml:"warning_lead_seconds"`
}

// Default returns the built-in defaults: port 8080, in-memory store,
// trusted login off, 180 s timeout with a 30 s warning lead.
func Default() Config {
	return Config{
		Port: 8080,
		Store: StoreConfig{
			Backend: BackendMemory,
			Path:    "data/users.db",
		},
		Session: SessionConfig{
			InactivityTimeoutSeconds: 180,
			WarningLeadSeconds:       30,
		},
	}
}

// Load builds the configuration: defaults, then the TOML file (if any),
// then env overrides.
func Load() (Config, error) {
	cfg := Default()

	path := os.Getenv("CONFIG_FILE")
	explicit := path != ""
	if path == "" {
		path = "config.toml"
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		// A missing default file is fine; a missing explicit file or a
		// parse error is not.
		if explicit || !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("config: loading %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// applyEnv overlays environment variables onto the config.
func (c *Config) applyEnv() error {
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: invalid PORT %q: %w", v, err)
		}
		c.Port = port
	}
	if v := os.Getenv("DB_BACKEND"); v != "" {
		c.Store.Backend = v
	}
	if v := os.Getenv("DB_PATH"); v != "" {
		c.Store.Path = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Store.DSN = v
	}
	if v := os.Getenv("SEED_DEMO_USERS"); v != "" {
		c.Store.Seed = v == "1" || v == "true"
	}
	if v := os.Getenv("TRUSTED_LOGIN"); v != "" {
		c.Auth.TrustedLogin = v == "1" || v == "true"
	}
	if v := os.Getenv("SESSION_TIMEOUT_SECONDS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: invalid SESSION_TIMEOUT_SECONDS %q: %w", v, err)
		}
		c.Session.InactivityTimeoutSeconds = n
	}
	if v := os.Getenv("WARNING_LEAD_SECONDS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: invalid WARNING_LEAD_SECONDS %q: %w", v, err)
		}
		c.Session.WarningLeadSeconds = n
	}
	return nil
}

// validate rejects configurations the server cannot honor.
func (c *Config) validate() error {
	switch c.Store.Backend {
	case BackendMemory, BackendSQLite, BackendPostgres:
	default:
		return fmt.Errorf("config: unknown store backend %q", c.Store.Backend)
	}
	if c.Store.Backend == BackendPostgres && c.Store.DSN == "" {
		return fmt.Errorf("config: postgres backend requires a DSN (DATABASE_URL)")
	}
	if c.Session.WarningLeadSeconds >= c.Session.InactivityTimeoutSeconds {
		return fmt.Errorf("config: warning lead (%ds) must be shorter than the inactivity timeout (%ds)",
			c.Session.WarningLeadSeconds, c.Session.InactivityTimeoutSeconds)
	}
	return nil
}

// InactivityTimeout returns the session timeout as a time.Duration.
func (c *Config) InactivityTimeout() time.Duration {
	return time.Duration(c.Session.InactivityTimeoutSeconds) * time.Second
}

// WarningLead returns the warning lead as a time.Duration.
func (c *Config) WarningLead() time.Duration {
	return time.Duration(c.Session.WarningLeadSeconds) * time.Second
}
