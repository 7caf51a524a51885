// Package config loads server configuration from an optional YAML file
// with environment variable overrides.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML values like "15m" parse.
type Duration time.Duration

// UnmarshalYAML parses a Go duration string.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Auth holds the authenticator tunables.
type Auth struct {
	JWTSecret    string   `yaml:"jwt_secret"`
	Issuer       string   `yaml:"issuer"`
	Audience     string   `yaml:"audience"`
	TokenTTL     Duration `yaml:"token_ttl"`
	MaxAttempts  int      `yaml:"max_attempts"`
	LockDuration Duration `yaml:"lock_duration"`
}

// Config is the full server configuration.
type Config struct {
	ListenAddr string `yaml:"listen_addr"`
	DBPath     string `yaml:"db_path"`
	LogLevel   string `yaml:"log_level"`
	Auth       Auth   `yaml:"auth"`

	// BootstrapAdminPassword seeds the initial admin account when the
	// accounts table is empty. Never stored after first boot.
	BootstrapAdminPassword string `yaml:"bootstrap_admin_password"`

	// GeneratedSecret reports that the JWT secret was random-generated
	// this boot; sessions will not survive a restart.
	GeneratedSecret bool `yaml:"-"`
}

// Load reads the config file at path if it exists, then applies
// environment overrides and defaults. A missing file is not an error;
// an unreadable or malformed one is.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// Run on env and defaults alone.
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	cfg.applyEnv()
	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("NETFENCE_ADDR"); v != "" {
		c.ListenAddr = v
	}
	if v := os.Getenv("NETFENCE_DB"); v != "" {
		c.DBPath = v
	}
	if v := os.Getenv("NETFENCE_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("NETFENCE_JWT_SECRET"); v != "" {
		c.Auth.JWTSecret = v
	}
	if v := os.Getenv("NETFENCE_ADMIN_PASSWORD"); v != "" {
		c.BootstrapAdminPassword = v
	}
}

func (c *Config) applyDefaults() error {
	if c.ListenAddr == "" {
		c.ListenAddr = ":3000"
	}
	if c.DBPath == "" {
		c.DBPath = "./netfence.db"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Auth.Issuer == "" {
		c.Auth.Issuer = "netfence"
	}
	if c.Auth.Audience == "" {
		c.Auth.Audience = "netfence-api"
	}
	if c.Auth.TokenTTL == 0 {
		c.Auth.TokenTTL = Duration(24 * time.Hour)
	}
	if c.Auth.MaxAttempts == 0 {
		c.Auth.MaxAttempts = 5
	}
	if c.Auth.LockDuration == 0 {
		c.Auth.LockDuration = Duration(15 * time.Minute)
	}
	if c.Auth.JWTSecret == "" {
		secret, err := randomSecret()
		if err != nil {
			return fmt.Errorf("failed to generate JWT secret: %w", err)
		}
		c.Auth.JWTSecret = secret
		c.GeneratedSecret = true
	}
	return nil
}

func randomSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
