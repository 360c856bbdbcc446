package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Load reads a YAML config file, expands ${VAR} environment variables,
// and overlays PUSHWIRE_* environment overrides. A .env file in the
// working directory is loaded first when present (it never overrides
// variables already set in the environment).
func Load(path string) (*Config, error) {
	// Best-effort; a missing .env file is not an error.
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config yaml: %w", err)
	}

	cfg.applyEnvOverrides()
	return &cfg, nil
}

// LoadAndValidate loads config, applies defaults, and validates.
func LoadAndValidate(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// applyEnvOverrides overlays PUSHWIRE_* environment variables onto the
// loaded configuration. Only secrets and deployment-specific fields are
// overridable; tuning stays in the file.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("PUSHWIRE_ACCOUNT_ID"); v != "" {
		c.AccountID = v
	}
	if v := os.Getenv("PUSHWIRE_ENDPOINT_URL"); v != "" {
		c.Endpoint.URL = v
	}
	if v := os.Getenv("PUSHWIRE_ENDPOINT_TOKEN"); v != "" {
		c.Endpoint.Token = v
	}
	if v := os.Getenv("PUSHWIRE_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("PUSHWIRE_EVENT_LOG"); v != "" {
		c.Logging.EventLog = v
	}
}
