// Package server exposes the builder runtime over HTTP: authentication,
// agent CRUD, pending approvals and the SSE chat stream.
package server

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the server configuration, loaded from YAML with environment
// overrides for deployment secrets.
type Config struct {
	Addr         string        `yaml:"addr"`
	DatabasePath string        `yaml:"database_path"`
	OpenAIAPIKey string        `yaml:"openai_api_key"`
	Model        string        `yaml:"model"`
	Temperature  float32       `yaml:"temperature"`
	JWTSecret    string        `yaml:"jwt_secret"`
	ApprovalTTL  time.Duration `yaml:"approval_ttl"`
	Language     string        `yaml:"language"`
	OTLPEndpoint string        `yaml:"otlp_endpoint"`
	LogLevel     string        `yaml:"log_level"`
}

// DefaultConfig returns a runnable local configuration.
func DefaultConfig() Config {
	return Config{
		Addr:         ":8080",
		DatabasePath: "bodhikit.db",
		Model:        "gpt-4o-mini",
		Temperature:  0.7,
		ApprovalTTL:  15 * time.Minute,
		Language:     "en",
		LogLevel:     "info",
	}
}

// LoadConfig reads configuration from a YAML file, then applies environment
// overrides. An empty path skips the file and uses defaults plus env.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnv(&cfg)

	if cfg.JWTSecret == "" {
		return cfg, fmt.Errorf("jwt_secret is required (set BODHIKIT_JWT_SECRET)")
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("BODHIKIT_ADDR"); v != "" {
		cfg.Addr = v
	}
	if v := os.Getenv("BODHIKIT_DB"); v != "" {
		cfg.DatabasePath = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.OpenAIAPIKey = v
	}
	if v := os.Getenv("BODHIKIT_JWT_SECRET"); v != "" {
		cfg.JWTSecret = v
	}
	if v := os.Getenv("BODHIKIT_OTLP_ENDPOINT"); v != "" {
		cfg.OTLPEndpoint = v
	}
	if v := os.Getenv("BODHIKIT_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
}
