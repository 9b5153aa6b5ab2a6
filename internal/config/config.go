// Package config loads and validates the engine and server configuration
// from a YAML file with environment-variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/happyhackingspace/boqa/inference"
)

// Config is the top-level configuration.
type Config struct {
	Engine  EngineConfig  `yaml:"engine"`
	Server  ServerConfig  `yaml:"server"`
	Logging LoggingConfig `yaml:"logging"`
}

// EngineConfig controls the inference model.
type EngineConfig struct {
	MaxFrequencyTerms       int    `yaml:"maxFrequencyTerms"`
	Workers                 int    `yaml:"workers"`
	ConsiderFrequenciesOnly bool   `yaml:"considerFrequenciesOnly"`
	DistributionSize        int    `yaml:"distributionSize"`
	MaxCachedQuerySize      int    `yaml:"maxCachedQuerySize"`
	DistributionDir         string `yaml:"distributionDir"`
}

// Options maps the engine section onto inference options.
func (e EngineConfig) Options() inference.Options {
	return inference.Options{
		MaxFrequencyTerms:       e.MaxFrequencyTerms,
		Workers:                 e.Workers,
		ConsiderFrequenciesOnly: e.ConsiderFrequenciesOnly,
		DistributionSize:        e.DistributionSize,
		MaxCachedQuerySize:      e.MaxCachedQuerySize,
		DistributionDir:         e.DistributionDir,
	}
}

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
	TopK            int           `yaml:"topK"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads a YAML config file (if provided) and applies environment
// variable overrides. Missing values keep their defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	return cfg, nil
}

// Default returns the configuration defaults.
func Default() *Config {
	return &Config{
		Engine: EngineConfig{
			MaxFrequencyTerms:  10,
			DistributionSize:   250000,
			MaxCachedQuerySize: 20,
		},
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			TopK:            20,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// applyEnvOverrides reads BOQA_* environment variables and overrides the
// corresponding fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("BOQA_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("BOQA_ENGINE_WORKERS"); v != "" {
		if workers, err := strconv.Atoi(v); err == nil {
			cfg.Engine.Workers = workers
		}
	}
	if v := os.Getenv("BOQA_ENGINE_DISTRIBUTION_DIR"); v != "" {
		cfg.Engine.DistributionDir = v
	}
	if v := os.Getenv("BOQA_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("BOQA_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}
