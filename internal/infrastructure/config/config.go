// Package config provides centralized configuration management.
//
// Configuration can be loaded from:
//  1. YAML file (config.yaml)
//  2. Environment variables (fallback)
//
// All reconciliation knobs (date window, fee tolerance, gateway fee
// formulas, score weights, acceptance threshold) live here and are
// validated once at startup. Invalid values are a ConfigurationError at
// load time, never a mid-run failure.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ledgerai/reconcile-backend/internal/domain/scorer"
)

// Config represents the entire application configuration.
type Config struct {
	Reconcile     ReconcileConfig     `yaml:"reconcile"`
	Storage       StorageConfig       `yaml:"storage"`
	Server        ServerConfig        `yaml:"server"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ReconcileConfig holds the matching core's tunables.
type ReconcileConfig struct {
	// WindowDays is the +/- candidate window around the invoice due
	// date.
	WindowDays int `yaml:"window_days"`

	// FeeTolerancePct is the amount-delta ceiling as a fraction of the
	// invoice amount.
	FeeTolerancePct float64 `yaml:"fee_tolerance_pct"`

	// FeeToleranceCapCents is the fixed ceiling; the effective bound is
	// the smaller of the two.
	FeeToleranceCapCents int64 `yaml:"fee_tolerance_cap_cents"`

	NameWeight   float64 `yaml:"name_weight"`
	AmountWeight float64 `yaml:"amount_weight"`
	DateWeight   float64 `yaml:"date_weight"`

	AcceptThreshold    float64 `yaml:"accept_threshold"`
	ExactNameThreshold float64 `yaml:"exact_name_threshold"`

	// Gateways lists the payment-gateway fee formulas to recognize.
	// Defaults to the single 2.9% + 30c formula.
	Gateways []scorer.GatewayFee `yaml:"gateways"`

	// Workers is the scoring fan-out per run. Zero means GOMAXPROCS.
	Workers int `yaml:"workers"`
}

// StorageConfig holds database configuration.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// ServerConfig holds the HTTP API configuration.
type ServerConfig struct {
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// ObservabilityConfig holds observability settings.
type ObservabilityConfig struct {
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the documented defaults for every knob.
func Default() *Config {
	return &Config{
		Reconcile: ReconcileConfig{
			WindowDays:           7,
			FeeTolerancePct:      0.05,
			FeeToleranceCapCents: 5000,
			NameWeight:           0.4,
			AmountWeight:         0.4,
			DateWeight:           0.2,
			AcceptThreshold:      0.6,
			ExactNameThreshold:   0.85,
			Gateways:             []scorer.GatewayFee{scorer.DefaultGateway()},
		},
		Storage: StorageConfig{
			DatabasePath: "reconcile.db",
		},
		Server: ServerConfig{
			Port:           8080,
			AllowedOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
		},
		Observability: ObservabilityConfig{
			Logging: LoggingConfig{Level: "info"},
		},
	}
}

// Load reads and parses the config file, overlaying the defaults.
// Environment variables in the file (e.g. ${RECONCILE_DB_PATH}) are
// expanded before parsing.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables only.
func LoadFromEnv() *Config {
	cfg := Default()

	if v := os.Getenv("RECONCILE_DB_PATH"); v != "" {
		cfg.Storage.DatabasePath = v
	}
	if v := os.Getenv("RECONCILE_WINDOW_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Reconcile.WindowDays = n
		}
	}
	if v := os.Getenv("PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = n
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Observability.Logging.Level = v
	}

	return cfg
}

// LoadOrEnv tries the config file first, falling back to environment
// variables when it doesn't exist.
func LoadOrEnv(path string) (*Config, error) {
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}
	cfg := LoadFromEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every reconciliation knob and collects all problems
// into a single ConfigurationError.
func (c *Config) Validate() error {
	var problems []string

	r := c.Reconcile
	if r.WindowDays < 0 {
		problems = append(problems, "window_days must not be negative")
	}
	if r.FeeTolerancePct < 0 || r.FeeTolerancePct > 1 {
		problems = append(problems, "fee_tolerance_pct must be in [0,1]")
	}
	if r.FeeToleranceCapCents < 0 {
		problems = append(problems, "fee_tolerance_cap_cents must not be negative")
	}
	if r.NameWeight < 0 || r.AmountWeight < 0 || r.DateWeight < 0 {
		problems = append(problems, "score weights must not be negative")
	}
	if sum := r.NameWeight + r.AmountWeight + r.DateWeight; sum < 0.999 || sum > 1.001 {
		problems = append(problems, fmt.Sprintf("score weights must sum to 1, got %.3f", sum))
	}
	if r.AcceptThreshold < 0 || r.AcceptThreshold > 1 {
		problems = append(problems, "accept_threshold must be in [0,1]")
	}
	if r.ExactNameThreshold < 0 || r.ExactNameThreshold > 1 {
		problems = append(problems, "exact_name_threshold must be in [0,1]")
	}
	if r.Workers < 0 {
		problems = append(problems, "workers must not be negative")
	}
	for _, g := range r.Gateways {
		if g.Percent < 0 || g.Percent >= 1 {
			problems = append(problems, fmt.Sprintf("gateway %q: percent must be in [0,1)", g.Name))
		}
		if g.FixedCents < 0 {
			problems = append(problems, fmt.Sprintf("gateway %q: fixed_cents must not be negative", g.Name))
		}
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		problems = append(problems, "server port out of range")
	}

	if len(problems) > 0 {
		return &ConfigurationError{Problems: problems}
	}
	return nil
}

// ScorerConfig projects the reconcile section into the scorer's config.
func (c *Config) ScorerConfig() scorer.Config {
	return scorer.Config{
		NameWeight:           c.Reconcile.NameWeight,
		AmountWeight:         c.Reconcile.AmountWeight,
		DateWeight:           c.Reconcile.DateWeight,
		WindowDays:           c.Reconcile.WindowDays,
		FeeTolerancePct:      c.Reconcile.FeeTolerancePct,
		FeeToleranceCapCents: c.Reconcile.FeeToleranceCapCents,
		AcceptThreshold:      c.Reconcile.AcceptThreshold,
		ExactNameThreshold:   c.Reconcile.ExactNameThreshold,
		Gateways:             c.Reconcile.Gateways,
	}
}

// ConfigurationError reports every invalid setting found at startup.
type ConfigurationError struct {
	Problems []string
}

func (e *ConfigurationError) Error() string {
	return "invalid configuration: " + strings.Join(e.Problems, "; ")
}
