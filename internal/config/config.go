package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/example/docforensics/internal/logging"
)

// Config holds the process-wide settings read at startup.
type Config struct {
	Host            string
	Port            int
	Environment     string // development, production
	LogLevel        string
	GRPCAddr        string
	AnalysisTimeout time.Duration
	ShutdownTimeout time.Duration
	MaxRequestBytes int64
}

// Addr is the HTTP listen address.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Load reads configuration from the environment, after loading a .env file if present.
func Load() (*Config, error) {
	// A missing .env file is normal outside local development.
	_ = godotenv.Load()
	return FromLookup(os.LookupEnv)
}

// FromLookup builds a Config from an arbitrary variable lookup.
func FromLookup(lookup func(string) (string, bool)) (*Config, error) {
	get := func(key, fallback string) string {
		if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value)
		}
		return fallback
	}

	var errs []error

	port, err := strconv.Atoi(get("PORT", "5001"))
	if err != nil {
		errs = append(errs, fmt.Errorf("invalid PORT: %w", err))
	}
	analysisTimeout, err := time.ParseDuration(get("ANALYSIS_TIMEOUT", "10s"))
	if err != nil {
		errs = append(errs, fmt.Errorf("invalid ANALYSIS_TIMEOUT: %w", err))
	}
	shutdownTimeout, err := time.ParseDuration(get("SHUTDOWN_TIMEOUT", "15s"))
	if err != nil {
		errs = append(errs, fmt.Errorf("invalid SHUTDOWN_TIMEOUT: %w", err))
	}
	maxBytes, err := strconv.ParseInt(get("MAX_REQUEST_BYTES", "20971520"), 10, 64)
	if err != nil {
		errs = append(errs, fmt.Errorf("invalid MAX_REQUEST_BYTES: %w", err))
	}

	cfg := &Config{
		Host:            get("HOST", "0.0.0.0"),
		Port:            port,
		Environment:     get("APP_ENV", "development"),
		LogLevel:        get("LOG_LEVEL", "info"),
		GRPCAddr:        get("GRPC_ADDR", ""),
		AnalysisTimeout: analysisTimeout,
		ShutdownTimeout: shutdownTimeout,
		MaxRequestBytes: maxBytes,
	}
	if len(errs) == 0 {
		errs = cfg.validate()
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %w", errors.Join(errs...))
	}
	return cfg, nil
}

func (c *Config) validate() []error {
	var errs []error
	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT must be between 1 and 65535 (got: %d)", c.Port))
	}
	if c.Environment != "development" && c.Environment != "production" {
		errs = append(errs, fmt.Errorf("APP_ENV must be one of: development, production (got: %s)", c.Environment))
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("invalid LOG_LEVEL: %w", err))
	}
	if c.AnalysisTimeout <= 0 {
		errs = append(errs, errors.New("ANALYSIS_TIMEOUT must be positive"))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("SHUTDOWN_TIMEOUT must be positive"))
	}
	if c.MaxRequestBytes <= 0 {
		errs = append(errs, errors.New("MAX_REQUEST_BYTES must be positive"))
	}
	if c.GRPCAddr != "" {
		if _, _, err := net.SplitHostPort(c.GRPCAddr); err != nil {
			errs = append(errs, fmt.Errorf("invalid GRPC_ADDR: %w", err))
		}
	}
	return errs
}
