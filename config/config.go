// Package config loads server configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ardanlabs/conf/v3"
	"github.com/joho/godotenv"
)

// Environment name constants used in the ENVIRONMENT field.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTesting     = "testing"
)

// Prefix namespaces every environment variable, e.g. PAYROLL_PORT.
const Prefix = "PAYROLL"

// ErrHelpWanted is returned by Load when --help was passed; usage has
// already been printed.
var ErrHelpWanted = errors.New("help wanted")

// Config holds all configuration for the server.
type Config struct {
	Port            int           `conf:"default:8080,flag:port"`
	DBPath          string        `conf:"default:payroll.db,flag:db"`
	ShutdownTimeout time.Duration `conf:"default:30s"`

	LogLevel    string `conf:"default:info"`
	LogFormat   string `conf:"default:json,enum:json|console"`
	Environment string `conf:"default:development,enum:development|testing|production"`

	// Allowed origins separated by commas or pipes; * allows all (dev only).
	CORSAllowedOrigins string `conf:"default:http://localhost:5173|http://localhost:8080"`
	RateLimitPerMinute int    `conf:"default:120"`

	// Period count used when a request omits numberOfPeriods.
	DefaultPeriods int `conf:"default:26"`
}

// Load reads .env (if present), then environment variables and command-line
// flags.
func Load() (*Config, error) {
	var cfg Config
	_ = godotenv.Load()

	help, err := conf.Parse(Prefix, &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil, ErrHelpWanted
		}
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// AllowedOrigins splits CORSAllowedOrigins.
func (c *Config) AllowedOrigins() []string {
	var out []string
	for _, o := range strings.FieldsFunc(c.CORSAllowedOrigins, func(r rune) bool { return r == ',' || r == '|' }) {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// IsProduction reports ENVIRONMENT=production.
func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

func (c *Config) validate() error {
	var errs []string

	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Sprintf("PORT out of range: %d", c.Port))
	}
	if c.DefaultPeriods < 1 {
		errs = append(errs, fmt.Sprintf("DEFAULT_PERIODS must be at least 1 (got %d)", c.DefaultPeriods))
	}
	if c.RateLimitPerMinute < 1 {
		errs = append(errs, fmt.Sprintf("RATE_LIMIT_PER_MINUTE must be at least 1 (got %d)", c.RateLimitPerMinute))
	}
	if c.IsProduction() {
		for _, o := range c.AllowedOrigins() {
			if o == "*" {
				errs = append(errs, "CORS_ALLOWED_ORIGINS must not be * in production")
			}
		}
		if c.LogLevel == "debug" {
			errs = append(errs, "LOG_LEVEL must not be 'debug' in production")
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("config validation failed: %s", strings.Join(errs, "; "))
}
