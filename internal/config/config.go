// Package config provides functionality for managing configuration options
// for the application using defaults, an optional JSON file, environment
// variables and command-line flags.
package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds the configuration values for the application.
// It is built once at startup and passed by pointer to the components that
// need it; nothing mutates it afterwards.
type Config struct {
	// Addr defines the server's listening address (ip:port).
	Addr string `json:"server_address" env:"SERVER_ADDRESS"`

	// DatabaseURL selects the driver and holds the connection string.
	// postgres:// and postgresql:// use lib/pq, sqlite:// and file: use SQLite.
	DatabaseURL string `json:"database_url" env:"DATABASE_URL"`

	// SecretKey is the symmetric token signing key.
	SecretKey string `json:"secret_key" env:"SECRET_KEY"`
	// Algorithm is the token signing algorithm (HS256, HS384 or HS512).
	Algorithm string `json:"algorithm" env:"ALGORITHM"`
	// AccessTokenExpireMinutes is the token lifetime.
	AccessTokenExpireMinutes int `json:"access_token_expire_minutes" env:"ACCESS_TOKEN_EXPIRE_MINUTES"`
	// BcryptCost is the password hashing cost factor.
	BcryptCost int `json:"bcrypt_cost" env:"BCRYPT_COST"`

	// FrontendURL is the single origin allowed by CORS.
	FrontendURL string `json:"frontend_url" env:"FRONTEND_URL"`
	// AllowedHosts lists accepted Host header patterns; "*.example.org" matches subdomains.
	AllowedHosts []string `json:"allowed_hosts" env:"ALLOWED_HOSTS" envSeparator:","`
	// TrustProxyHeaders makes X-Forwarded-For / X-Real-IP the client address.
	TrustProxyHeaders bool `json:"trust_proxy_headers" env:"TRUST_PROXY_HEADERS"`

	// LogLevel is the zap level name.
	LogLevel string `json:"log_level" env:"LOG_LEVEL"`
	// RequestTimeout bounds every request, database calls included.
	RequestTimeout time.Duration `json:"-" env:"REQUEST_TIMEOUT"`

	// RateLimitLogin, RateLimitRegister, RateLimitWrite and RateLimitRead are
	// "N/unit" policies, e.g. "5/minute".
	RateLimitLogin    string `json:"rate_limit_login" env:"RATE_LIMIT_LOGIN"`
	RateLimitRegister string `json:"rate_limit_register" env:"RATE_LIMIT_REGISTER"`
	RateLimitWrite    string `json:"rate_limit_write" env:"RATE_LIMIT_WRITE"`
	RateLimitRead     string `json:"rate_limit_read" env:"RATE_LIMIT_READ"`
	// RateLimitStore is "memory" (single instance) or "database" (shared across instances).
	RateLimitStore string `json:"rate_limit_store" env:"RATE_LIMIT_STORE"`
	// RateLimitCleanupInterval enables periodic purging of stale database
	// counters when positive.
	RateLimitCleanupInterval time.Duration `json:"-" env:"RATE_LIMIT_CLEANUP_INTERVAL"`

	// TLSCertFile and TLSKeyFile switch the server to HTTPS when both are set.
	TLSCertFile string `json:"tls_cert_file" env:"TLS_CERT_FILE"`
	TLSKeyFile  string `json:"tls_key_file" env:"TLS_KEY_FILE"`

	// SeedAdminPassword and SeedEditorPassword are used only when the default
	// accounts are created for the first time.
	SeedAdminPassword  string `json:"seed_admin_password" env:"SEED_ADMIN_PASSWORD"`
	SeedEditorPassword string `json:"seed_editor_password" env:"SEED_EDITOR_PASSWORD"`

	// File is the path to the JSON config file.
	File string `json:"-" env:"CONFIG"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Addr:                     ":8000",
		DatabaseURL:              "sqlite://tmsiti.db",
		SecretKey:                "your-secret-key-change-in-production",
		Algorithm:                "HS256",
		AccessTokenExpireMinutes: 30,
		BcryptCost:               12,
		FrontendURL:              "https://tmsiti.uz",
		AllowedHosts:             []string{"tmsiti.uz", "*.tmsiti.uz", "localhost", "127.0.0.1"},
		LogLevel:                 "info",
		RequestTimeout:           10 * time.Second,
		RateLimitLogin:           "5/minute",
		RateLimitRegister:        "3/minute",
		RateLimitWrite:           "10/minute",
		RateLimitRead:            "60/minute",
		RateLimitStore:           "memory",
		SeedAdminPassword:        "admin123",
		SeedEditorPassword:       "editor123",
		File:                     "config.json",
	}
}

// TokenTTL returns the configured access token lifetime.
func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.AccessTokenExpireMinutes) * time.Minute
}

// Load builds the configuration. Precedence, lowest first: defaults, JSON
// file, environment, explicitly passed flags.
func Load(args []string) (*Config, error) {
	cfg := Default()

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	addr := fs.String("a", cfg.Addr, "run on ip:port server")
	dsn := fs.String("d", "", "database URL")
	file := fs.String("config", cfg.File, "path to config file")
	fs.StringVar(file, "c", cfg.File, "path to config file (shorthand)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	cfg.File = *file
	if p := os.Getenv("CONFIG"); p != "" && !set["config"] && !set["c"] {
		cfg.File = p
	}

	if cfg.File != "" {
		if _, err := os.Stat(cfg.File); err == nil {
			data, err := os.ReadFile(cfg.File)
			if err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}
			if err := json.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if set["a"] {
		cfg.Addr = *addr
	}
	if set["d"] {
		cfg.DatabaseURL = *dsn
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the values that would otherwise fail late at request time.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.SecretKey) == "" {
		errs = append(errs, errors.New("SECRET_KEY is required"))
	}
	switch c.Algorithm {
	case "HS256", "HS384", "HS512":
	default:
		errs = append(errs, fmt.Errorf("unsupported ALGORITHM %q", c.Algorithm))
	}
	if c.AccessTokenExpireMinutes <= 0 {
		errs = append(errs, errors.New("ACCESS_TOKEN_EXPIRE_MINUTES must be positive"))
	}
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	switch c.RateLimitStore {
	case "memory", "database":
	default:
		errs = append(errs, fmt.Errorf("unsupported RATE_LIMIT_STORE %q", c.RateLimitStore))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, errors.New("REQUEST_TIMEOUT must be positive"))
	}
	if (c.TLSCertFile == "") != (c.TLSKeyFile == "") {
		errs = append(errs, errors.New("TLS_CERT_FILE and TLS_KEY_FILE must be set together"))
	}
	return errors.Join(errs...)
}
