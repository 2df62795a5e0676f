/*
Package configs loads the front end's settings from the environment.

An optional .env file in the working directory is read first; variables
already set in the process environment win over it.
*/
package configs

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds every setting the server needs.
type AppConfig struct {
	// General Server Settings
	Environment string
	Port        int

	// Backend Settings
	BackendURL     string
	BackendTimeout time.Duration

	// Security Settings
	AllowedOrigins []string
	SessionSecret  string
	CookieSecure   bool
	LoginRate      float64
	LoginBurst     int

	// Session Settings
	SessionIdleTimeout time.Duration

	// Database Settings, optional. Sessions stay in memory when empty.
	DatabaseDSN string
}

// IsDevelopment reports whether the server runs in the development environment.
func (c *AppConfig) IsDevelopment() bool {
	return c.Environment == "development"
}

// LoadConfig reads .env (if present) and then the environment.
func LoadConfig() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env file: %w", err)
	}

	return FromEnv(os.Getenv)
}

// FromEnv builds the configuration from getenv, applying defaults and validation.
func FromEnv(getenv func(string) string) (*AppConfig, error) {
	cfg := &AppConfig{}
	var err error

	// --- General Server Settings ---
	cfg.Environment = getenv("ENVIRONMENT")
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}

	cfg.Port, err = intVar(getenv, "PORT", 8080)
	if err != nil {
		return nil, err
	}
	if cfg.Port < 1024 || cfg.Port > 65535 {
		return nil, fmt.Errorf("port number %d is outside the allowed range (%d-%d)", cfg.Port, 1024, 65535)
	}

	// --- Backend Settings ---
	cfg.BackendURL = strings.TrimRight(getenv("BACKEND_URL"), "/")
	if cfg.BackendURL == "" {
		cfg.BackendURL = "http://localhost:8000/api"
	}
	u, err := url.Parse(cfg.BackendURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid BACKEND_URL %q: must be an absolute http(s) URL", cfg.BackendURL)
	}

	cfg.BackendTimeout, err = durationVar(getenv, "BACKEND_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}

	// --- Security Settings ---
	for _, origin := range strings.Split(getenv("ALLOWED_ORIGINS"), ",") {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, trimmed)
		}
	}
	if cfg.AllowedOrigins == nil {
		cfg.AllowedOrigins = []string{}
	}

	cfg.SessionSecret = getenv("SESSION_SECRET")
	if cfg.SessionSecret == "" {
		if !cfg.IsDevelopment() {
			return nil, fmt.Errorf("SESSION_SECRET environment variable is required in %s environment for security", cfg.Environment)
		}
		cfg.SessionSecret = "your_default_insecure_secret_key_change_me"
	}

	cfg.CookieSecure, err = boolVar(getenv, "COOKIE_SECURE", !cfg.IsDevelopment())
	if err != nil {
		return nil, err
	}

	cfg.LoginRate, err = floatVar(getenv, "LOGIN_RATE", 0.2)
	if err != nil {
		return nil, err
	}
	cfg.LoginBurst, err = intVar(getenv, "LOGIN_BURST", 5)
	if err != nil {
		return nil, err
	}
	if cfg.LoginRate <= 0 || cfg.LoginBurst <= 0 {
		return nil, fmt.Errorf("LOGIN_RATE and LOGIN_BURST must be positive")
	}

	// --- Session Settings ---
	cfg.SessionIdleTimeout, err = durationVar(getenv, "SESSION_IDLE_TIMEOUT", 24*time.Hour)
	if err != nil {
		return nil, err
	}

	// --- Database Settings ---
	cfg.DatabaseDSN = getenv("DATABASE_URL")

	return cfg, nil
}

func intVar(getenv func(string) string, key string, def int) (int, error) {
	raw := getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", key, err)
	}
	return v, nil
}

func floatVar(getenv func(string) string, key string, def float64) (float64, error) {
	raw := getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", key, err)
	}
	return v, nil
}

func boolVar(getenv func(string) string, key string, def bool) (bool, error) {
	raw := getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s environment variable: %w", key, err)
	}
	return v, nil
}

func durationVar(getenv func(string) string, key string, def time.Duration) (time.Duration, error) {
	raw := getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", key, err)
	}
	if v <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", key, raw)
	}
	return v, nil
}
