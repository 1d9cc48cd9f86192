package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"authflow/internal/session"
)

type Config struct {
	Env      string
	LogLevel string

	Endpoint string
	APIKey   string

	StatePath   string
	Destination string

	MaxAttempts     int
	LockoutDuration time.Duration
	RateLimit       bool
	MinPasswordLen  int
	NavigateDelay   time.Duration

	SessionPersistence session.Mode

	GoogleClientID     string
	GoogleClientSecret string
	AppleServiceID     string
}

// Load reads a .env file when one is present, then the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return LoadFromEnv(os.Getenv)
}

func LoadFromEnv(getenv func(string) string) (Config, error) {
	cfg := Config{
		Env:                getenv("APP_ENV"),
		LogLevel:           getenv("APP_LOG_LEVEL"),
		Endpoint:           getenv("AUTH_ENDPOINT"),
		APIKey:             getenv("AUTH_API_KEY"),
		StatePath:          getenv("AUTH_STATE_PATH"),
		Destination:        getenv("AUTH_DESTINATION"),
		GoogleClientID:     getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: getenv("GOOGLE_CLIENT_SECRET"),
		AppleServiceID:     getenv("APPLE_SERVICE_ID"),
	}

	if cfg.Env == "" {
		cfg.Env = "dev"
	}
	switch cfg.Env {
	case "dev", "prod", "test":
	default:
		return Config{}, errors.New("APP_ENV: must be one of dev, test, prod")
	}

	if cfg.Endpoint != "" {
		parsed, err := url.Parse(cfg.Endpoint)
		if err != nil {
			return Config{}, fmt.Errorf("AUTH_ENDPOINT: %w", err)
		}
		if !parsed.IsAbs() || parsed.Host == "" {
			return Config{}, errors.New("AUTH_ENDPOINT: must be an absolute URL")
		}
	}

	if cfg.Destination == "" {
		cfg.Destination = "/dashboard"
	}

	if cfg.StatePath == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return Config{}, fmt.Errorf("AUTH_STATE_PATH: no default available: %w", err)
		}
		cfg.StatePath = filepath.Join(base, "authflow", "state.db")
	}

	var err error
	if cfg.MaxAttempts, err = intVar(getenv, "AUTH_MAX_ATTEMPTS", 5); err != nil {
		return Config{}, err
	}
	if cfg.MinPasswordLen, err = intVar(getenv, "AUTH_MIN_PASSWORD_LEN", 6); err != nil {
		return Config{}, err
	}
	if cfg.LockoutDuration, err = durationVar(getenv, "AUTH_LOCKOUT_DURATION", 15*time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.NavigateDelay, err = durationVar(getenv, "AUTH_NAVIGATE_DELAY", 1500*time.Millisecond); err != nil {
		return Config{}, err
	}
	if cfg.RateLimit, err = boolVar(getenv, "AUTH_RATE_LIMIT", true); err != nil {
		return Config{}, err
	}

	cfg.SessionPersistence, err = session.ParseMode(getenv("AUTH_SESSION_PERSISTENCE"))
	if err != nil {
		return Config{}, fmt.Errorf("AUTH_SESSION_PERSISTENCE: %w", err)
	}

	if cfg.IsProd() && cfg.APIKey == "" {
		return Config{}, errors.New("AUTH_API_KEY: required in prod")
	}

	return cfg, nil
}

func (c Config) IsProd() bool { return c.Env == "prod" }

func intVar(getenv func(string) string, key string, def int) (int, error) {
	raw := strings.TrimSpace(getenv(key))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%s: must be > 0", key)
	}
	return n, nil
}

func durationVar(getenv func(string) string, key string, def time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(getenv(key))
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s: must be > 0", key)
	}
	return d, nil
}

func boolVar(getenv func(string) string, key string, def bool) (bool, error) {
	raw := strings.TrimSpace(getenv(key))
	if raw == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}
