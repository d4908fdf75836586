package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the process configuration resolved from the environment.
type Config struct {
	ServiceName string
	Env         string
	HTTPAddr    string
	LogLevel    string
	LogFile     string

	MenuAPI MenuAPIConfig
	Session SessionConfig
}

type MenuAPIConfig struct {
	BaseURL string
	Timeout time.Duration
}

type SessionConfig struct {
	// Secret signs session cookies. Empty means a per-process secret is generated.
	Secret string
	TTL    time.Duration
}

// Load reads variables from the optional .env files and then from the process environment.
// Values already present in the environment win over .env entries.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, file := range envFiles {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: load %s: %w", file, err)
		}
	}

	timeout, err := durationEnv("MENU_API_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	ttl, err := durationEnv("SESSION_TTL", 24*time.Hour)
	if err != nil {
		return nil, err
	}

	return &Config{
		ServiceName: getenvDefault("SERVICE_NAME", "foodtruck"),
		Env:         getenvDefault("ENV", "dev"),
		HTTPAddr:    getenvDefault("HTTP_ADDR", ":8080"),
		LogLevel:    os.Getenv("LOG_LEVEL"),
		LogFile:     os.Getenv("LOG_FILE"),
		MenuAPI: MenuAPIConfig{
			BaseURL: strings.TrimRight(getenvDefault("MENU_API_BASE_URL", "http://localhost:8088"), "/"),
			Timeout: timeout,
		},
		Session: SessionConfig{
			Secret: strings.TrimSpace(os.Getenv("SESSION_SECRET")),
			TTL:    ttl,
		},
	}, nil
}

func getenvDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("config: %s must be positive, got %s", key, raw)
	}
	return d, nil
}
