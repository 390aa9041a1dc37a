// Package config contains everything related to configuration
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ErrMissingConfig is wrapped by every *Error returned from Load.
var ErrMissingConfig = errors.New("missing required configuration")

// Error reports a required setting that is absent.
type Error struct {
	Key  string
	Hint string
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s is required", e.Key)
	if e.Hint != "" {
		msg += " (" + e.Hint + ")"
	}
	return msg
}

func (e *Error) Unwrap() error { return ErrMissingConfig }

// Config holds the application configuration.
type Config struct {
	APIKey            string
	OrgID             string
	BaseURL           string
	DatabasePath      string
	FilterPath        string
	LogPath           string
	LogLevel          string
	CacheTTL          time.Duration
	RefreshInterval   time.Duration
	RequestTimeout    time.Duration
	ComputeAlertHours float64
}

// Default values
const (
	defaultBaseURL         = "https://console.neon.tech/api/v2"
	defaultCacheTTL        = 15 * time.Minute
	defaultRefreshInterval = 15 * time.Minute
	defaultRequestTimeout  = 30 * time.Second
	defaultLogLevel        = "info"
	appDirName             = "neon-usage-tui"
)

// Load reads configuration from .env files and environment variables.
func Load() (*Config, error) {
	// The first .env found wins; real environment variables are never overridden.
	for _, path := range getEnvPaths() {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			break
		}
	}

	apiKey := getEnvString("NEON_API_KEY", "")
	if apiKey == "" {
		if creds := LoadNeonctlCredentials(); creds != nil {
			apiKey = creds.AccessToken
		}
	}

	cfg := &Config{
		APIKey:            apiKey,
		OrgID:             getEnvString("NEON_ORG_ID", getEnvString("NEXT_PUBLIC_ORG_ID", "")),
		BaseURL:           strings.TrimRight(getEnvString("NEON_API_BASE_URL", defaultBaseURL), "/"),
		DatabasePath:      getEnvString("DATABASE_PATH", getDefaultDatabasePath()),
		FilterPath:        getEnvString("FILTER_PATH", getDefaultFilterPath()),
		LogPath:           getEnvString("LOG_PATH", ""),
		LogLevel:          strings.ToLower(getEnvString("LOG_LEVEL", defaultLogLevel)),
		CacheTTL:          getEnvDuration("CACHE_TTL", defaultCacheTTL),
		RefreshInterval:   getEnvDuration("REFRESH_INTERVAL", defaultRefreshInterval),
		RequestTimeout:    getEnvDuration("REQUEST_TIMEOUT", defaultRequestTimeout),
		ComputeAlertHours: getEnvFloat("COMPUTE_ALERT_HOURS", 0),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := ensureDir(filepath.Dir(cfg.DatabasePath)); err != nil {
		return nil, err
	}

	if err := ensureDir(filepath.Dir(cfg.FilterPath)); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that the required settings are present.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return &Error{Key: "NEON_API_KEY", Hint: "create one under Account settings > API keys, or run neonctl auth"}
	}
	if c.OrgID == "" {
		return &Error{Key: "NEON_ORG_ID", Hint: "the org-... id shown in the Neon console"}
	}
	return nil
}

// getEnvPaths returns a list of paths to check for .env files.
func getEnvPaths() []string {
	var paths []string

	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, ".env"))
	}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			filepath.Join(home, ".config", appDirName, ".env"),
			filepath.Join(home, ".neon", ".env"),
		)
	}

	// Parent directories (useful for development)
	if cwd, err := os.Getwd(); err == nil {
		parent := filepath.Dir(cwd)
		paths = append(paths, filepath.Join(parent, ".env"))
		grandparent := filepath.Dir(parent)
		paths = append(paths, filepath.Join(grandparent, ".env"))
	}

	return paths
}

// getDefaultDatabasePath returns the default path for the SQLite cache.
func getDefaultDatabasePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "cache.db"
	}
	return filepath.Join(home, ".config", appDirName, "cache.db")
}

// getDefaultFilterPath returns the default path for the saved project filter.
func getDefaultFilterPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "filter.json"
	}
	return filepath.Join(home, ".config", appDirName, "filter.json")
}

// getEnvString retrieves a string environment variable or returns the default.
func getEnvString(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

// getEnvDuration retrieves a duration environment variable or returns the default.
// Accepts values like "30s", "1m", "500ms", or bare seconds.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		if secs, err := strconv.Atoi(value); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultValue
}

// getEnvFloat retrieves a float environment variable or returns the default.
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// ensureDir creates a directory and all parent directories if they don't exist.
func ensureDir(path string) error {
	if path == "" || path == "." {
		return nil
	}
	return os.MkdirAll(path, 0o750)
}
