// Package config loads application configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/ericfisherdev/starneighbours/internal/logging"
)

const (
	// DefaultDBPath is where the API token database lives when STARNEIGHBOURS_DB_PATH is unset.
	DefaultDBPath = "data/api_tokens.db"

	// LogFormatText selects the human-readable log handler.
	LogFormatText = logging.FormatText
	// LogFormatJSON selects slog's JSON handler.
	LogFormatJSON = logging.FormatJSON
)

// ErrMissingGitHubToken is returned by Load when neither STARNEIGHBOURS_GITHUB_TOKEN
// nor GITHUB_TOKEN is set.
var ErrMissingGitHubToken = errors.New("STARNEIGHBOURS_GITHUB_TOKEN (or GITHUB_TOKEN) is required")

// Config holds the application configuration loaded from environment variables.
type Config struct {
	GitHubToken    string
	ListenAddr     string
	DBPath         string
	RequestTimeout time.Duration
	QueryTimeout   time.Duration
	LogLevel       slog.Level
	LogFormat      string
}

// Load reads configuration from environment variables and returns a validated Config.
// STARNEIGHBOURS_GITHUB_TOKEN is required, with GITHUB_TOKEN accepted as a fallback.
// Optional variables with defaults: STARNEIGHBOURS_LISTEN_ADDR (127.0.0.1:8080),
// STARNEIGHBOURS_DB_PATH (data/api_tokens.db), STARNEIGHBOURS_REQUEST_TIMEOUT (30s),
// STARNEIGHBOURS_QUERY_TIMEOUT (5m), STARNEIGHBOURS_LOG_LEVEL (info),
// STARNEIGHBOURS_LOG_FORMAT (text).
func Load() (*Config, error) {
	token := os.Getenv("STARNEIGHBOURS_GITHUB_TOKEN")
	if token == "" {
		token = os.Getenv("GITHUB_TOKEN")
	}
	if token == "" {
		return nil, ErrMissingGitHubToken
	}

	listenAddr := "127.0.0.1:8080"
	if v, ok := os.LookupEnv("STARNEIGHBOURS_LISTEN_ADDR"); ok {
		listenAddr = v
	}

	requestTimeout, err := durationFromEnv("STARNEIGHBOURS_REQUEST_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}

	queryTimeout, err := durationFromEnv("STARNEIGHBOURS_QUERY_TIMEOUT", 5*time.Minute)
	if err != nil {
		return nil, err
	}

	logLevel, err := LogLevelFromEnv()
	if err != nil {
		return nil, err
	}

	logFormat, err := LogFormatFromEnv()
	if err != nil {
		return nil, err
	}

	return &Config{
		GitHubToken:    token,
		ListenAddr:     listenAddr,
		DBPath:         DBPathFromEnv(),
		RequestTimeout: requestTimeout,
		QueryTimeout:   queryTimeout,
		LogLevel:       logLevel,
		LogFormat:      logFormat,
	}, nil
}

// DBPathFromEnv returns STARNEIGHBOURS_DB_PATH, or DefaultDBPath when unset or empty.
// Used on its own by tooling that needs the database but not a GitHub token.
func DBPathFromEnv() string {
	if v := os.Getenv("STARNEIGHBOURS_DB_PATH"); v != "" {
		return v
	}
	return DefaultDBPath
}

// LogLevelFromEnv parses STARNEIGHBOURS_LOG_LEVEL (debug, info, warn, error). Defaults to info.
func LogLevelFromEnv() (slog.Level, error) {
	v, ok := os.LookupEnv("STARNEIGHBOURS_LOG_LEVEL")
	if !ok || v == "" {
		return slog.LevelInfo, nil
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(v)); err != nil {
		return 0, fmt.Errorf("STARNEIGHBOURS_LOG_LEVEL has invalid level %q: %w", v, err)
	}
	return level, nil
}

// LogFormatFromEnv parses STARNEIGHBOURS_LOG_FORMAT (text or json). Defaults to text.
func LogFormatFromEnv() (string, error) {
	v, ok := os.LookupEnv("STARNEIGHBOURS_LOG_FORMAT")
	if !ok || v == "" {
		return LogFormatText, nil
	}

	switch format := strings.ToLower(v); format {
	case LogFormatText, LogFormatJSON:
		return format, nil
	default:
		return "", fmt.Errorf("STARNEIGHBOURS_LOG_FORMAT has invalid format %q: expected text or json", v)
	}
}

func durationFromEnv(key string, def time.Duration) (time.Duration, error) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return def, nil
	}

	parsed, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s has invalid duration %q: %w", key, v, err)
	}
	if parsed < 0 {
		return 0, fmt.Errorf("%s must not be negative, got %s", key, v)
	}
	return parsed, nil
}
