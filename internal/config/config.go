package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultAPIURL          = "http://localhost:3000"
	DefaultKeychainService = "estoque"
	DefaultKeychainAccount = "api-token"
)

// Config holds all runtime configuration.
// Values come from the environment, optionally seeded from a .env file.
type Config struct {
	APIURL   string
	Token    string
	LogLevel string
	LogFile  string

	KeychainService string
	KeychainAccount string

	HTTPTimeout time.Duration

	// Empty disables the /metrics listener.
	MetricsAddr    string
	BreakerEnabled bool
}

// LoadEnv seeds the environment from .env in the working directory.
// Variables already set are left alone. A missing file is not an error.
func LoadEnv() error {
	err := godotenv.Load()
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// Load reads configuration from environment variables with defaults.
func Load() *Config {
	return &Config{
		APIURL:   strings.TrimRight(getEnv("ESTOQUE_API_URL", DefaultAPIURL), "/"),
		Token:    strings.TrimSpace(os.Getenv("ESTOQUE_TOKEN")),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogFile:  getEnv("ESTOQUE_LOG_FILE", defaultLogFile()),

		KeychainService: getEnv("ESTOQUE_KEYCHAIN_SERVICE", DefaultKeychainService),
		KeychainAccount: getEnv("ESTOQUE_KEYCHAIN_ACCOUNT", DefaultKeychainAccount),

		HTTPTimeout: getEnvDuration("HTTP_TIMEOUT", 15*time.Second),

		MetricsAddr:    getEnv("ESTOQUE_METRICS_ADDR", ""),
		BreakerEnabled: getEnvBool("BREAKER_ENABLED", true),
	}
}

func defaultLogFile() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		return filepath.Join(os.TempDir(), "estoque.log")
	}
	return filepath.Join(dir, "estoque", "estoque.log")
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
