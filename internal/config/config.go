package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds all application configuration.
type Config struct {
	Address              string `yaml:"address"`
	CatalogPath          string `yaml:"catalog_path"`
	StoreDriver          string `yaml:"store_driver"`
	SQLitePath           string `yaml:"sqlite_path"`
	DatabaseURL          string `yaml:"database_url"`
	GeminiAPIKey         string `yaml:"gemini_api_key"`
	GeminiModel          string `yaml:"gemini_model"`
	GeminiBaseURL        string `yaml:"gemini_base_url"`
	ExtractionTimeoutSec int    `yaml:"extraction_timeout_secs"`
	LogLevel             string `yaml:"log_level"`
}

// Defaults returns a Config with all default values set.
// An empty CatalogPath selects the embedded catalog.
func Defaults() Config {
	return Config{
		Address:              ":8080",
		StoreDriver:          DriverSQLite,
		SQLitePath:           "./swampswipe.db",
		GeminiModel:          "gemini-2.0-flash",
		ExtractionTimeoutSec: 30,
		LogLevel:             "info",
	}
}

// Load builds the configuration in layers: defaults, then the YAML file at
// path (or $SWAMPSWIPE_CONFIG), then environment variables. A .env file in
// the working directory is loaded first when present. An empty path with no
// $SWAMPSWIPE_CONFIG skips the file layer.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("loading .env: %w", err)
	}

	if envPath := os.Getenv("SWAMPSWIPE_CONFIG"); envPath != "" {
		path = envPath
	}

	cfg := Defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.Address = getEnv("API_ADDRESS", cfg.Address)
	cfg.CatalogPath = getEnv("CATALOG_PATH", cfg.CatalogPath)
	cfg.StoreDriver = getEnv("STORE_DRIVER", cfg.StoreDriver)
	cfg.SQLitePath = getEnv("SQLITE_PATH", cfg.SQLitePath)
	cfg.DatabaseURL = getEnv("DATABASE_URL", cfg.DatabaseURL)
	cfg.GeminiAPIKey = getEnv("GEMINI_API_KEY", cfg.GeminiAPIKey)
	cfg.GeminiModel = getEnv("GEMINI_MODEL", cfg.GeminiModel)
	cfg.GeminiBaseURL = getEnv("GEMINI_BASE_URL", cfg.GeminiBaseURL)
	cfg.ExtractionTimeoutSec = getEnvInt("EXTRACTION_TIMEOUT_SECS", cfg.ExtractionTimeoutSec)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Address == "" {
		return fmt.Errorf("address is required")
	}
	switch c.StoreDriver {
	case DriverMemory:
	case DriverSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("sqlite_path is required for the sqlite store")
		}
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("database_url is required for the postgres store")
		}
	default:
		return fmt.Errorf("unknown store_driver %q (want memory, sqlite or postgres)", c.StoreDriver)
	}
	if c.ExtractionTimeoutSec < 0 {
		return fmt.Errorf("extraction_timeout_secs must be >= 0, got %d", c.ExtractionTimeoutSec)
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	return nil
}

func (c *Config) SlogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		return 0, fmt.Errorf("invalid log_level %q: %w", c.LogLevel, err)
	}
	return lvl, nil
}

func (c *Config) ExtractionTimeout() time.Duration {
	return time.Duration(c.ExtractionTimeoutSec) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}
