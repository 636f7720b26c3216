// Package config resolves the harvester's runtime configuration from the
// environment. Every knob has a usable default so a local run only needs
// YT_API_KEY set.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
)

// Cache backend selectors for Config.CacheBackend.
const (
	CacheBackendFile     = "file"
	CacheBackendSQLite   = "sqlite"
	CacheBackendPostgres = "postgres"
	CacheBackendMemory   = "memory"
)

// Config is the resolved runtime configuration.
type Config struct {
	APIKey       string
	ChannelsFile string
	OutputDir    string
	WriteParquet bool

	CacheBackend string
	CacheDir     string
	PostgresDSN  string

	FetchBuffer    time.Duration
	MaxItemsPerRun int

	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
	S3Region    string
	S3UseSSL    bool
	S3Bucket    string
	S3Prefix    string

	LogLevel string
}

// Load reads configuration from the environment and applies defaults.
func Load() (*Config, error) {
	cfg := &Config{
		APIKey:       os.Getenv("YT_API_KEY"),
		ChannelsFile: getEnv("YT_CHANNELS_FILE", "channels.csv"),
		OutputDir:    getEnv("YT_OUTPUT_DIR", "output"),
		WriteParquet: getEnvBool("YT_WRITE_PARQUET", false),

		CacheBackend: strings.ToLower(getEnv("YT_CACHE_BACKEND", CacheBackendFile)),
		CacheDir:     getEnv("YT_CACHE_DIR", defaultCacheDir()),
		PostgresDSN:  os.Getenv("YT_CACHE_POSTGRES_DSN"),

		FetchBuffer:    time.Duration(getEnvInt("YT_FETCH_BUFFER_MINUTES", 10)) * time.Minute,
		MaxItemsPerRun: getEnvInt("YT_MAX_ITEMS_PER_RUN", 500),

		S3Endpoint:  os.Getenv("YT_S3_ENDPOINT"),
		S3AccessKey: os.Getenv("YT_S3_ACCESS_KEY"),
		S3SecretKey: os.Getenv("YT_S3_SECRET_KEY"),
		S3Region:    os.Getenv("YT_S3_REGION"),
		S3UseSSL:    getEnvBool("YT_S3_USE_SSL", false),
		S3Bucket:    getEnv("YT_S3_BUCKET", "youtube-data"),
		S3Prefix:    os.Getenv("YT_S3_PREFIX"),

		LogLevel: getEnv("YT_LOG_LEVEL", "info"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field consistency.
func (c *Config) Validate() error {
	switch c.CacheBackend {
	case CacheBackendFile, CacheBackendSQLite, CacheBackendMemory:
	case CacheBackendPostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("YT_CACHE_POSTGRES_DSN is required for the postgres cache backend")
		}
	default:
		return fmt.Errorf("unknown cache backend %q", c.CacheBackend)
	}
	if c.FetchBuffer < 0 {
		return fmt.Errorf("fetch buffer must not be negative")
	}
	if c.MaxItemsPerRun <= 0 {
		return fmt.Errorf("max items per run must be positive")
	}
	return nil
}

// UploadEnabled reports whether an object-store target is configured.
func (c *Config) UploadEnabled() bool {
	return c.S3Endpoint != ""
}

func defaultCacheDir() string {
	return filepath.Join(xdg.DataHome, "yt-ingest")
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
