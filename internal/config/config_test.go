package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("YT_API_KEY", "k")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.CacheBackend != CacheBackendFile {
		t.Errorf("cache backend = %s, want file", cfg.CacheBackend)
	}
	if cfg.FetchBuffer != 10*time.Minute {
		t.Errorf("fetch buffer = %v, want 10m", cfg.FetchBuffer)
	}
	if cfg.MaxItemsPerRun != 500 {
		t.Errorf("max items = %d, want 500", cfg.MaxItemsPerRun)
	}
	if cfg.UploadEnabled() {
		t.Error("upload must be off without an S3 endpoint")
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("YT_API_KEY", "k")
	t.Setenv("YT_CACHE_BACKEND", "sqlite")
	t.Setenv("YT_FETCH_BUFFER_MINUTES", "5")
	t.Setenv("YT_MAX_ITEMS_PER_RUN", "100")
	t.Setenv("YT_S3_ENDPOINT", "http://localhost:9000")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.CacheBackend != CacheBackendSQLite {
		t.Errorf("cache backend = %s, want sqlite", cfg.CacheBackend)
	}
	if cfg.FetchBuffer != 5*time.Minute {
		t.Errorf("fetch buffer = %v, want 5m", cfg.FetchBuffer)
	}
	if cfg.MaxItemsPerRun != 100 {
		t.Errorf("max items = %d, want 100", cfg.MaxItemsPerRun)
	}
	if !cfg.UploadEnabled() {
		t.Error("upload must be on with an S3 endpoint")
	}
}

func TestLoad_PostgresRequiresDSN(t *testing.T) {
	t.Setenv("YT_API_KEY", "k")
	t.Setenv("YT_CACHE_BACKEND", "postgres")
	t.Setenv("YT_CACHE_POSTGRES_DSN", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for postgres backend without DSN")
	}
}

func TestLoad_UnknownBackend(t *testing.T) {
	t.Setenv("YT_API_KEY", "k")
	t.Setenv("YT_CACHE_BACKEND", "redis")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for unknown cache backend")
	}
}
