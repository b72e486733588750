package config

import (
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/uci_test")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Port != "8000" {
		t.Errorf("expected default port 8000, got %s", cfg.Port)
	}
	if !cfg.IsDev() {
		t.Error("default env should be development")
	}
	if cfg.DBMaxConns != 20 || cfg.DBMinConns != 5 {
		t.Errorf("unexpected pool defaults: %d/%d", cfg.DBMaxConns, cfg.DBMinConns)
	}
	if cfg.CacheTTLSeconds != 60 {
		t.Errorf("expected default TTL 60, got %d", cfg.CacheTTLSeconds)
	}
	if cfg.MigrationsDir != "./migrations" {
		t.Errorf("unexpected migrations dir %q", cfg.MigrationsDir)
	}
}

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	if _, err := Load(); err == nil {
		t.Fatal("Load should fail without DATABASE_URL")
	}
}

func TestValidateRedisScheme(t *testing.T) {
	cfg := &Config{DatabaseURL: "postgres://localhost/x", RedisURL: "http://localhost:6379"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("non-redis scheme should be rejected")
	}

	cfg.RedisURL = "redis://localhost:6379/0"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("valid redis URL rejected: %v", err)
	}
}

func TestValidateNegativeTTL(t *testing.T) {
	cfg := &Config{DatabaseURL: "postgres://localhost/x", CacheTTLSeconds: -1}
	if err := cfg.Validate(); err == nil {
		t.Fatal("negative TTL should be rejected")
	}
}

func TestCORSOriginsSplit(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/uci_test")
	t.Setenv("CORS_ORIGINS", "http://a.example,http://b.example")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(cfg.CORSOrigins) != 2 {
		t.Fatalf("expected 2 origins, got %v", cfg.CORSOrigins)
	}
}
