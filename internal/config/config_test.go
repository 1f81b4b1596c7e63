package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.HTTPAddr != ":8080" || cfg.SubscriberBuffer != 1024 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sesh.json")
	if err := os.WriteFile(path, []byte(`{"httpAddr":":9090","retentionAgeMs":60000}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPAddr != ":9090" || cfg.RetentionAgeMs != 60000 {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	// untouched fields keep defaults
	if cfg.SubscriberBuffer != 1024 {
		t.Fatalf("defaults not preserved: %+v", cfg)
	}
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil || cfg != Default() {
		t.Fatalf("unexpected: %+v %v", cfg, err)
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv("SESH_HTTP_ADDR", ":7070")
	t.Setenv("SESH_SUB_BUF", "64")
	t.Setenv("SESH_KEEPALIVE_MS", "0")
	cfg := Default()
	FromEnv(&cfg)
	if cfg.HTTPAddr != ":7070" || cfg.SubscriberBuffer != 64 || cfg.KeepaliveMs != 0 {
		t.Fatalf("env overlay failed: %+v", cfg)
	}
}

func TestFromEnvIgnoresInvalid(t *testing.T) {
	t.Setenv("SESH_SUB_BUF", "not-a-number")
	cfg := Default()
	FromEnv(&cfg)
	if cfg.SubscriberBuffer != 1024 {
		t.Fatalf("invalid env value applied: %+v", cfg)
	}
}
