package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	if cfg.Server.Port != 3500 {
		t.Errorf("Server.Port = %d, want 3500", cfg.Server.Port)
	}
	if cfg.Storage.Type != "sqlite" {
		t.Errorf("Storage.Type = %q, want sqlite", cfg.Storage.Type)
	}
	if cfg.Proxy.UpstreamTimeout != 30*time.Second {
		t.Errorf("Proxy.UpstreamTimeout = %v, want 30s", cfg.Proxy.UpstreamTimeout)
	}
	if cfg.Sync.Interval != 5*time.Minute {
		t.Errorf("Sync.Interval = %v, want 5m", cfg.Sync.Interval)
	}
	if cfg.Sync.SourceURL != "" {
		t.Errorf("Sync.SourceURL = %q, want empty (disabled)", cfg.Sync.SourceURL)
	}
}

func TestLoadFromFile(t *testing.T) {
	yaml := `
server:
  port: 9999
webhook:
  verify_token: topsecret
sync:
  source_url: https://routes.example/feed
  interval: 90s
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	if cfg.Server.Port != 9999 {
		t.Errorf("Server.Port = %d, want 9999", cfg.Server.Port)
	}
	if cfg.Webhook.VerifyToken != "topsecret" {
		t.Errorf("Webhook.VerifyToken = %q, want topsecret", cfg.Webhook.VerifyToken)
	}
	if cfg.Sync.SourceURL != "https://routes.example/feed" {
		t.Errorf("Sync.SourceURL = %q", cfg.Sync.SourceURL)
	}
	if cfg.Sync.Interval != 90*time.Second {
		t.Errorf("Sync.Interval = %v, want 90s", cfg.Sync.Interval)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	yaml := "server:\n  port: 1000\n"
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	t.Setenv("WAROUTE_SERVER__PORT", "2000")
	t.Setenv("WAROUTE_WEBHOOK__VERIFY_TOKEN", "from-env")

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	if cfg.Server.Port != 2000 {
		t.Errorf("Server.Port = %d, want env override 2000", cfg.Server.Port)
	}
	if cfg.Webhook.VerifyToken != "from-env" {
		t.Errorf("Webhook.VerifyToken = %q, want from-env", cfg.Webhook.VerifyToken)
	}
}
