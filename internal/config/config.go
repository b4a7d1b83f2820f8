// Package config loads service configuration from config.yaml and
// WAROUTE_-prefixed environment variables.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Server  ServerConfig  `koanf:"server"`
	Storage StorageConfig `koanf:"storage"`
	Proxy   ProxyConfig   `koanf:"proxy"`
	Webhook WebhookConfig `koanf:"webhook"`
	Sync    SyncConfig    `koanf:"sync"`
}

type ServerConfig struct {
	Port           int           `koanf:"port"`
	RequestTimeout time.Duration `koanf:"request_timeout"`
}

type StorageConfig struct {
	Type   string       `koanf:"type"` // sqlite, memory
	SQLite SQLiteConfig `koanf:"sqlite"`
}

type SQLiteConfig struct {
	Path string `koanf:"path"`
}

type ProxyConfig struct {
	UpstreamTimeout time.Duration `koanf:"upstream_timeout"`
}

type WebhookConfig struct {
	VerifyToken string `koanf:"verify_token"`
}

type SyncConfig struct {
	// SourceURL is the remote route-definition source. Empty disables the
	// periodic synchronization job.
	SourceURL string        `koanf:"source_url"`
	Interval  time.Duration `koanf:"interval"`
}

func Load() (*Config, error) {
	return LoadFile("config.yaml")
}

// LoadFile loads configuration from the given YAML file, overridden by
// WAROUTE_ environment variables (double underscore maps to nesting).
func LoadFile(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		// File not found is OK, we'll use env vars
		if !os.IsNotExist(err) {
			return nil, err
		}
	}

	if err := k.Load(env.Provider("WAROUTE_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "WAROUTE_")), "__", ".", -1)
	}), nil); err != nil {
		return nil, err
	}

	// Default values
	if !k.Exists("server.port") {
		k.Set("server.port", 3500)
	}
	if !k.Exists("server.request_timeout") {
		k.Set("server.request_timeout", "60s")
	}
	if !k.Exists("storage.type") {
		k.Set("storage.type", "sqlite")
	}
	if !k.Exists("storage.sqlite.path") {
		k.Set("storage.sqlite.path", "./data/waroute.db")
	}
	if !k.Exists("proxy.upstream_timeout") {
		k.Set("proxy.upstream_timeout", "30s")
	}
	if !k.Exists("sync.interval") {
		k.Set("sync.interval", "5m")
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
