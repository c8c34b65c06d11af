package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bookreview.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadMissingDefaultFileUsesDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg != Default() {
		t.Fatalf("Load() = %+v, want defaults %+v", cfg, Default())
	}
}

func TestLoadMissingExplicitFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("Load() error = nil, want read error")
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
backend: redis
redisAddr: "cache:6379"
redisDB: 2
namespace: staging
logLevel: debug
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Backend != BackendRedis || cfg.RedisAddr != "cache:6379" || cfg.RedisDB != 2 {
		t.Fatalf("redis settings = %+v", cfg)
	}
	if cfg.Namespace != "staging" || cfg.LogLevel != "debug" {
		t.Fatalf("namespace/logLevel = %q/%q", cfg.Namespace, cfg.LogLevel)
	}
	// Untouched keys keep their defaults.
	if cfg.PasswordScheme != "bcrypt" || cfg.HTTPAddr != ":8080" {
		t.Fatalf("defaults lost: %+v", cfg)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("BOOKREVIEW_BACKEND", "memory")
	t.Setenv("BOOKREVIEW_PASSWORD_SCHEME", "base64")
	t.Setenv("BOOKREVIEW_BCRYPT_COST", "10")
	t.Setenv("BOOKREVIEW_HTTP_ADDR", "127.0.0.1:9000")

	path := writeConfig(t, "backend: sqlite\nhttpAddr: \":8081\"\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Backend != BackendMemory {
		t.Fatalf("backend = %q, want memory", cfg.Backend)
	}
	if cfg.PasswordScheme != "base64" {
		t.Fatalf("passwordScheme = %q, want base64", cfg.PasswordScheme)
	}
	if cfg.BcryptCost != 10 {
		t.Fatalf("bcryptCost = %d, want 10", cfg.BcryptCost)
	}
	if cfg.HTTPAddr != "127.0.0.1:9000" {
		t.Fatalf("httpAddr = %q, want env value", cfg.HTTPAddr)
	}
}

func TestLoadRejectsNonIntegerEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("BOOKREVIEW_REDIS_DB", "two")

	_, err := Load("")
	if err == nil || !strings.Contains(err.Error(), "BOOKREVIEW_REDIS_DB") {
		t.Fatalf("Load() error = %v, want BOOKREVIEW_REDIS_DB complaint", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"unknown backend", func(c *Config) { c.Backend = "postgres" }, "backend"},
		{"sqlite without path", func(c *Config) { c.SQLitePath = "" }, "sqlitePath"},
		{"redis without addr", func(c *Config) { c.Backend = BackendRedis; c.RedisAddr = "" }, "redisAddr"},
		{"memory ignores sqlite path", func(c *Config) { c.Backend = BackendMemory; c.SQLitePath = "" }, ""},
		{"empty namespace", func(c *Config) { c.Namespace = "" }, "namespace"},
		{"unknown scheme", func(c *Config) { c.PasswordScheme = "md5" }, "passwordScheme"},
		{"unknown level", func(c *Config) { c.LogLevel = "trace" }, "logLevel"},
		{"unknown format", func(c *Config) { c.LogFormat = "xml" }, "logFormat"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}
