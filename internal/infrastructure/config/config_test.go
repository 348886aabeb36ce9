package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeConfigFile writes a temporary YAML config and returns its path.
func writeConfigFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing config file: %v", err)
	}
	return path
}

const validKey = "0123456789abcdef0123456789abcdef"

func TestLoad_Defaults(t *testing.T) {
	path := writeConfigFile(t, "security:\n  encryption_key: "+validKey+"\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Database.Path != "./data/homeydash.db" {
		t.Errorf("Database.Path = %q, want default", cfg.Database.Path)
	}
	if !cfg.Database.WALMode {
		t.Error("Database.WALMode should default to true")
	}
	if cfg.Hub.RequestTimeout != 10 {
		t.Errorf("Hub.RequestTimeout = %d, want 10", cfg.Hub.RequestTimeout)
	}
	if cfg.Hub.CacheTTL != 60 {
		t.Errorf("Hub.CacheTTL = %d, want 60", cfg.Hub.CacheTTL)
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfigFile(t, `
server:
  port: 9000
hub:
  request_timeout: 15
  connect_timeout: 3
  cache_ttl: 30
security:
  encryption_key: `+validKey+`
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9000 {
		t.Errorf("Server.Port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.Hub.RequestTimeout != 15 {
		t.Errorf("Hub.RequestTimeout = %d, want 15", cfg.Hub.RequestTimeout)
	}
	if cfg.Hub.CacheTTL != 30 {
		t.Errorf("Hub.CacheTTL = %d, want 30", cfg.Hub.CacheTTL)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfigFile(t, "security:\n  encryption_key: "+validKey+"\n")

	t.Setenv("HOMEYDASH_SERVER_PORT", "7070")
	t.Setenv("HOMEYDASH_DATABASE_PATH", "/tmp/override.db")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 7070 {
		t.Errorf("Server.Port = %d, want 7070", cfg.Server.Port)
	}
	if cfg.Database.Path != "/tmp/override.db" {
		t.Errorf("Database.Path = %q, want /tmp/override.db", cfg.Database.Path)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Error("Load() should fail for missing file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "missing encryption key",
			mutate:  func(c *Config) { c.Security.EncryptionKey = "" },
			wantErr: "encryption_key is required",
		},
		{
			name:    "short encryption key",
			mutate:  func(c *Config) { c.Security.EncryptionKey = "too-short" },
			wantErr: "at least 32 characters",
		},
		{
			name:    "invalid port",
			mutate:  func(c *Config) { c.Server.Port = 0 },
			wantErr: "server.port",
		},
		{
			name:    "connect timeout exceeds request timeout",
			mutate:  func(c *Config) { c.Hub.ConnectTimeout = 20 },
			wantErr: "connect_timeout",
		},
		{
			name:    "empty database path",
			mutate:  func(c *Config) { c.Database.Path = "" },
			wantErr: "database.path",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			cfg.Security.EncryptionKey = validKey
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatal("Validate() error = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %q, want substring %q", err, tt.wantErr)
			}
		})
	}
}
