package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	yaml := `
server:
  listen_addr: ":8080"
upstream:
  connect_timeout: 10s
  proxy:
    url: http://127.0.0.1:7897
    enabled: true
database:
  host: localhost
  name: relay
  user: relay
  password: secret
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.ListenAddr != ":8080" {
		t.Errorf("Server.ListenAddr = %q, want %q", cfg.Server.ListenAddr, ":8080")
	}
	if cfg.Upstream.ConnectTimeout != 10*time.Second {
		t.Errorf("Upstream.ConnectTimeout = %v, want 10s", cfg.Upstream.ConnectTimeout)
	}
	if !cfg.Upstream.Proxy.Enabled {
		t.Error("Upstream.Proxy.Enabled = false, want true")
	}
	if cfg.Upstream.Proxy.URL != "http://127.0.0.1:7897" {
		t.Errorf("Upstream.Proxy.URL = %q, want %q", cfg.Upstream.Proxy.URL, "http://127.0.0.1:7897")
	}
	if cfg.Database.Host != "localhost" {
		t.Errorf("Database.Host = %q, want %q", cfg.Database.Host, "localhost")
	}
}

func TestLoadWithEnvSubstitution(t *testing.T) {
	t.Setenv("TEST_DB_PASSWORD", "secret123")

	yaml := `
database:
  host: localhost
  name: relay
  user: relay
  password: ${TEST_DB_PASSWORD}
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Database.Password != "secret123" {
		t.Errorf("Database.Password = %q, want %q", cfg.Database.Password, "secret123")
	}
}

func TestLoadWithDefaults(t *testing.T) {
	path := writeTempFile(t, "{}\n")

	cfg, err := LoadWithDefaults(path)
	if err != nil {
		t.Fatalf("LoadWithDefaults failed: %v", err)
	}

	if cfg.Server.ListenAddr != DefaultListenAddr {
		t.Errorf("Server.ListenAddr = %q, want default %q", cfg.Server.ListenAddr, DefaultListenAddr)
	}
	if cfg.Upstream.ConnectTimeout != DefaultConnectTimeout {
		t.Errorf("Upstream.ConnectTimeout = %v, want default %v", cfg.Upstream.ConnectTimeout, DefaultConnectTimeout)
	}
	if cfg.Hub.SendBufferSize != DefaultSendBufferSize {
		t.Errorf("Hub.SendBufferSize = %d, want default %d", cfg.Hub.SendBufferSize, DefaultSendBufferSize)
	}
	if cfg.Database.Enabled() {
		t.Error("Database.Enabled() = true for empty host, want false")
	}
	// DB defaults are only applied when a host is configured.
	if cfg.Database.Port != 0 {
		t.Errorf("Database.Port = %d, want 0 when disabled", cfg.Database.Port)
	}
}

func TestLoadWithDefaults_DatabaseEnabled(t *testing.T) {
	yaml := `
database:
  host: localhost
  name: relay
  user: relay
  password: secret
`
	cfg, err := LoadWithDefaults(writeTempFile(t, yaml))
	if err != nil {
		t.Fatalf("LoadWithDefaults failed: %v", err)
	}

	if cfg.Database.Port != DefaultDBPort {
		t.Errorf("Database.Port = %d, want default %d", cfg.Database.Port, DefaultDBPort)
	}
	if cfg.Database.SSLMode != DefaultDBSSLMode {
		t.Errorf("Database.SSLMode = %q, want default %q", cfg.Database.SSLMode, DefaultDBSSLMode)
	}
	if cfg.Sink.BatchSize != DefaultSinkBatchSize {
		t.Errorf("Sink.BatchSize = %d, want default %d", cfg.Sink.BatchSize, DefaultSinkBatchSize)
	}
}

func TestValidate(t *testing.T) {
	valid := func() RelayConfig {
		cfg := RelayConfig{}
		cfg.applyDefaults()
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*RelayConfig)
		wantErr string
	}{
		{
			name:    "defaults are valid",
			mutate:  func(c *RelayConfig) {},
			wantErr: "",
		},
		{
			name:    "missing listen addr",
			mutate:  func(c *RelayConfig) { c.Server.ListenAddr = "" },
			wantErr: "server.listen_addr is required",
		},
		{
			name:    "non-positive connect timeout",
			mutate:  func(c *RelayConfig) { c.Upstream.ConnectTimeout = 0 },
			wantErr: "upstream.connect_timeout must be positive",
		},
		{
			name: "proxy enabled without url",
			mutate: func(c *RelayConfig) {
				c.Upstream.Proxy.Enabled = true
				c.Upstream.Proxy.URL = ""
			},
			wantErr: "upstream.proxy.url is required when proxy is enabled",
		},
		{
			name: "database missing password",
			mutate: func(c *RelayConfig) {
				c.Database = DBConfig{Host: "localhost", Name: "relay", User: "relay"}
			},
			wantErr: "database.password is required",
		},
		{
			name: "min_conns exceeds max_conns",
			mutate: func(c *RelayConfig) {
				c.Database = DBConfig{
					Host: "localhost", Name: "relay", User: "relay", Password: "x",
					MaxConns: 2, MinConns: 5,
				}
				c.Sink = SinkConfig{BatchSize: 10, FlushInterval: time.Second}
			},
			wantErr: "database.min_conns (5) cannot exceed max_conns (2)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() expected error containing %q, got nil", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %q, want %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}
