package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "relay.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadServerConfig_Defaults(t *testing.T) {
	cfg, err := LoadServerConfig("")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if !cfg.TCP.Enabled || cfg.TCP.Addr != "0.0.0.0:8888" {
		t.Errorf("unexpected tcp defaults: %+v", cfg.TCP)
	}
	if !cfg.WebSocket.Enabled || cfg.WebSocket.Addr != "0.0.0.0:8080" {
		t.Errorf("unexpected websocket defaults: %+v", cfg.WebSocket)
	}
	if !cfg.Status.Enabled || cfg.Status.Addr != "0.0.0.0:3000" {
		t.Errorf("unexpected status defaults: %+v", cfg.Status)
	}
	if cfg.MCP.Enabled || cfg.MDNS.Enabled {
		t.Error("expected mcp and mdns disabled by default")
	}
	if cfg.Log.Format != "text" || cfg.Log.Level != "info" {
		t.Errorf("unexpected log defaults: %+v", cfg.Log)
	}
}

func TestLoadServerConfig_Overrides(t *testing.T) {
	path := writeConfig(t, `
[log]
format = "json"
level = "debug"

[tcp]
enabled = true
addr = "127.0.0.1:9999"
max_conns = 8
name = "lab tcp"

[websocket]
enabled = false

[status]
enabled = true
addr = "127.0.0.1:9090"

[mdns]
enabled = true
`)

	cfg, err := LoadServerConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.Log.Format != "json" || cfg.Log.Level != "debug" {
		t.Errorf("unexpected log config: %+v", cfg.Log)
	}
	if cfg.TCP.Addr != "127.0.0.1:9999" {
		t.Errorf("unexpected tcp addr: %q", cfg.TCP.Addr)
	}
	if cfg.TCP.MaxConns != 8 {
		t.Errorf("unexpected tcp max_conns: %d", cfg.TCP.MaxConns)
	}
	if cfg.TCP.Name != "lab tcp" {
		t.Errorf("unexpected tcp name: %q", cfg.TCP.Name)
	}
	if cfg.WebSocket.Enabled {
		t.Error("expected websocket disabled")
	}
	if cfg.Status.Addr != "127.0.0.1:9090" {
		t.Errorf("unexpected status addr: %q", cfg.Status.Addr)
	}
	if !cfg.MDNS.Enabled {
		t.Error("expected mdns enabled")
	}
}

func TestLoadServerConfig_MissingFile(t *testing.T) {
	if _, err := LoadServerConfig("/nonexistent/relay.toml"); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestLoadServerConfig_InvalidTOML(t *testing.T) {
	path := writeConfig(t, "this is not toml :::")
	if _, err := LoadServerConfig(path); err == nil {
		t.Error("expected error for invalid toml")
	}
}

func TestValidateServerConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ServerConfig)
		wantErr bool
	}{
		{"defaults valid", func(c *ServerConfig) {}, false},
		{"bad log format", func(c *ServerConfig) { c.Log.Format = "xml" }, true},
		{"bad log level", func(c *ServerConfig) { c.Log.Level = "verbose" }, true},
		{"bad tcp addr", func(c *ServerConfig) { c.TCP.Addr = "no-port" }, true},
		{"negative max conns", func(c *ServerConfig) { c.TCP.MaxConns = -1 }, true},
		{"bad status addr", func(c *ServerConfig) { c.Status.Addr = "no-port" }, true},
		{"disabled listener addr ignored", func(c *ServerConfig) { c.WebSocket.Enabled = false; c.WebSocket.Addr = "garbage" }, false},
		{"all listeners disabled", func(c *ServerConfig) { c.TCP.Enabled = false; c.WebSocket.Enabled = false }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultServerConfig()
			tt.mutate(&cfg)
			err := ValidateServerConfig(cfg)
			if tt.wantErr && err == nil {
				t.Error("expected error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}
