package config

import (
	"fmt"
	"net"
	"os"

	"github.com/pelletier/go-toml/v2"
)

type ServerConfig struct {
	Log       LogConfig      `toml:"log"`
	TCP       ListenerConfig `toml:"tcp"`
	WebSocket ListenerConfig `toml:"websocket"`
	Status    StatusConfig   `toml:"status"`
	MCP       MCPConfig      `toml:"mcp"`
	MDNS      MDNSConfig     `toml:"mdns"`
}

type LogConfig struct {
	Format string `toml:"format"` // "text" or "json"
	Level  string `toml:"level"`  // "debug", "info", "warn", "error"
}

type ListenerConfig struct {
	Enabled     bool   `toml:"enabled"`
	Addr        string `toml:"addr"`
	MaxConns    int    `toml:"max_conns"`
	Name        string `toml:"name"`
	Description string `toml:"description"`
}

type StatusConfig struct {
	Enabled bool   `toml:"enabled"`
	Addr    string `toml:"addr"`
}

type MCPConfig struct {
	Enabled bool `toml:"enabled"`
}

type MDNSConfig struct {
	Enabled bool `toml:"enabled"`
}

// DefaultServerConfig is what a relay runs with when no config file is given.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Log:       LogConfig{Format: "text", Level: "info"},
		TCP:       ListenerConfig{Enabled: true, Addr: "0.0.0.0:8888", MaxConns: 64, Name: "Main TCP listener"},
		WebSocket: ListenerConfig{Enabled: true, Addr: "0.0.0.0:8080", MaxConns: 64, Name: "Main WebSocket listener"},
		Status:    StatusConfig{Enabled: true, Addr: "0.0.0.0:3000"},
	}
}

// LoadServerConfig reads a TOML config file, filling unset fields with
// defaults. An empty path returns the defaults unchanged.
func LoadServerConfig(path string) (ServerConfig, error) {
	cfg := DefaultServerConfig()
	if path == "" {
		return cfg, nil
	}
	if err := loadToml(path, &cfg); err != nil {
		return ServerConfig{}, err
	}
	if err := ValidateServerConfig(cfg); err != nil {
		return ServerConfig{}, err
	}
	return cfg, nil
}

func ValidateServerConfig(cfg ServerConfig) error {
	switch cfg.Log.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("invalid log format %q", cfg.Log.Format)
	}
	switch cfg.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q", cfg.Log.Level)
	}

	listeners := map[string]ListenerConfig{
		"tcp":       cfg.TCP,
		"websocket": cfg.WebSocket,
	}
	for name, l := range listeners {
		if !l.Enabled {
			continue
		}
		if _, _, err := net.SplitHostPort(l.Addr); err != nil {
			return fmt.Errorf("invalid %s addr %q: %w", name, l.Addr, err)
		}
		if l.MaxConns < 0 {
			return fmt.Errorf("invalid %s max_conns %d", name, l.MaxConns)
		}
	}
	if cfg.Status.Enabled {
		if _, _, err := net.SplitHostPort(cfg.Status.Addr); err != nil {
			return fmt.Errorf("invalid status addr %q: %w", cfg.Status.Addr, err)
		}
	}
	if !cfg.TCP.Enabled && !cfg.WebSocket.Enabled {
		return fmt.Errorf("at least one of tcp or websocket must be enabled")
	}
	return nil
}

func loadToml(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := toml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return nil
}
