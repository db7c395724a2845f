package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/devlinkd/devlink/config"
	"github.com/devlinkd/devlink/server"
)

func main() {
	configPath := flag.String("config", "", "path to TOML config file")
	flag.Parse()

	cfg, err := config.LoadServerConfig(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	server.SetupLogger(cfg.Log.Format, cfg.Log.Level)

	opts := server.RelayServerOptions{}
	if cfg.MCP.Enabled {
		opts.MCPServer = server.NewMCPServer()
	}
	relay := server.NewRelayServer(opts)

	advertiser := server.NewAdvertiser()
	defer advertiser.Shutdown()

	if cfg.TCP.Enabled {
		tcp := server.NewTCPTransport(cfg.TCP.Addr)
		tcp.SetName(cfg.TCP.Name)
		tcp.SetDescription(cfg.TCP.Description)
		if cfg.TCP.MaxConns > 0 {
			tcp.SetMaxConns(cfg.TCP.MaxConns)
		}
		relay.RegisterTransport(tcp)

		if cfg.MDNS.Enabled {
			if err := advertiser.Advertise(server.ServiceTypeTCP, cfg.TCP.Addr); err != nil {
				slog.Warn("Failed to advertise tcp listener", "error", err)
			}
		}
	}

	if cfg.WebSocket.Enabled {
		ws := server.NewWSTransport(cfg.WebSocket.Addr)
		ws.SetName(cfg.WebSocket.Name)
		ws.SetDescription(cfg.WebSocket.Description)
		if cfg.WebSocket.MaxConns > 0 {
			ws.SetMaxConns(cfg.WebSocket.MaxConns)
		}
		relay.RegisterTransport(ws)

		if cfg.MDNS.Enabled {
			if err := advertiser.Advertise(server.ServiceTypeWS, cfg.WebSocket.Addr); err != nil {
				slog.Warn("Failed to advertise websocket listener", "error", err)
			}
		}
	}

	if cfg.Status.Enabled {
		relay.ServeStatus(cfg.Status.Addr)
	}

	if err := relay.Start(); err != nil {
		slog.Error("Relay server exited", "error", err)
		os.Exit(1)
	}
}
