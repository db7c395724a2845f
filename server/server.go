package server

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

// RelayServerOptions configures a RelayServer. Zero-value fields fall back to
// fresh in-memory defaults so tests can inject their own registries.
type RelayServerOptions struct {
	Devices   *Registry[Conn] // Optional (defaults to a new Registry)
	Clients   *Registry[Conn] // Optional (defaults to a new Registry)
	MCPServer *MCPServer      // Optional MCP server to run alongside
	Context   context.Context // Optional (defaults to context.Background())
}

// RelayServer ties the router, its transports, and the optional sidecar
// servers (status page, MCP) into one process lifecycle.
type RelayServer struct {
	options RelayServerOptions
	router  *Router
	status  *StatusServer
}

func NewRelayServer(opts RelayServerOptions) *RelayServer {
	if opts.Devices == nil {
		opts.Devices = NewRegistry[Conn]()
	}
	if opts.Clients == nil {
		opts.Clients = NewRegistry[Conn]()
	}
	if opts.Context == nil {
		opts.Context = context.Background()
	}

	router := NewRouter(opts.Devices, opts.Clients)
	if opts.MCPServer != nil {
		opts.MCPServer.RegisterTools(router)
	}

	return &RelayServer{
		options: opts,
		router:  router,
	}
}

func (s *RelayServer) Router() *Router {
	return s.router
}

func (s *RelayServer) RegisterTransport(t Transport) {
	s.router.RegisterTransport(t)
}

// ServeStatus attaches a status server that starts and stops with the relay.
func (s *RelayServer) ServeStatus(addr string) {
	s.status = NewStatusServer(addr, s.router)
}

// Start runs the relay until the parent context is cancelled or the process
// receives SIGINT/SIGTERM.
func (s *RelayServer) Start() error {
	ctx, stop := signal.NotifyContext(s.options.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if s.options.MCPServer != nil {
		go func() {
			if err := s.options.MCPServer.Start(); err != nil {
				slog.Error("MCP server exited", "error", err)
			}
		}()
	}
	if s.status != nil {
		go func() {
			if err := s.status.Start(); err != nil {
				slog.Error("Status server exited", "error", err)
			}
		}()
		defer func() {
			if err := s.status.Shutdown(); err != nil {
				slog.Error("Error shutting down status server", "error", err)
			}
		}()
	}

	return s.router.Start(ctx)
}

// SetupLogger installs the process-wide slog handler. format is "json" or
// "text"; level is one of "debug", "info", "warn", "error".
func SetupLogger(format, level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	}
	slog.SetDefault(slog.New(handler))
}
