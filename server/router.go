package server

import (
	"context"
	"log/slog"

	"github.com/devlinkd/devlink/proto"
)

// Router owns the two identity registries and relays typed messages between
// device and client connections. It never connects endpoints to each other;
// every message is resolved through a registry lookup at delivery time.
type Router struct {
	Devices    *Registry[Conn]
	Clients    *Registry[Conn]
	Notifier   *Notifier
	Transports []Transport
}

func NewRouter(devices, clients *Registry[Conn]) *Router {
	return &Router{
		Devices:  devices,
		Clients:  clients,
		Notifier: NewNotifier(clients),
	}
}

// RegisterTransport wires the router's callbacks into a transport. Must be
// called before the transport is started.
func (rt *Router) RegisterTransport(t Transport) {
	t.OnMessage(rt.Handle)
	t.OnConnect(rt.HandleConnect)
	t.OnDisconnect(rt.HandleDisconnect)
	rt.Transports = append(rt.Transports, t)
}

// Start runs all registered transports and blocks until ctx is cancelled,
// then shuts them down.
func (rt *Router) Start(ctx context.Context) error {
	for _, t := range rt.Transports {
		go func(t Transport) {
			if err := t.Start(); err != nil {
				slog.Error("Transport exited", "protocol", t.Meta().Protocol, "addr", t.Meta().Address, "error", err)
			}
		}(t)
	}

	<-ctx.Done()
	slog.Info("Shutting down transports")
	for _, t := range rt.Transports {
		if err := t.Shutdown(); err != nil {
			slog.Error("Error shutting down transport", "protocol", t.Meta().Protocol, "error", err)
		}
	}
	return nil
}

// HandleConnect admits a new connection. Nothing is registered yet: the
// connection stays unaddressable until it sends a registration event.
func (rt *Router) HandleConnect(conn Conn) error {
	slog.Info("Connection established", "conn", conn.Meta().Id, "addr", conn.Meta().RemoteAddr)
	return nil
}

// HandleDisconnect tears down whatever the connection was registered as.
// Device departures are broadcast to clients; client departures are silent.
func (rt *Router) HandleDisconnect(conn Conn) {
	state, identity := conn.Meta().Session.Close()

	switch state {
	case SessionDevice:
		rt.Devices.Delete(identity)
		slog.Info("Device disconnected", "device", identity, "conn", conn.Meta().Id)
		rt.Notifier.DeviceDisconnected(identity)
	case SessionClient:
		rt.Clients.Delete(identity)
		slog.Info("Client disconnected", "client", identity, "conn", conn.Meta().Id)
	default:
		slog.Debug("Unbound connection closed", "conn", conn.Meta().Id)
	}
}

// Handle dispatches one inbound message from a live connection. A malformed
// message only ever affects its own connection's handling.
func (rt *Router) Handle(conn Conn, msg proto.Message) {
	switch msg.Type {
	case proto.TypeRegisterDevice:
		rt.handleRegisterDevice(conn)

	case proto.TypeRegisterClient:
		rt.handleRegisterClient(conn)

	case proto.TypeCommand:
		rt.handleCommand(conn, msg)

	case proto.TypeCommandResponse:
		rt.handleCommandResponse(conn, msg)

	case proto.TypeBinaryStream:
		rt.handleBinaryStream(conn, msg)

	default:
		slog.Warn("Unhandled message type", "type", msg.Type, "conn", conn.Meta().Id)
	}
}
