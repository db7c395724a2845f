package server

import (
	"time"

	"github.com/google/uuid"

	"github.com/devlinkd/devlink/proto"
)

// Transport accepts persistent endpoint connections and delivers framed typed
// messages from them. The relay wires its callbacks in before Start; a
// transport never interprets message payloads itself.
type Transport interface {
	Start() error
	OnMessage(func(Conn, proto.Message))
	OnConnect(func(Conn) error)
	OnDisconnect(func(Conn))
	Shutdown() error
	Meta() TransportMetadata
	SetName(name string)
	SetDescription(description string)
}

type TransportMetadata struct {
	Name        string // Human-friendly name, e.g. "Main TCP listener"
	Protocol    string // Protocol name, e.g. "tcp", "websocket"
	Address     string // Bind address, e.g. "0.0.0.0:8080"
	Description string // Optional, short purpose/use case

	Conns     map[string]Conn // Current live connections, keyed by connection id
	MaxConns  int             // Max allowed connections (0 = unlimited)
	Connected bool            // Whether the transport is currently running/bound
}

// ConnMetadata is the per-connection record a transport maintains. The Id is
// the transport-level handle (unique per live connection); the domain
// identity, if any, lives in Session.
type ConnMetadata struct {
	Id          string
	RemoteAddr  string
	ConnectedAt time.Time
	Transport   Transport
	Session     Session
}

// Conn is a live endpoint connection. Send must be safe for concurrent use:
// relayed traffic and lifecycle broadcasts can target the same connection
// from different goroutines.
type Conn interface {
	Send(proto.Message) error
	Meta() *ConnMetadata
}

func generateConnId(prefix string) string {
	return prefix + "-" + uuid.NewString()
}
