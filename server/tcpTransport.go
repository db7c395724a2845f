package server

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"sync"

	"github.com/devlinkd/devlink/proto"
)

// TCPTransport serves endpoints speaking newline-delimited JSON messages over
// a plain TCP socket.
type TCPTransport struct {
	Addr         string
	listener     net.Listener
	onMessage    func(Conn, proto.Message)
	onConnect    func(Conn) error
	onDisconnect func(Conn)

	name        string
	description string
	conns       map[string]Conn
	cmu         sync.RWMutex

	maxConns  int
	connected bool
}

func NewTCPTransport(addr string) *TCPTransport {
	return &TCPTransport{Addr: addr, maxConns: 64, conns: make(map[string]Conn)}
}

func (t *TCPTransport) Start() error {
	slog.Info("Starting tcp listener", "addr", t.Addr)

	if t.onConnect == nil || t.onDisconnect == nil || t.onMessage == nil {
		return fmt.Errorf("the OnConnect, OnDisconnect, or OnMessage function is not defined; this transport is likely being started outside of the relay router")
	}

	l, err := net.Listen("tcp", t.Addr)
	if err != nil {
		return err
	}
	t.listener = l
	t.connected = true
	defer func() {
		l.Close()
		t.connected = false
	}()

	for {
		conn, err := t.listener.Accept()
		if err != nil {
			return err // exits goroutine when listener is closed
		}

		t.cmu.RLock()
		connCount := len(t.conns)
		t.cmu.RUnlock()

		if t.maxConns > 0 && connCount >= t.maxConns {
			slog.Warn("Max connections reached, rejecting", "remote_addr", conn.RemoteAddr())
			conn.Close()
			continue
		}

		go t.handleConnection(conn)
	}
}

func (t *TCPTransport) handleConnection(c net.Conn) {
	ip := c.RemoteAddr().String()

	conn := NewTCPConn(c, t)

	defer func() {
		t.cmu.Lock()
		delete(t.conns, conn.Id)
		t.cmu.Unlock()

		t.onDisconnect(conn)

		c.Close()
		slog.Info("TCP connection closed", "addr", ip, "conn", conn.Id)
	}()

	reader := bufio.NewScanner(c)

	if err := t.onConnect(conn); err != nil {
		slog.Error("Rejected tcp connection", "addr", ip, "error", err.Error())
		return
	}
	t.cmu.Lock()
	t.conns[conn.Id] = conn
	t.cmu.Unlock()

	for reader.Scan() {
		line := reader.Bytes()
		var msg proto.Message
		if err := json.Unmarshal(line, &msg); err != nil {
			slog.Warn("Invalid JSON message received", "error", err, "data", string(line))
			continue
		}
		slog.Debug("Message received", "type", msg.Type, "conn", conn.Id, "size", len(msg.Payload))
		t.onMessage(conn, msg)
	}

	if err := reader.Err(); err != nil {
		slog.Warn("Connection error", "addr", ip, "error", err)
	}
}

func (t *TCPTransport) Shutdown() error {
	slog.Info("Shutting down tcp listener", "addr", t.Addr)
	if t.listener != nil {
		return t.listener.Close()
	}
	return nil
}

func (t *TCPTransport) OnMessage(fn func(Conn, proto.Message)) {
	t.onMessage = fn
}

func (t *TCPTransport) OnConnect(fn func(Conn) error) {
	t.onConnect = fn
}

func (t *TCPTransport) OnDisconnect(fn func(Conn)) {
	t.onDisconnect = fn
}

func (t *TCPTransport) Meta() TransportMetadata {
	t.cmu.RLock()
	conns := t.conns
	t.cmu.RUnlock()
	return TransportMetadata{
		Name:        t.name,
		Description: t.description,
		Protocol:    "tcp",
		Address:     t.Addr,
		Conns:       conns,
		MaxConns:    t.maxConns,
		Connected:   t.connected,
	}
}

func (t *TCPTransport) SetName(name string) {
	t.name = name
}

func (t *TCPTransport) SetMaxConns(n int) {
	t.maxConns = n
}

func (t *TCPTransport) SetDescription(description string) {
	t.description = description
}
