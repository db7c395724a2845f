package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/devlinkd/devlink/proto"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for now
	},
}

// WSTransport serves endpoints speaking JSON messages over WebSocket text
// frames. Connections upgrade on "/".
type WSTransport struct {
	Addr         string
	server       *http.Server
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

func NewWSTransport(addr string) *WSTransport {
	return &WSTransport{
		Addr:     addr,
		maxConns: 64,
		conns:    make(map[string]Conn),
	}
}

func (t *WSTransport) Start() error {
	slog.Info("Starting WebSocket listener", "addr", t.Addr)

	if t.onConnect == nil || t.onDisconnect == nil || t.onMessage == nil {
		return fmt.Errorf("the OnConnect, OnDisconnect, or OnMessage function is not defined; this transport is likely being started outside of the relay router")
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", t.handleWebSocket)

	t.server = &http.Server{
		Addr:    t.Addr,
		Handler: mux,
	}

	t.connected = true
	err := t.server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		t.connected = false
		return err
	}

	return nil
}

func (t *WSTransport) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("Failed to upgrade connection", "error", err)
		return
	}

	t.cmu.RLock()
	connCount := len(t.conns)
	t.cmu.RUnlock()

	if t.maxConns > 0 && connCount >= t.maxConns {
		slog.Warn("Max connections reached, rejecting", "remote_addr", r.RemoteAddr)
		conn.Close()
		return
	}

	go t.handleConnection(conn, r.RemoteAddr)
}

func (t *WSTransport) handleConnection(wsConn *websocket.Conn, remoteAddr string) {
	conn := NewWSConn(wsConn, t, remoteAddr)

	defer func() {
		t.cmu.Lock()
		delete(t.conns, conn.Id)
		t.cmu.Unlock()

		t.onDisconnect(conn)

		wsConn.Close()
		slog.Info("WebSocket connection closed", "addr", remoteAddr, "conn", conn.Id)
	}()

	if err := t.onConnect(conn); err != nil {
		slog.Error("Rejected WebSocket connection", "addr", remoteAddr, "error", err.Error())
		return
	}

	t.cmu.Lock()
	t.conns[conn.Id] = conn
	t.cmu.Unlock()

	for {
		_, messageBytes, err := wsConn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Warn("WebSocket connection error", "addr", remoteAddr, "error", err)
			}
			break
		}

		var msg proto.Message
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			slog.Warn("Invalid JSON message received", "error", err, "data", string(messageBytes))
			continue
		}

		slog.Debug("WebSocket message received", "type", msg.Type, "conn", conn.Id, "size", len(msg.Payload))
		t.onMessage(conn, msg)
	}
}

func (t *WSTransport) Shutdown() error {
	slog.Info("Shutting down WebSocket listener", "addr", t.Addr)
	t.connected = false
	if t.server != nil {
		return t.server.Close()
	}
	return nil
}

func (t *WSTransport) OnMessage(fn func(Conn, proto.Message)) {
	t.onMessage = fn
}

func (t *WSTransport) OnConnect(fn func(Conn) error) {
	t.onConnect = fn
}

func (t *WSTransport) OnDisconnect(fn func(Conn)) {
	t.onDisconnect = fn
}

func (t *WSTransport) Meta() TransportMetadata {
	t.cmu.RLock()
	conns := t.conns
	t.cmu.RUnlock()
	return TransportMetadata{
		Name:        t.name,
		Description: t.description,
		Protocol:    "websocket",
		Address:     t.Addr,
		Conns:       conns,
		MaxConns:    t.maxConns,
		Connected:   t.connected,
	}
}

func (t *WSTransport) SetName(name string) {
	t.name = name
}

func (t *WSTransport) SetMaxConns(n int) {
	t.maxConns = n
}

func (t *WSTransport) SetDescription(description string) {
	t.description = description
}
