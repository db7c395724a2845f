package server

import (
	"encoding/json"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/devlinkd/devlink/proto"
)

func TestNewWSTransport(t *testing.T) {
	addr := "localhost:0"
	transport := NewWSTransport(addr)

	if transport.Addr != addr {
		t.Errorf("Expected addr %s, got %s", addr, transport.Addr)
	}

	if transport.maxConns != 64 {
		t.Errorf("Expected maxConns 64, got %d", transport.maxConns)
	}

	if transport.conns == nil {
		t.Error("Expected conns map to be initialized")
	}
}

func TestWSTransport_SetMethods(t *testing.T) {
	transport := NewWSTransport("localhost:0")

	transport.SetName("test-ws-transport")
	transport.SetMaxConns(10)
	transport.SetDescription("Test WebSocket transport")

	meta := transport.Meta()

	if meta.Name != "test-ws-transport" {
		t.Errorf("Expected name 'test-ws-transport', got %s", meta.Name)
	}

	if meta.MaxConns != 10 {
		t.Errorf("Expected maxConns 10, got %d", meta.MaxConns)
	}

	if meta.Description != "Test WebSocket transport" {
		t.Errorf("Expected description 'Test WebSocket transport', got %s", meta.Description)
	}
}

func TestWSTransport_StartWithoutCallbacks(t *testing.T) {
	transport := NewWSTransport("localhost:0")

	err := transport.Start()
	if err == nil {
		t.Error("Expected error when starting without callbacks")
	}
}

func getRandomPort(t *testing.T) int {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to get port: %v", err)
	}
	defer listener.Close()
	return listener.Addr().(*net.TCPAddr).Port
}

func TestWSTransport_ConnectionLifecycle(t *testing.T) {
	addr := fmt.Sprintf("127.0.0.1:%d", getRandomPort(t))
	transport := NewWSTransport(addr)

	connected := make(chan Conn, 1)
	disconnected := make(chan Conn, 1)
	received := make(chan proto.Message, 1)

	transport.OnMessage(func(conn Conn, msg proto.Message) {
		received <- msg
	})
	transport.OnConnect(func(conn Conn) error {
		connected <- conn
		return nil
	})
	transport.OnDisconnect(func(conn Conn) {
		disconnected <- conn
	})

	go transport.Start()
	time.Sleep(100 * time.Millisecond)
	defer transport.Shutdown()

	wsConn, _, err := websocket.DefaultDialer.Dial("ws://"+addr+"/", nil)
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	defer wsConn.Close()

	var conn Conn
	select {
	case conn = <-connected:
	case <-time.After(time.Second):
		t.Fatal("OnConnect was not called")
	}

	// Client → server
	msg := mustMessage(t, proto.TypeRegisterDevice, nil)
	data, _ := json.Marshal(msg)
	if err := wsConn.WriteMessage(websocket.TextMessage, data); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	select {
	case got := <-received:
		if got.Type != proto.TypeRegisterDevice {
			t.Errorf("Expected register-device, got %s", got.Type)
		}
	case <-time.After(time.Second):
		t.Fatal("OnMessage was not called")
	}

	// Server → client
	if err := conn.Send(mustMessage(t, proto.TypeRegistrationComplete, proto.RegistrationCompletePayload{DeviceID: "abc123"})); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	wsConn.SetReadDeadline(time.Now().Add(time.Second))
	_, frame, err := wsConn.ReadMessage()
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	var out proto.Message
	if err := json.Unmarshal(frame, &out); err != nil {
		t.Fatalf("Invalid JSON from server: %v", err)
	}
	if out.Type != proto.TypeRegistrationComplete {
		t.Errorf("Expected registration-complete, got %s", out.Type)
	}

	wsConn.Close()
	select {
	case <-disconnected:
	case <-time.After(time.Second):
		t.Fatal("OnDisconnect was not called")
	}
}

func TestWSTransport_InvalidJSONSkipped(t *testing.T) {
	addr := fmt.Sprintf("127.0.0.1:%d", getRandomPort(t))
	transport := NewWSTransport(addr)

	received := make(chan proto.Message, 2)
	transport.OnMessage(func(conn Conn, msg proto.Message) {
		received <- msg
	})
	transport.OnConnect(func(conn Conn) error { return nil })
	transport.OnDisconnect(func(conn Conn) {})

	go transport.Start()
	time.Sleep(100 * time.Millisecond)
	defer transport.Shutdown()

	wsConn, _, err := websocket.DefaultDialer.Dial("ws://"+addr+"/", nil)
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	defer wsConn.Close()

	wsConn.WriteMessage(websocket.TextMessage, []byte("this is not json"))
	msg := mustMessage(t, proto.TypeRegisterClient, nil)
	data, _ := json.Marshal(msg)
	wsConn.WriteMessage(websocket.TextMessage, data)

	select {
	case got := <-received:
		if got.Type != proto.TypeRegisterClient {
			t.Errorf("Expected the valid message to survive, got %s", got.Type)
		}
	case <-time.After(time.Second):
		t.Fatal("Valid message after garbage was not delivered")
	}
}
