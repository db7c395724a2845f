package server

import (
	"testing"
)

func TestSession_BindDevice(t *testing.T) {
	var s Session

	if err := s.Bind(SessionDevice, "abc123"); err != nil {
		t.Fatalf("Expected bind to succeed, got %v", err)
	}

	state, identity := s.State()
	if state != SessionDevice {
		t.Errorf("Expected state device, got %s", state)
	}
	if identity != "abc123" {
		t.Errorf("Expected identity abc123, got %s", identity)
	}
}

func TestSession_BindClient(t *testing.T) {
	var s Session

	if err := s.Bind(SessionClient, "def456"); err != nil {
		t.Fatalf("Expected bind to succeed, got %v", err)
	}

	state, _ := s.State()
	if state != SessionClient {
		t.Errorf("Expected state client, got %s", state)
	}
}

func TestSession_Rebind(t *testing.T) {
	var s Session

	if err := s.Bind(SessionDevice, "abc123"); err != nil {
		t.Fatalf("Expected first bind to succeed, got %v", err)
	}

	if err := s.Bind(SessionClient, "def456"); err == nil {
		t.Error("Expected rebind to fail")
	}
	if err := s.Bind(SessionDevice, "ghi789"); err == nil {
		t.Error("Expected rebind to fail")
	}

	// Original binding must be untouched
	state, identity := s.State()
	if state != SessionDevice || identity != "abc123" {
		t.Errorf("Expected device/abc123 after rejected rebinds, got %s/%s", state, identity)
	}
}

func TestSession_BindInvalidState(t *testing.T) {
	var s Session

	if err := s.Bind(SessionUnbound, "abc123"); err == nil {
		t.Error("Expected binding as unbound to fail")
	}
	if err := s.Bind(SessionClosed, "abc123"); err == nil {
		t.Error("Expected binding as closed to fail")
	}
}

func TestSession_Close(t *testing.T) {
	var s Session
	s.Bind(SessionDevice, "abc123")

	state, identity := s.Close()
	if state != SessionDevice {
		t.Errorf("Expected close to report device, got %s", state)
	}
	if identity != "abc123" {
		t.Errorf("Expected close to report identity abc123, got %s", identity)
	}

	if cur, _ := s.State(); cur != SessionClosed {
		t.Errorf("Expected state closed after close, got %s", cur)
	}
}

func TestSession_CloseUnbound(t *testing.T) {
	var s Session

	state, identity := s.Close()
	if state != SessionUnbound {
		t.Errorf("Expected close to report unbound, got %s", state)
	}
	if identity != "" {
		t.Errorf("Expected empty identity, got %s", identity)
	}
}

func TestSession_CloseTwice(t *testing.T) {
	var s Session
	s.Bind(SessionDevice, "abc123")
	s.Close()

	state, identity := s.Close()
	if state != SessionClosed || identity != "" {
		t.Errorf("Expected second close to report closed with no identity, got %s/%s", state, identity)
	}
}

func TestSession_BindAfterClose(t *testing.T) {
	var s Session
	s.Close()

	if err := s.Bind(SessionDevice, "abc123"); err == nil {
		t.Error("Expected bind after close to fail")
	}
}
