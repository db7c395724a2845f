package server

import (
	"fmt"
	"sync"
)

// SessionState tracks what a connection has been bound as. A connection binds
// at most once and the binding is immutable until the connection closes.
type SessionState int

const (
	SessionUnbound SessionState = iota
	SessionDevice
	SessionClient
	SessionClosed
)

func (s SessionState) String() string {
	switch s {
	case SessionUnbound:
		return "unbound"
	case SessionDevice:
		return "device"
	case SessionClient:
		return "client"
	case SessionClosed:
		return "closed"
	default:
		return fmt.Sprintf("SessionState(%d)", int(s))
	}
}

// Session is the per-connection registration state machine:
// Unbound → Device | Client (terminal while live) → Closed.
// Transport callbacks for different connections run on different goroutines,
// so all transitions take the session mutex.
type Session struct {
	mu       sync.Mutex
	state    SessionState
	identity string
}

// Bind transitions an unbound session to Device or Client and records the
// minted identity. Any other transition is rejected.
func (s *Session) Bind(state SessionState, identity string) error {
	if state != SessionDevice && state != SessionClient {
		return fmt.Errorf("cannot bind session as %s", state)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != SessionUnbound {
		return fmt.Errorf("connection already %s", s.state)
	}
	s.state = state
	s.identity = identity
	return nil
}

// Close marks the session closed and returns the state and identity it held,
// so disconnect handling can tear down the right registry entry. Closing an
// already-closed session reports Closed with an empty identity.
func (s *Session) Close() (SessionState, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == SessionClosed {
		return SessionClosed, ""
	}
	state, identity := s.state, s.identity
	s.state = SessionClosed
	s.identity = ""
	return state, identity
}

// State returns the current state and bound identity.
func (s *Session) State() (SessionState, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, s.identity
}

// Identity returns the bound identity, or "" while unbound or closed.
func (s *Session) Identity() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity
}
