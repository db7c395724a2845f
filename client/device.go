package client

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/devlinkd/devlink/proto"
)

// CommandHandler runs one delivered command. The returned value is marshalled
// and relayed back to the issuing client; a nil return with nil error sends
// no response.
type CommandHandler func(params json.RawMessage) (any, error)

// Device is an endpoint that registers as a device, executes relayed
// commands, and may push responses and stream chunks back through the relay.
type Device struct {
	transport Transport

	mu       sync.RWMutex
	id       string
	handlers map[string]CommandHandler

	registered chan struct{}
	regOnce    sync.Once
}

func NewDevice(t Transport) *Device {
	return &Device{
		transport:  t,
		handlers:   make(map[string]CommandHandler),
		registered: make(chan struct{}),
	}
}

// HandleCommand registers the handler for a named command. Must be called
// before Start.
func (d *Device) HandleCommand(name string, fn CommandHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[name] = fn
}

// ID returns the relay-assigned device identity, or "" before registration.
func (d *Device) ID() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.id
}

// AwaitRegistration blocks until the relay has assigned this device its
// identity, or the timeout elapses.
func (d *Device) AwaitRegistration(timeout time.Duration) (string, error) {
	select {
	case <-d.registered:
		return d.ID(), nil
	case <-time.After(timeout):
		return "", fmt.Errorf("timeout waiting for registration-complete")
	}
}

// Start connects, registers as a device, and processes messages until the
// connection drops. It blocks for the connection's lifetime.
func (d *Device) Start(addr string) error {
	if err := d.transport.Connect(addr); err != nil {
		return err
	}

	msg, err := proto.New(proto.TypeRegisterDevice, nil)
	if err != nil {
		return err
	}
	if err := d.transport.Send(msg); err != nil {
		return err
	}

	for {
		msg, err := d.transport.Read()
		if err != nil {
			return err
		}
		d.handleMessage(msg)
	}
}

func (d *Device) Close() error {
	return d.transport.Close()
}

func (d *Device) handleMessage(msg proto.Message) {
	switch msg.Type {
	case proto.TypeRegistrationComplete:
		var p proto.RegistrationCompletePayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			slog.Warn("Invalid registration-complete payload", "error", err)
			return
		}
		d.mu.Lock()
		d.id = p.DeviceID
		d.mu.Unlock()
		d.regOnce.Do(func() { close(d.registered) })
		slog.Info("Device registered", "device", p.DeviceID)

	case proto.TypeExecuteCommand:
		var p proto.ExecuteCommandPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			slog.Warn("Invalid execute-command payload", "error", err)
			return
		}
		d.executeCommand(p)

	case proto.TypeError:
		var p proto.ErrorPayload
		json.Unmarshal(msg.Payload, &p)
		slog.Warn("Relay reported error", "message", p.Message)

	default:
		slog.Debug("Ignoring message", "type", msg.Type)
	}
}

func (d *Device) executeCommand(p proto.ExecuteCommandPayload) {
	d.mu.RLock()
	handler, ok := d.handlers[p.Command]
	d.mu.RUnlock()

	if !ok {
		slog.Warn("No handler for command", "command", p.Command, "client", p.ClientID)
		if p.ClientID != "" {
			d.SendResponse(p.ClientID, p.Command, map[string]string{"error": "unknown command"})
		}
		return
	}

	result, err := handler(p.Params)
	if err != nil {
		slog.Warn("Command handler failed", "command", p.Command, "error", err)
		if p.ClientID != "" {
			d.SendResponse(p.ClientID, p.Command, map[string]string{"error": err.Error()})
		}
		return
	}
	if result == nil || p.ClientID == "" {
		return
	}
	if err := d.SendResponse(p.ClientID, p.Command, result); err != nil {
		slog.Warn("Failed to send command response", "command", p.Command, "error", err)
	}
}

// SendResponse relays a command result to the given client.
func (d *Device) SendResponse(clientId, command string, response any) error {
	body, err := json.Marshal(response)
	if err != nil {
		return err
	}
	msg, err := proto.New(proto.TypeCommandResponse, proto.CommandResponsePayload{
		ClientID: clientId,
		Command:  command,
		Response: body,
	})
	if err != nil {
		return err
	}
	return d.transport.Send(msg)
}

// SendStream relays one opaque stream chunk to the given client.
func (d *Device) SendStream(clientId, streamType string, chunk []byte) error {
	msg, err := proto.New(proto.TypeBinaryStream, proto.BinaryStreamPayload{
		ClientID:   clientId,
		StreamType: streamType,
		Chunk:      chunk,
	})
	if err != nil {
		return err
	}
	return d.transport.Send(msg)
}
