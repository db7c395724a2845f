package client

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/devlinkd/devlink/proto"
)

// Controller is an endpoint that registers as a client, tracks the connected
// device population, and issues commands to devices through the relay.
type Controller struct {
	transport Transport

	mu      sync.RWMutex
	id      string
	devices map[string]struct{}

	// Callbacks; set before Start
	OnResult             func(proto.CommandResultPayload)
	OnStream             func(proto.StreamDataPayload)
	OnError              func(message string)
	OnDeviceConnected    func(deviceId string)
	OnDeviceDisconnected func(deviceId string)

	registered chan struct{}
	regOnce    sync.Once
}

func NewController(t Transport) *Controller {
	return &Controller{
		transport:  t,
		devices:    make(map[string]struct{}),
		registered: make(chan struct{}),
	}
}

// ID returns the relay-assigned client identity, or "" before registration.
func (c *Controller) ID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.id
}

// Devices returns a snapshot of the device identities currently known to be
// connected, seeded at registration and updated by lifecycle broadcasts.
func (c *Controller) Devices() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.devices))
	for id := range c.devices {
		out = append(out, id)
	}
	return out
}

// AwaitRegistration blocks until the relay has assigned this controller its
// identity, or the timeout elapses.
func (c *Controller) AwaitRegistration(timeout time.Duration) (string, error) {
	select {
	case <-c.registered:
		return c.ID(), nil
	case <-time.After(timeout):
		return "", fmt.Errorf("timeout waiting for registration-complete")
	}
}

// Start connects, registers as a client, and processes messages until the
// connection drops. It blocks for the connection's lifetime.
func (c *Controller) Start(addr string) error {
	if err := c.transport.Connect(addr); err != nil {
		return err
	}

	msg, err := proto.New(proto.TypeRegisterClient, nil)
	if err != nil {
		return err
	}
	if err := c.transport.Send(msg); err != nil {
		return err
	}

	for {
		msg, err := c.transport.Read()
		if err != nil {
			return err
		}
		c.handleMessage(msg)
	}
}

func (c *Controller) Close() error {
	return c.transport.Close()
}

// SendCommand relays a command to the given device. Delivery is
// fire-and-forget; the result, if any, arrives via OnResult.
func (c *Controller) SendCommand(deviceId, command string, params any) error {
	var raw json.RawMessage
	if params != nil {
		body, err := json.Marshal(params)
		if err != nil {
			return err
		}
		raw = body
	}
	msg, err := proto.New(proto.TypeCommand, proto.CommandPayload{
		DeviceID: deviceId,
		Command:  command,
		Params:   raw,
	})
	if err != nil {
		return err
	}
	return c.transport.Send(msg)
}

func (c *Controller) handleMessage(msg proto.Message) {
	switch msg.Type {
	case proto.TypeRegistrationComplete:
		var p proto.RegistrationCompletePayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			slog.Warn("Invalid registration-complete payload", "error", err)
			return
		}
		c.mu.Lock()
		c.id = p.ClientID
		for _, id := range p.ConnectedDevices {
			c.devices[id] = struct{}{}
		}
		c.mu.Unlock()
		c.regOnce.Do(func() { close(c.registered) })
		slog.Info("Client registered", "client", p.ClientID, "devices", len(p.ConnectedDevices))

	case proto.TypeDeviceConnected:
		var p proto.DeviceConnectedPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			slog.Warn("Invalid device-connected payload", "error", err)
			return
		}
		c.mu.Lock()
		c.devices[p.DeviceID] = struct{}{}
		c.mu.Unlock()
		if c.OnDeviceConnected != nil {
			c.OnDeviceConnected(p.DeviceID)
		}

	case proto.TypeDeviceDisconnected:
		var p proto.DeviceDisconnectedPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			slog.Warn("Invalid device-disconnected payload", "error", err)
			return
		}
		c.mu.Lock()
		delete(c.devices, p.DeviceID)
		c.mu.Unlock()
		if c.OnDeviceDisconnected != nil {
			c.OnDeviceDisconnected(p.DeviceID)
		}

	case proto.TypeCommandResult:
		var p proto.CommandResultPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			slog.Warn("Invalid command-result payload", "error", err)
			return
		}
		if c.OnResult != nil {
			c.OnResult(p)
		}

	case proto.TypeStreamData:
		var p proto.StreamDataPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			slog.Warn("Invalid stream-data payload", "error", err)
			return
		}
		if c.OnStream != nil {
			c.OnStream(p)
		}

	case proto.TypeError:
		var p proto.ErrorPayload
		json.Unmarshal(msg.Payload, &p)
		slog.Warn("Relay reported error", "message", p.Message)
		if c.OnError != nil {
			c.OnError(p.Message)
		}

	default:
		slog.Debug("Ignoring message", "type", msg.Type)
	}
}
