package server

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/devlinkd/devlink/proto"
)

// reply sends a server-originated event back to a single connection.
func reply(conn Conn, msgType string, payload any) {
	msg, err := proto.New(msgType, payload)
	if err != nil {
		slog.Error("Failed to encode reply", "type", msgType, "error", err)
		return
	}
	if err := conn.Send(msg); err != nil {
		slog.Warn("Failed to send reply", "to", conn.Meta().Id, "type", msgType, "error", err)
	}
}

// ---------- registration ---------- //

func (rt *Router) handleRegisterDevice(conn Conn) {
	deviceId := NewIdentity()
	if err := conn.Meta().Session.Bind(SessionDevice, deviceId); err != nil {
		slog.Warn("Rejected device registration", "conn", conn.Meta().Id, "error", err)
		reply(conn, proto.TypeError, proto.ErrorPayload{Message: err.Error()})
		return
	}
	rt.Devices.Store(deviceId, conn)

	slog.Info("Device registered", "device", deviceId, "conn", conn.Meta().Id)
	reply(conn, proto.TypeRegistrationComplete, proto.RegistrationCompletePayload{DeviceID: deviceId})

	rt.Notifier.DeviceConnected(deviceId, time.Now())
}

func (rt *Router) handleRegisterClient(conn Conn) {
	clientId := NewIdentity()
	if err := conn.Meta().Session.Bind(SessionClient, clientId); err != nil {
		slog.Warn("Rejected client registration", "conn", conn.Meta().Id, "error", err)
		reply(conn, proto.TypeError, proto.ErrorPayload{Message: err.Error()})
		return
	}
	rt.Clients.Store(clientId, conn)

	// Devices that register after this snapshot arrive via device-connected
	// broadcasts, not retroactively.
	connected := rt.Devices.Identities()

	slog.Info("Client registered", "client", clientId, "conn", conn.Meta().Id, "devices", len(connected))
	reply(conn, proto.TypeRegistrationComplete, proto.RegistrationCompletePayload{
		ClientID:         clientId,
		ConnectedDevices: connected,
	})
}

// ---------- relay paths ---------- //

// handleCommand forwards a client command to its target device. This is the
// only relay path that reports a missing target back to the sender.
func (rt *Router) handleCommand(conn Conn, msg proto.Message) {
	var p proto.CommandPayload
	if err := json.Unmarshal(msg.Payload, &p); err != nil {
		slog.Warn("Invalid command payload", "conn", conn.Meta().Id, "error", err)
		return
	}

	target, ok := rt.Devices.Get(p.DeviceID)
	if !ok {
		slog.Debug("Command target not registered", "device", p.DeviceID, "conn", conn.Meta().Id)
		reply(conn, proto.TypeError, proto.ErrorPayload{Message: "Device not connected"})
		return
	}

	slog.Debug("Relaying command", "device", p.DeviceID, "command", p.Command)
	reply(target, proto.TypeExecuteCommand, proto.ExecuteCommandPayload{
		Command:  p.Command,
		Params:   p.Params,
		ClientID: rt.senderIdentity(conn, SessionClient),
	})
}

// handleCommandResponse forwards a device's response to its target client.
// An absent target is dropped without notice; only the command path reports
// routing failures.
func (rt *Router) handleCommandResponse(conn Conn, msg proto.Message) {
	var p proto.CommandResponsePayload
	if err := json.Unmarshal(msg.Payload, &p); err != nil {
		slog.Warn("Invalid command-response payload", "conn", conn.Meta().Id, "error", err)
		return
	}

	target, ok := rt.Clients.Get(p.ClientID)
	if !ok {
		slog.Debug("Response target not registered, dropping", "client", p.ClientID)
		return
	}

	slog.Debug("Relaying response", "client", p.ClientID, "command", p.Command)
	reply(target, proto.TypeCommandResult, proto.CommandResultPayload{
		DeviceID: rt.senderIdentity(conn, SessionDevice),
		Command:  p.Command,
		Response: p.Response,
	})
}

// handleBinaryStream forwards one opaque stream chunk to its target client.
// No reassembly, sequencing, or backpressure; absent targets are dropped.
func (rt *Router) handleBinaryStream(conn Conn, msg proto.Message) {
	var p proto.BinaryStreamPayload
	if err := json.Unmarshal(msg.Payload, &p); err != nil {
		slog.Warn("Invalid binary-stream payload", "conn", conn.Meta().Id, "error", err)
		return
	}

	target, ok := rt.Clients.Get(p.ClientID)
	if !ok {
		slog.Debug("Stream target not registered, dropping", "client", p.ClientID, "streamType", p.StreamType)
		return
	}

	reply(target, proto.TypeStreamData, proto.StreamDataPayload{
		DeviceID:   rt.senderIdentity(conn, SessionDevice),
		StreamType: p.StreamType,
		Chunk:      p.Chunk,
	})
}

// senderIdentity returns the sender's bound identity when it matches the
// expected role, and "" otherwise. The router does not enforce roles on the
// relay paths; an unregistered sender simply yields an empty identity.
func (rt *Router) senderIdentity(conn Conn, want SessionState) string {
	state, identity := conn.Meta().Session.State()
	if state != want {
		return ""
	}
	return identity
}
