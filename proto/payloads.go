package proto

import (
	"encoding/json"
	"time"
)

// RegistrationCompletePayload confirms a binding. Exactly one of DeviceID or
// ClientID is set; ConnectedDevices accompanies ClientID and holds the device
// identities registered at the moment the client bound.
type RegistrationCompletePayload struct {
	DeviceID         string   `json:"deviceId,omitempty"`
	ClientID         string   `json:"clientId,omitempty"`
	ConnectedDevices []string `json:"connectedDevices,omitempty"`
}

type DeviceConnectedPayload struct {
	DeviceID  string    `json:"deviceId"`
	Timestamp time.Time `json:"timestamp"`
}

type DeviceDisconnectedPayload struct {
	DeviceID string `json:"deviceId"`
}

// CommandPayload is sent by a client to run a command on a device.
type CommandPayload struct {
	DeviceID string          `json:"deviceId"`
	Command  string          `json:"command"`
	Params   json.RawMessage `json:"params,omitempty"`
}

// ExecuteCommandPayload is the relayed form delivered to the target device.
// ClientID identifies the sender so the device can address its response.
type ExecuteCommandPayload struct {
	Command  string          `json:"command"`
	Params   json.RawMessage `json:"params,omitempty"`
	ClientID string          `json:"clientId"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

// CommandResponsePayload is sent by a device to answer a delivered command.
type CommandResponsePayload struct {
	ClientID string          `json:"clientId"`
	Response json.RawMessage `json:"response,omitempty"`
	Command  string          `json:"command"`
}

// CommandResultPayload is the relayed form delivered to the target client.
type CommandResultPayload struct {
	DeviceID string          `json:"deviceId"`
	Command  string          `json:"command"`
	Response json.RawMessage `json:"response,omitempty"`
}

// BinaryStreamPayload carries one chunk of an opaque stream (camera frames,
// file transfer, ...) from a device toward a client. Chunk bytes are base64
// on the wire; the relay never inspects them.
type BinaryStreamPayload struct {
	ClientID   string `json:"clientId"`
	StreamType string `json:"streamType"`
	Chunk      []byte `json:"chunk"`
}

type StreamDataPayload struct {
	DeviceID   string `json:"deviceId"`
	StreamType string `json:"streamType"`
	Chunk      []byte `json:"chunk"`
}
