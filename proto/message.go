package proto

import (
	"encoding/json"
	"time"
)

// Event names exchanged over a relay connection.
const (
	TypeRegisterDevice       = "register-device"
	TypeRegisterClient       = "register-client"
	TypeRegistrationComplete = "registration-complete"
	TypeDeviceConnected      = "device-connected"
	TypeDeviceDisconnected   = "device-disconnected"
	TypeCommand              = "command"
	TypeExecuteCommand       = "execute-command"
	TypeError                = "error"
	TypeCommandResponse      = "command-response"
	TypeCommandResult        = "command-result"
	TypeBinaryStream         = "binary-stream"
	TypeStreamData           = "stream-data"
)

type Message struct {
	Type      string          `json:"type"`      // event name, e.g. "command", "stream-data"
	Payload   json.RawMessage `json:"payload"`   // raw JSON; schema depends on Type
	Timestamp int64           `json:"timestamp"` // UNIX timestamp in seconds
}

// New marshals payload and wraps it in a Message stamped with the current time.
func New(msgType string, payload any) (Message, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Message{}, err
	}
	return Message{Type: msgType, Payload: raw, Timestamp: time.Now().Unix()}, nil
}
