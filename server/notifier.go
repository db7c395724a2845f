package server

import (
	"log/slog"
	"time"

	"github.com/devlinkd/devlink/proto"
)

// Notifier broadcasts device lifecycle events to every registered client.
// Each delivery runs on its own goroutine so a slow or stuck client cannot
// stall the fan-out or the registration path that triggered it.
type Notifier struct {
	clients *Registry[Conn]
}

func NewNotifier(clients *Registry[Conn]) *Notifier {
	return &Notifier{clients: clients}
}

func (n *Notifier) DeviceConnected(deviceId string, ts time.Time) {
	msg, err := proto.New(proto.TypeDeviceConnected, proto.DeviceConnectedPayload{
		DeviceID:  deviceId,
		Timestamp: ts,
	})
	if err != nil {
		slog.Error("Failed to encode device-connected broadcast", "device", deviceId, "error", err)
		return
	}
	n.broadcast(msg)
}

func (n *Notifier) DeviceDisconnected(deviceId string) {
	msg, err := proto.New(proto.TypeDeviceDisconnected, proto.DeviceDisconnectedPayload{
		DeviceID: deviceId,
	})
	if err != nil {
		slog.Error("Failed to encode device-disconnected broadcast", "device", deviceId, "error", err)
		return
	}
	n.broadcast(msg)
}

// broadcast sends msg to a snapshot of the client registry taken now.
// Clients that register while the fan-out is in flight may miss it; that race
// is accepted, they learn about devices from their registration snapshot.
func (n *Notifier) broadcast(msg proto.Message) {
	for _, conn := range n.clients.List() {
		go func(c Conn) {
			if err := c.Send(msg); err != nil {
				slog.Warn("Broadcast delivery failed", "to", c.Meta().Id, "type", msg.Type, "error", err)
			}
		}(conn)
	}
}
