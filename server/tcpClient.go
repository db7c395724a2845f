package server

import (
	"encoding/json"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/devlinkd/devlink/proto"
)

// TCPConn wraps one accepted TCP connection. Writes are serialized: relayed
// traffic and lifecycle broadcasts can hit the same connection concurrently.
type TCPConn struct {
	ConnMetadata
	conn net.Conn
	wmu  sync.Mutex
}

func NewTCPConn(conn net.Conn, t Transport) *TCPConn {
	return &TCPConn{
		conn: conn,
		ConnMetadata: ConnMetadata{
			Id:          generateConnId("tcp"),
			RemoteAddr:  conn.RemoteAddr().String(),
			ConnectedAt: time.Now(),
			Transport:   t,
		},
	}
}

func (c *TCPConn) Send(msg proto.Message) error {
	jsonData, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	jsonData = append(jsonData, '\n')

	c.wmu.Lock()
	_, err = c.conn.Write(jsonData)
	c.wmu.Unlock()

	slog.Debug("Sent message", "to", c.Id, "type", msg.Type, "size", len(msg.Payload))
	return err
}

func (c *TCPConn) Meta() *ConnMetadata {
	return &c.ConnMetadata
}
