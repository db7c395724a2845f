package server

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/devlinkd/devlink/proto"
)

// WSConn wraps one upgraded WebSocket connection. gorilla/websocket allows a
// single concurrent writer, so sends take a write mutex.
type WSConn struct {
	ConnMetadata
	conn *websocket.Conn
	wmu  sync.Mutex
}

func NewWSConn(conn *websocket.Conn, t Transport, remoteAddr string) *WSConn {
	return &WSConn{
		conn: conn,
		ConnMetadata: ConnMetadata{
			Id:          generateConnId("ws"),
			RemoteAddr:  remoteAddr,
			ConnectedAt: time.Now(),
			Transport:   t,
		},
	}
}

func (c *WSConn) Send(msg proto.Message) error {
	jsonData, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	c.wmu.Lock()
	err = c.conn.WriteMessage(websocket.TextMessage, jsonData)
	c.wmu.Unlock()
	if err != nil {
		return err
	}

	slog.Debug("Sent WebSocket message", "to", c.Id, "type", msg.Type, "size", len(msg.Payload))
	return nil
}

func (c *WSConn) Meta() *ConnMetadata {
	return &c.ConnMetadata
}
