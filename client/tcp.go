package client

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"sync"

	"github.com/devlinkd/devlink/proto"
)

type TCPTransport struct {
	conn    net.Conn
	scanner *bufio.Scanner
	wmu     sync.Mutex
}

func NewTCPTransport() *TCPTransport {
	return &TCPTransport{}
}

func (t *TCPTransport) Connect(addr string) error {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return err
	}
	t.conn = conn
	t.scanner = bufio.NewScanner(conn)
	return nil
}

func (t *TCPTransport) Send(msg proto.Message) error {
	if t.conn == nil {
		return fmt.Errorf("transport is not connected")
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	data = append(data, '\n')

	// Sends can come from the read-loop goroutine and the caller's own
	// goroutines at once
	t.wmu.Lock()
	_, err = t.conn.Write(data)
	t.wmu.Unlock()
	return err
}

func (t *TCPTransport) Read() (proto.Message, error) {
	for t.scanner.Scan() {
		var msg proto.Message
		if err := json.Unmarshal(t.scanner.Bytes(), &msg); err != nil {
			return proto.Message{}, fmt.Errorf("invalid JSON: %w", err)
		}
		return msg, nil
	}

	if err := t.scanner.Err(); err != nil {
		return proto.Message{}, err
	}

	return proto.Message{}, fmt.Errorf("connection closed")
}

func (t *TCPTransport) Close() error {
	if t.conn == nil {
		return nil
	}
	return t.conn.Close()
}
