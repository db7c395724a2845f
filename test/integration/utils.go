package integration

import (
	"context"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/devlinkd/devlink/server"
)

func getRandomPort(t *testing.T) int {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to get port: %v", err)
	}
	defer listener.Close()
	return listener.Addr().(*net.TCPAddr).Port
}

// startRelay runs a relay router with one TCP transport on a random port and
// tears it down when the test ends. Returns the dial address.
func startRelay(t *testing.T) (string, *server.Router) {
	t.Helper()

	addr := fmt.Sprintf("127.0.0.1:%d", getRandomPort(t))
	rt := server.NewRouter(server.NewRegistry[server.Conn](), server.NewRegistry[server.Conn]())

	tcp := server.NewTCPTransport(addr)
	tcp.SetName("integration tcp")
	rt.RegisterTransport(tcp)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go rt.Start(ctx)

	// Wait for the listener to come up
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		conn, err := net.Dial("tcp", addr)
		if err == nil {
			conn.Close()
			return addr, rt
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("Relay did not start listening on %s", addr)
	return "", nil
}
