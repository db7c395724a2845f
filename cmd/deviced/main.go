package main

import (
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/devlinkd/devlink/client"
)

// deviced is an example device endpoint: it answers ping and sysinfo
// commands and can stream a short demo chunk sequence on request.
func main() {
	addr := flag.String("addr", "localhost:8888", "relay tcp address (ignored with -discover)")
	discover := flag.Bool("discover", false, "find the relay via mDNS instead of -addr")
	flag.Parse()

	target := *addr
	if *discover {
		service, err := client.DiscoverTCPService(5 * time.Second)
		if err != nil {
			slog.Error("Discovery failed", "error", err)
			os.Exit(1)
		}
		target = service.Addr()
	}

	device := client.NewDevice(client.NewTCPTransport())

	device.HandleCommand("ping", func(params json.RawMessage) (any, error) {
		return map[string]string{"pong": time.Now().Format(time.RFC3339)}, nil
	})

	device.HandleCommand("sysinfo", func(params json.RawMessage) (any, error) {
		return map[string]any{
			"os":         runtime.GOOS,
			"arch":       runtime.GOARCH,
			"goroutines": runtime.NumGoroutine(),
		}, nil
	})

	device.HandleCommand("stream-demo", func(params json.RawMessage) (any, error) {
		var p struct {
			ClientID string `json:"clientId"`
		}
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, err
		}
		go func() {
			for i := 0; i < 5; i++ {
				chunk := []byte{byte(i), 0xde, 0xad, 0xbe, 0xef}
				if err := device.SendStream(p.ClientID, "demo", chunk); err != nil {
					slog.Warn("Stream send failed", "error", err)
					return
				}
				time.Sleep(200 * time.Millisecond)
			}
		}()
		return map[string]string{"status": "streaming"}, nil
	})

	if err := device.Start(target); err != nil {
		slog.Error("Device exited", "error", err)
		os.Exit(1)
	}
}
