package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/devlinkd/devlink/client"
	"github.com/devlinkd/devlink/proto"
)

// devctl is an example controller endpoint: it registers as a client, lists
// the connected devices, and optionally sends one command and waits for the
// result.
func main() {
	addr := flag.String("addr", "localhost:8888", "relay tcp address")
	device := flag.String("device", "", "target device identity")
	command := flag.String("command", "ping", "command to send")
	flag.Parse()

	controller := client.NewController(client.NewTCPTransport())

	results := make(chan proto.CommandResultPayload, 1)
	controller.OnResult = func(p proto.CommandResultPayload) {
		results <- p
	}
	controller.OnError = func(message string) {
		fmt.Fprintln(os.Stderr, "relay error:", message)
	}

	go func() {
		if err := controller.Start(*addr); err != nil {
			slog.Error("Controller exited", "error", err)
			os.Exit(1)
		}
	}()

	if _, err := controller.AwaitRegistration(5 * time.Second); err != nil {
		slog.Error("Registration failed", "error", err)
		os.Exit(1)
	}
	defer controller.Close()

	devices := controller.Devices()
	fmt.Printf("connected devices (%d):\n", len(devices))
	for _, id := range devices {
		fmt.Println("  ", id)
	}

	if *device == "" {
		return
	}

	if err := controller.SendCommand(*device, *command, nil); err != nil {
		slog.Error("Send failed", "error", err)
		os.Exit(1)
	}

	select {
	case result := <-results:
		fmt.Printf("%s -> %s: %s\n", result.DeviceID, result.Command, string(result.Response))
	case <-time.After(10 * time.Second):
		fmt.Fprintln(os.Stderr, "timeout waiting for result")
		os.Exit(1)
	}
}
