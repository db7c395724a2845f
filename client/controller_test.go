package client

import (
	"encoding/json"
	"sort"
	"testing"
	"time"

	"github.com/devlinkd/devlink/proto"
)

func startController(t *testing.T, transport *fakeTransport, devices []string) *Controller {
	t.Helper()
	controller := NewController(transport)

	go controller.Start("fake")
	transport.expectSent(t, proto.TypeRegisterClient)
	transport.serve(t, proto.TypeRegistrationComplete, proto.RegistrationCompletePayload{
		ClientID:         "client-1",
		ConnectedDevices: devices,
	})

	if _, err := controller.AwaitRegistration(time.Second); err != nil {
		t.Fatalf("AwaitRegistration failed: %v", err)
	}
	return controller
}

func TestController_RegistrationSeedsDevices(t *testing.T) {
	transport := newFakeTransport()
	controller := startController(t, transport, []string{"dev-a", "dev-b"})
	defer transport.Close()

	if controller.ID() != "client-1" {
		t.Errorf("Expected id client-1, got %s", controller.ID())
	}

	devices := controller.Devices()
	sort.Strings(devices)
	if len(devices) != 2 || devices[0] != "dev-a" || devices[1] != "dev-b" {
		t.Errorf("Unexpected device snapshot: %v", devices)
	}
}

func TestController_LifecycleBroadcastsUpdateDevices(t *testing.T) {
	transport := newFakeTransport()
	controller := startController(t, transport, []string{"dev-a"})
	defer transport.Close()

	connected := make(chan string, 1)
	disconnected := make(chan string, 1)
	controller.OnDeviceConnected = func(id string) { connected <- id }
	controller.OnDeviceDisconnected = func(id string) { disconnected <- id }

	transport.serve(t, proto.TypeDeviceConnected, proto.DeviceConnectedPayload{
		DeviceID:  "dev-b",
		Timestamp: time.Now(),
	})

	select {
	case id := <-connected:
		if id != "dev-b" {
			t.Errorf("Expected dev-b, got %s", id)
		}
	case <-time.After(time.Second):
		t.Fatal("OnDeviceConnected was not called")
	}

	transport.serve(t, proto.TypeDeviceDisconnected, proto.DeviceDisconnectedPayload{DeviceID: "dev-a"})

	select {
	case id := <-disconnected:
		if id != "dev-a" {
			t.Errorf("Expected dev-a, got %s", id)
		}
	case <-time.After(time.Second):
		t.Fatal("OnDeviceDisconnected was not called")
	}

	devices := controller.Devices()
	if len(devices) != 1 || devices[0] != "dev-b" {
		t.Errorf("Expected [dev-b], got %v", devices)
	}
}

func TestController_SendCommand(t *testing.T) {
	transport := newFakeTransport()
	controller := startController(t, transport, nil)
	defer transport.Close()

	if err := controller.SendCommand("dev-a", "reboot", map[string]int{"delay": 5}); err != nil {
		t.Fatalf("SendCommand failed: %v", err)
	}

	msg := transport.expectSent(t, proto.TypeCommand)
	var p proto.CommandPayload
	if err := json.Unmarshal(msg.Payload, &p); err != nil {
		t.Fatalf("Invalid command payload: %v", err)
	}
	if p.DeviceID != "dev-a" || p.Command != "reboot" {
		t.Errorf("Unexpected command payload: %+v", p)
	}
	if string(p.Params) != `{"delay":5}` {
		t.Errorf("Unexpected params: %s", p.Params)
	}
}

func TestController_Callbacks(t *testing.T) {
	transport := newFakeTransport()
	controller := startController(t, transport, nil)
	defer transport.Close()

	results := make(chan proto.CommandResultPayload, 1)
	streams := make(chan proto.StreamDataPayload, 1)
	errs := make(chan string, 1)
	controller.OnResult = func(p proto.CommandResultPayload) { results <- p }
	controller.OnStream = func(p proto.StreamDataPayload) { streams <- p }
	controller.OnError = func(message string) { errs <- message }

	transport.serve(t, proto.TypeCommandResult, proto.CommandResultPayload{
		DeviceID: "dev-a",
		Command:  "reboot",
		Response: json.RawMessage(`"ok"`),
	})
	select {
	case p := <-results:
		if p.DeviceID != "dev-a" || p.Command != "reboot" {
			t.Errorf("Unexpected result: %+v", p)
		}
	case <-time.After(time.Second):
		t.Fatal("OnResult was not called")
	}

	transport.serve(t, proto.TypeStreamData, proto.StreamDataPayload{
		DeviceID:   "dev-a",
		StreamType: "camera",
		Chunk:      []byte{0x01},
	})
	select {
	case p := <-streams:
		if p.StreamType != "camera" {
			t.Errorf("Unexpected stream: %+v", p)
		}
	case <-time.After(time.Second):
		t.Fatal("OnStream was not called")
	}

	transport.serve(t, proto.TypeError, proto.ErrorPayload{Message: "Device not connected"})
	select {
	case message := <-errs:
		if message != "Device not connected" {
			t.Errorf("Unexpected error message: %q", message)
		}
	case <-time.After(time.Second):
		t.Fatal("OnError was not called")
	}
}
