package client

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/hashicorp/mdns"
)

// DiscoveredService is a relay found on the local network.
type DiscoveredService struct {
	ServiceName string
	Address     string
	Port        int
	Transport   string // "tcp" or "websocket"
	TXTRecords  []string
}

// Addr renders the discovered endpoint as host:port.
func (s *DiscoveredService) Addr() string {
	return fmt.Sprintf("%s:%d", s.Address, s.Port)
}

// discoverService discovers a relay of the given mDNS service type.
func discoverService(serviceType string, timeout time.Duration) (*DiscoveredService, error) {
	if timeout == 0 {
		timeout = 5 * time.Second
	}

	entriesCh := make(chan *mdns.ServiceEntry, 4)

	go func() {
		defer close(entriesCh)
		mdns.Lookup(serviceType, entriesCh)
	}()

	select {
	case entry := <-entriesCh:
		if entry == nil {
			return nil, fmt.Errorf("no %s service found", serviceType)
		}

		var address string
		if entry.AddrV4 != nil {
			address = entry.AddrV4.String()
		} else if entry.AddrV6 != nil {
			address = fmt.Sprintf("[%s]", entry.AddrV6.String())
		} else {
			return nil, fmt.Errorf("no valid address found for service")
		}

		var transport string
		switch serviceType {
		case "_devlink-tcp._tcp":
			transport = "tcp"
		case "_devlink-ws._tcp":
			transport = "websocket"
		}

		service := &DiscoveredService{
			ServiceName: entry.Name,
			Address:     address,
			Port:        entry.Port,
			Transport:   transport,
			TXTRecords:  entry.InfoFields,
		}

		slog.Info("Discovered relay server",
			"service_name", service.ServiceName,
			"address", service.Address,
			"port", service.Port,
			"transport", service.Transport,
		)

		return service, nil

	case <-time.After(timeout):
		return nil, fmt.Errorf("mDNS discovery timeout for %s", serviceType)
	}
}

// DiscoverTCPService discovers the first available TCP relay server.
func DiscoverTCPService(timeout time.Duration) (*DiscoveredService, error) {
	return discoverService("_devlink-tcp._tcp", timeout)
}

// DiscoverWebSocketService discovers the first available WebSocket relay server.
func DiscoverWebSocketService(timeout time.Duration) (*DiscoveredService, error) {
	return discoverService("_devlink-ws._tcp", timeout)
}
