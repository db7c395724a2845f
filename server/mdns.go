package server

import (
	"fmt"
	"log/slog"
	"net"
	"os"
	"strconv"

	"github.com/hashicorp/mdns"
)

// ServiceTypeTCP and ServiceTypeWS are the mDNS service types endpoints use
// to discover a relay on the local network.
const (
	ServiceTypeTCP = "_devlink-tcp._tcp"
	ServiceTypeWS  = "_devlink-ws._tcp"
)

// Advertiser announces relay listeners over mDNS so endpoints on the local
// network can find them without configuration.
type Advertiser struct {
	servers []*mdns.Server
}

func NewAdvertiser() *Advertiser {
	return &Advertiser{}
}

// Advertise announces one service type on the port parsed from addr.
func (a *Advertiser) Advertise(serviceType, addr string) error {
	_, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("cannot advertise %s: %w", addr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return fmt.Errorf("cannot advertise %s: %w", addr, err)
	}

	host, err := os.Hostname()
	if err != nil {
		return err
	}

	service, err := mdns.NewMDNSService(host, serviceType, "", "", port, nil, []string{"devlink relay"})
	if err != nil {
		return err
	}

	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return err
	}

	slog.Info("Advertising relay service", "type", serviceType, "port", port)
	a.servers = append(a.servers, server)
	return nil
}

func (a *Advertiser) Shutdown() {
	for _, s := range a.servers {
		if err := s.Shutdown(); err != nil {
			slog.Warn("Failed to shut down mDNS server", "error", err)
		}
	}
	a.servers = nil
}
