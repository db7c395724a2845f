package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// StatusServer exposes a plain-text liveness check plus small JSON
// inventories for operators. It runs beside the relay transports on its own
// listener and never touches the persistent connections.
type StatusServer struct {
	Addr   string
	router *Router
	server *http.Server
}

func NewStatusServer(addr string, router *Router) *StatusServer {
	return &StatusServer{Addr: addr, router: router}
}

func (s *StatusServer) Routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/", s.handleIndex)
	r.Get("/api/devices", s.handleDevices)
	r.Get("/api/clients", s.handleClients)
	r.Get("/api/transports", s.handleTransports)
	return r
}

func (s *StatusServer) Start() error {
	slog.Info("Starting status server", "addr", s.Addr)
	s.server = &http.Server{Addr: s.Addr, Handler: s.Routes()}
	err := s.server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *StatusServer) Shutdown() error {
	if s.server != nil {
		return s.server.Close()
	}
	return nil
}

func (s *StatusServer) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("Device Relay Server Running"))
}

func (s *StatusServer) handleDevices(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{"devices": s.router.Devices.Identities()})
}

func (s *StatusServer) handleClients(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{"clients": s.router.Clients.Identities()})
}

func (s *StatusServer) handleTransports(w http.ResponseWriter, r *http.Request) {
	type transportSummary struct {
		Name      string `json:"name"`
		Protocol  string `json:"protocol"`
		Address   string `json:"address"`
		Conns     int    `json:"conns"`
		MaxConns  int    `json:"maxConns"`
		Connected bool   `json:"connected"`
	}

	summaries := make([]transportSummary, 0, len(s.router.Transports))
	for _, t := range s.router.Transports {
		meta := t.Meta()
		summaries = append(summaries, transportSummary{
			Name:      meta.Name,
			Protocol:  meta.Protocol,
			Address:   meta.Address,
			Conns:     len(meta.Conns),
			MaxConns:  meta.MaxConns,
			Connected: meta.Connected,
		})
	}
	writeJSON(w, map[string]any{"transports": summaries})
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Failed to encode status response", "error", err)
	}
}
