// Package admin exposes the proxy's control surface as a small loopback
// JSON API: start/stop, route reload, interceptor registration, and bulk
// disconnects, the operations a CLI or operator tool drives the running
// proxy with.
package admin

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/hostgate/hostgate/internal/domain/intercept"
	"github.com/hostgate/hostgate/internal/domain/route"
)

// controlledServer is the narrow slice of inbound.Server the admin API
// actually needs, kept separate so handler tests can supply a minimal fake
// instead of satisfying the full proxy-core port.
type controlledServer interface {
	Start() error
	Stop() error
	GetStatus() string
	GetConfig() []route.Entry
	SetConfig(entries []route.Entry) error
	ActiveConnections() int
	DisconnectHost(host string) int
	DisconnectAll() int
	AddRequestInterceptor(t intercept.Transform)
	AddResponseInterceptor(t intercept.Transform)
}

// Handler serves the admin API over the given Server.
type Handler struct {
	server controlledServer
	logger *slog.Logger
	mux    *http.ServeMux
}

// NewHandler builds an admin Handler.
func NewHandler(server controlledServer, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{server: server, logger: logger, mux: http.NewServeMux()}
	h.routes()
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) routes() {
	h.mux.HandleFunc("/status", h.handleStatus)
	h.mux.HandleFunc("/start", h.handleStart)
	h.mux.HandleFunc("/stop", h.handleStop)
	h.mux.HandleFunc("/config", h.handleConfig)
	h.mux.HandleFunc("/disconnect", h.handleDisconnect)
	h.mux.HandleFunc("/interceptors/request", h.handleAddInterceptor(h.server.AddRequestInterceptor))
	h.mux.HandleFunc("/interceptors/response", h.handleAddInterceptor(h.server.AddResponseInterceptor))
}

type statusResponse struct {
	Status            string `json:"status"`
	ActiveConnections int    `json:"active_connections"`
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{
		Status:            h.server.GetStatus(),
		ActiveConnections: h.server.ActiveConnections(),
	})
}

func (h *Handler) handleStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if err := h.server.Start(); err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: h.server.GetStatus()})
}

func (h *Handler) handleStop(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if err := h.server.Stop(); err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: h.server.GetStatus()})
}

// routeEntryDTO is the wire shape of a route.Entry: one hostname per object,
// with the endpoint flattened into kind/tcp_host/tcp_port/ipc_path fields.
// It is not the configuration file's routes layout.
type routeEntryDTO struct {
	Host    string `json:"host"`
	Kind    string `json:"kind"`
	TCPHost string `json:"tcp_host,omitempty"`
	Port    string `json:"tcp_port,omitempty"`
	IPCPath string `json:"ipc_path,omitempty"`
}

func toDTO(e route.Entry) routeEntryDTO {
	dto := routeEntryDTO{Host: e.Host}
	switch e.Endpoint.Kind {
	case route.KindIPC:
		dto.Kind = "ipc"
		dto.IPCPath = e.Endpoint.Path
	default:
		dto.Kind = "tcp"
		dto.TCPHost = e.Endpoint.Host
		dto.Port = e.Endpoint.Port
	}
	return dto
}

func fromDTO(dto routeEntryDTO) (route.Entry, error) {
	ep := route.Endpoint{}
	switch dto.Kind {
	case "ipc":
		ep.Kind = route.KindIPC
		ep.Path = dto.IPCPath
	case "tcp", "":
		ep.Kind = route.KindTCP
		ep.Host, ep.Port = dto.TCPHost, dto.Port
	default:
		return route.Entry{}, fmt.Errorf("unknown endpoint kind %q", dto.Kind)
	}
	return route.Entry{Host: dto.Host, Endpoint: ep}, nil
}

func (h *Handler) handleConfig(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		entries := h.server.GetConfig()
		dtos := make([]routeEntryDTO, len(entries))
		for i, e := range entries {
			dtos[i] = toDTO(e)
		}
		writeJSON(w, http.StatusOK, dtos)
	case http.MethodPost:
		var dtos []routeEntryDTO
		if err := json.NewDecoder(r.Body).Decode(&dtos); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		entries := make([]route.Entry, len(dtos))
		for i, dto := range dtos {
			e, err := fromDTO(dto)
			if err != nil {
				writeJSONError(w, http.StatusBadRequest, err.Error())
				return
			}
			entries[i] = e
		}
		if err := h.server.SetConfig(entries); err != nil {
			writeJSONError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, dtos)
	default:
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// interceptorRequest names one of the built-in, JSON-describable
// interceptors. Interceptors that close over arbitrary Go state can only be
// registered through the programmatic API (ProxyServer.AddRequestInterceptor
// et al.), not this HTTP surface.
type interceptorRequest struct {
	Type  string `json:"type"`
	Name  string `json:"name"`
	Value string `json:"value"`
}

func (h *Handler) handleAddInterceptor(add func(intercept.Transform)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		var req interceptorRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		switch req.Type {
		case "header_injector":
			if req.Name == "" {
				writeJSONError(w, http.StatusBadRequest, "name is required")
				return
			}
			add(intercept.HeaderInjector{Name: req.Name, Value: req.Value})
		default:
			writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("unknown interceptor type %q", req.Type))
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "registered"})
	}
}

type disconnectRequest struct {
	Host string `json:"host,omitempty"`
}

type disconnectResponse struct {
	Disconnected int `json:"disconnected"`
}

func (h *Handler) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req disconnectRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	var n int
	if req.Host == "" {
		n = h.server.DisconnectAll()
	} else {
		n = h.server.DisconnectHost(req.Host)
	}
	writeJSON(w, http.StatusOK, disconnectResponse{Disconnected: n})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
