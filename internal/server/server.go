package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/xmgamer/liverelay/internal/hub"
	"github.com/xmgamer/liverelay/internal/model"
	"github.com/xmgamer/liverelay/internal/monitor"
	"github.com/xmgamer/liverelay/internal/upstream"
	"github.com/xmgamer/liverelay/internal/version"
)

// RoomManager is the control-plane view of the monitor manager.
type RoomManager interface {
	Start(ctx context.Context, roomKey string) (string, error)
	Stop(roomKey string) error
	ListActive() []monitor.RoomInfo
}

// Pinger is the health-check view of the stats database pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server builds the relay's HTTP handler.
type Server struct {
	manager  RoomManager
	hub      *hub.Hub
	proxy    *upstream.ProxySettings
	db       Pinger
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

// NewServer creates a server over the given components.
func NewServer(manager RoomManager, h *hub.Hub, proxy *upstream.ProxySettings, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		manager: manager,
		hub:     h,
		proxy:   proxy,
		logger:  logger,
		upgrader: websocket.Upgrader{
			// Subscribers are browser pages on arbitrary origins.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// WithDatabase registers the stats database pool for health reporting.
func (s *Server) WithDatabase(db Pinger) *Server {
	s.db = db
	return s
}

// Handler returns the full route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /api/live/start", s.handleStart)
	mux.HandleFunc("POST /api/live/stop", s.handleStop)
	mux.HandleFunc("GET /api/live/status", s.handleStatus)
	mux.HandleFunc("POST /api/config/proxy", s.handleProxy)
	mux.HandleFunc("GET /ws", s.handleWS)

	return mux
}

type startRequest struct {
	RoomKey string `json:"room_key"`
}

type startResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	RoomKey string `json:"room_key,omitempty"`
	RoomID  string `json:"room_id,omitempty"`
}

type proxyRequest struct {
	ProxyURL *string `json:"proxy_url"`
	Enabled  *bool   `json:"enabled"`
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	proxyURL, proxyEnabled := s.proxy.Snapshot()

	rooms := s.manager.ListActive()
	keys := make([]string, 0, len(rooms))
	for _, room := range rooms {
		keys = append(keys, room.RoomKey)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"service": "live event relay",
		"version": version.Version,
		"status":  "ok",
		"proxy": map[string]any{
			"proxy_url": proxyURL,
			"enabled":   proxyEnabled,
		},
		"active_rooms": keys,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := struct {
		Status     string         `json:"status"`
		Components map[string]any `json:"components"`
	}{
		Status:     "healthy",
		Components: make(map[string]any),
	}

	health.Components["hub"] = s.hub.Stats()
	health.Components["rooms"] = map[string]any{
		"active": len(s.manager.ListActive()),
	}

	if s.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		if err := s.db.Ping(ctx); err != nil {
			health.Status = "unhealthy"
			health.Components["database"] = map[string]string{
				"status": "disconnected",
				"error":  err.Error(),
			}
		} else {
			health.Components["database"] = "connected"
		}
	}

	status := http.StatusOK
	if health.Status == "unhealthy" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, health)
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	roomID, err := s.manager.Start(r.Context(), req.RoomKey)
	if err != nil {
		if errors.Is(err, monitor.ErrEmptyRoomKey) {
			writeError(w, http.StatusBadRequest, "room_key is required")
			return
		}
		s.logger.Warn("start request failed", "room_key", req.RoomKey, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	// Echo the key in its normalized form, matching events and status.
	writeJSON(w, http.StatusOK, startResponse{
		Success: true,
		Message: "monitoring started",
		RoomKey: model.NormalizeRoomKey(req.RoomKey),
		RoomID:  roomID,
	})
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.manager.Stop(req.RoomKey); err != nil {
		if errors.Is(err, monitor.ErrEmptyRoomKey) {
			writeError(w, http.StatusBadRequest, "room_key is required")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	// Stopping a room that is not active is still a success.
	writeJSON(w, http.StatusOK, startResponse{
		Success: true,
		Message: "monitoring stopped",
		RoomKey: model.NormalizeRoomKey(req.RoomKey),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	rooms := s.manager.ListActive()

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"rooms":   rooms,
		"count":   len(rooms),
	})
}

func (s *Server) handleProxy(w http.ResponseWriter, r *http.Request) {
	var req proxyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	url, enabled := s.proxy.Update(req.ProxyURL, req.Enabled)
	s.logger.Info("proxy settings updated", "proxy_url", url, "enabled", enabled)

	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"proxy_url": url,
		"enabled":   enabled,
	})
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	s.hub.ServeConn(conn)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{
		"success": false,
		"message": message,
	})
}
