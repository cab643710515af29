package hub

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/xmgamer/liverelay/internal/config"
	"github.com/xmgamer/liverelay/internal/model"
)

// Hub routes events to the subscriber sessions of each room.
type Hub struct {
	cfg    config.HubConfig
	logger *slog.Logger

	mu       sync.RWMutex
	rooms    map[string]map[*Session]struct{}
	sessions map[*Session]struct{}

	published int64
	delivered int64
	dropped   int64
}

// Stats describes the hub for status reporting.
type Stats struct {
	Sessions  int   `json:"sessions"`
	Rooms     int   `json:"rooms"`
	Published int64 `json:"published"`
	Delivered int64 `json:"delivered"`
	Dropped   int64 `json:"dropped"`
}

// NewHub creates an empty hub.
func NewHub(cfg config.HubConfig, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		cfg:      cfg,
		logger:   logger,
		rooms:    make(map[string]map[*Session]struct{}),
		sessions: make(map[*Session]struct{}),
	}
}

// Join adds the session to a room's subscriber set. Joining a room the
// session is already in is a no-op. Returns the normalized room key.
func (h *Hub) Join(s *Session, roomKey string) string {
	key := model.NormalizeRoomKey(roomKey)
	if key == "" {
		return key
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	room := h.rooms[key]
	if room == nil {
		room = make(map[*Session]struct{})
		h.rooms[key] = room
	}
	room[s] = struct{}{}

	h.logger.Debug("session joined room", "session_id", s.ID, "room_key", key)
	return key
}

// Leave removes the session from a room's subscriber set; no-op when the
// session was not subscribed. Returns the normalized room key.
func (h *Hub) Leave(s *Session, roomKey string) string {
	key := model.NormalizeRoomKey(roomKey)
	if key == "" {
		return key
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.leaveLocked(s, key)
	h.logger.Debug("session left room", "session_id", s.ID, "room_key", key)
	return key
}

func (h *Hub) leaveLocked(s *Session, key string) {
	room := h.rooms[key]
	if room == nil {
		return
	}
	delete(room, s)
	if len(room) == 0 {
		delete(h.rooms, key)
	}
}

// Publish delivers the event to every current subscriber of its room.
// The event is marshalled once; per-session failures (full queue, closed
// session) drop only that session's copy. Returns the delivered count.
func (h *Hub) Publish(roomKey string, ev model.OutboundEvent) int {
	data, err := json.Marshal(ev)
	if err != nil {
		h.logger.Error("failed to marshal event", "type", ev.Type, "error", err)
		return 0
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.published++

	delivered := 0
	for s := range h.rooms[roomKey] {
		if s.enqueue(data) {
			delivered++
			h.delivered++
		} else {
			h.dropped++
			h.logger.Warn("subscriber queue full, dropping event",
				"session_id", s.ID,
				"room_key", roomKey,
				"type", ev.Type,
			)
		}
	}
	return delivered
}

// Stats returns a point-in-time snapshot.
func (h *Hub) Stats() Stats {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return Stats{
		Sessions:  len(h.sessions),
		Rooms:     len(h.rooms),
		Published: h.published,
		Delivered: h.delivered,
		Dropped:   h.dropped,
	}
}

// Close shuts down every session; used at process termination. Sessions
// are deregistered first so no publish can race their shutdown.
func (h *Hub) Close() {
	h.mu.Lock()
	sessions := make([]*Session, 0, len(h.sessions))
	for s := range h.sessions {
		sessions = append(sessions, s)
	}
	h.sessions = make(map[*Session]struct{})
	h.rooms = make(map[string]map[*Session]struct{})
	h.mu.Unlock()

	for _, s := range sessions {
		s.close()
	}
}

// addSession registers a session with the hub.
func (h *Hub) addSession(s *Session) {
	h.mu.Lock()
	h.sessions[s] = struct{}{}
	h.mu.Unlock()
}

// removeSession drops a session from the hub and from every room it
// joined.
func (h *Hub) removeSession(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.sessions, s)
	for key := range h.rooms {
		h.leaveLocked(s, key)
	}
}

// memberOf reports whether the session is subscribed to the room.
func (h *Hub) memberOf(s *Session, key string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.rooms[key][s]
	return ok
}
