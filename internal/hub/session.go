package hub

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// controlFrame is what subscribers send to manage their subscriptions.
type controlFrame struct {
	Action  string `json:"action"` // "join" or "leave"
	RoomKey string `json:"room_key"`
}

// ackFrame acknowledges a control frame.
type ackFrame struct {
	Type    string `json:"type"` // "joined", "left", "hello", "error"
	RoomKey string `json:"room_key,omitempty"`
	Message string `json:"message,omitempty"`
}

// Session is one subscriber connection.
type Session struct {
	ID uuid.UUID

	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	mu     sync.Mutex
	closed bool
}

// ServeConn wraps an upgraded WebSocket connection in a session and
// blocks until the subscriber disconnects.
func (h *Hub) ServeConn(conn *websocket.Conn) {
	s := &Session{
		ID:   uuid.New(),
		hub:  h,
		conn: conn,
		send: make(chan []byte, h.cfg.SendBufferSize),
	}
	h.addSession(s)

	s.sendAck(ackFrame{Type: "hello", Message: "connected to live event relay"})

	go s.writePump()
	s.readPump()
}

// enqueue offers an already-marshalled frame to the session. Returns
// false when the session's queue is full or closed. The mutex keeps the
// offer ordered against close, which shuts the channel.
func (s *Session) enqueue(data []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}
	select {
	case s.send <- data:
		return true
	default:
		return false
	}
}

// sendAck marshals and enqueues an acknowledgment frame.
func (s *Session) sendAck(ack ackFrame) {
	data, err := json.Marshal(ack)
	if err != nil {
		return
	}
	s.enqueue(data)
}

// close shuts the session down once: the send channel is closed so the
// write pump exits, then the connection itself. No enqueue can touch the
// channel after the closed flag is set.
func (s *Session) close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	close(s.send)
	if s.conn != nil {
		s.conn.Close()
	}
}

// readPump consumes control frames until the connection drops, then
// removes the session from every room.
func (s *Session) readPump() {
	defer func() {
		s.hub.removeSession(s)
		s.close()
	}()

	s.conn.SetReadLimit(s.hub.cfg.ReadLimit)

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			return
		}

		var frame controlFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			s.sendAck(ackFrame{Type: "error", Message: "invalid control frame"})
			continue
		}

		switch frame.Action {
		case "join":
			key := s.hub.Join(s, frame.RoomKey)
			if key == "" {
				s.sendAck(ackFrame{Type: "error", Message: "missing room_key"})
				continue
			}
			s.sendAck(ackFrame{Type: "joined", RoomKey: key})
		case "leave":
			key := s.hub.Leave(s, frame.RoomKey)
			if key == "" {
				s.sendAck(ackFrame{Type: "error", Message: "missing room_key"})
				continue
			}
			s.sendAck(ackFrame{Type: "left", RoomKey: key})
		default:
			s.sendAck(ackFrame{Type: "error", Message: "unknown action"})
		}
	}
}

// writePump drains the send queue onto the wire and keeps the
// connection alive with pings.
func (s *Session) writePump() {
	ticker := time.NewTicker(s.hub.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case data, ok := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(s.hub.cfg.WriteTimeout))
			if !ok {
				s.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(s.hub.cfg.WriteTimeout))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
