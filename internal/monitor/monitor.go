package monitor

import (
	"context"
	"sync"

	"github.com/xmgamer/liverelay/internal/model"
	"github.com/xmgamer/liverelay/internal/upstream"
)

// State of a room monitor.
type State string

// Monitor lifecycle states. Connecting and Connected are the live
// states; Disconnected and StreamEnded are terminal-from-upstream but
// keep the monitor registered until an explicit Stop.
const (
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateDisconnected State = "disconnected"
	StateStreamEnded  State = "stream_ended"
)

// RoomInfo is a point-in-time view of one monitor for status reporting.
type RoomInfo struct {
	RoomKey string      `json:"room_key"`
	RoomID  string      `json:"room_id"`
	State   State       `json:"state"`
	Stats   model.Stats `json:"stats"`
}

// RoomMonitor owns one room's upstream connection and counters.
type RoomMonitor struct {
	key string

	// cancel aborts a dial still in flight.
	cancel context.CancelFunc

	mu     sync.Mutex
	state  State
	roomID string
	conn   upstream.Conn
	stats  model.Stats
}

func newRoomMonitor(key string, cancel context.CancelFunc) *RoomMonitor {
	return &RoomMonitor{
		key:    key,
		cancel: cancel,
		state:  StateConnecting,
	}
}

// info snapshots the monitor.
func (r *RoomMonitor) info() RoomInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	return RoomInfo{
		RoomKey: r.key,
		RoomID:  r.roomID,
		State:   r.state,
		Stats:   r.stats,
	}
}

func (r *RoomMonitor) setConnected(conn upstream.Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conn = conn
	r.roomID = conn.RoomID()
	r.state = StateConnected
}

func (r *RoomMonitor) setState(s State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = s
}

// markDisconnected transitions to Disconnected unless the stream
// already ended (stream_end is the more specific signal).
func (r *RoomMonitor) markDisconnected() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != StateStreamEnded {
		r.state = StateDisconnected
	}
}

// teardown cancels a pending dial and closes the connection if one was
// established. Safe to call more than once.
func (r *RoomMonitor) teardown() {
	r.cancel()

	r.mu.Lock()
	conn := r.conn
	r.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
}
