package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/xmgamer/liverelay/internal/model"
	"github.com/xmgamer/liverelay/internal/normalize"
	"github.com/xmgamer/liverelay/internal/upstream"
)

// ErrEmptyRoomKey is returned when a control request omits the room key.
var ErrEmptyRoomKey = errors.New("room key is required")

// Publisher delivers normalized events to a room's subscribers.
type Publisher interface {
	Publish(roomKey string, ev model.OutboundEvent) int
}

// StatsRecorder receives counter snapshots when a room's monitoring
// ends (stream end, disconnect, explicit stop). May be nil-equivalent
// (see NopRecorder).
type StatsRecorder interface {
	Record(roomKey, roomID string, stats model.Stats, at time.Time)
}

// NopRecorder discards snapshots; used when no stats database is
// configured.
type NopRecorder struct{}

// Record implements StatsRecorder.
func (NopRecorder) Record(string, string, model.Stats, time.Time) {}

// Manager owns the active room registry.
type Manager struct {
	dialer   upstream.Dialer
	pub      Publisher
	recorder StatsRecorder
	logger   *slog.Logger
	now      func() time.Time

	mu    sync.Mutex
	rooms map[string]*RoomMonitor

	wg sync.WaitGroup
}

// NewManager creates a manager. recorder may be NopRecorder{}.
func NewManager(dialer upstream.Dialer, pub Publisher, recorder StatsRecorder, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	if recorder == nil {
		recorder = NopRecorder{}
	}
	return &Manager{
		dialer:   dialer,
		pub:      pub,
		recorder: recorder,
		logger:   logger,
		now:      time.Now,
		rooms:    make(map[string]*RoomMonitor),
	}
}

// Start begins monitoring a room and returns the upstream room id.
// Starting an already-active room is idempotent: it returns the known
// room id (possibly still empty while connecting) without opening a
// second connection. On dial failure the half-created monitor is
// removed so a retry is not blocked.
func (m *Manager) Start(ctx context.Context, roomKey string) (string, error) {
	key := model.NormalizeRoomKey(roomKey)
	if key == "" {
		return "", ErrEmptyRoomKey
	}

	m.mu.Lock()
	if existing, ok := m.rooms[key]; ok {
		info := existing.info()
		m.mu.Unlock()
		m.logger.Info("room already monitored", "room_key", key, "state", info.State)
		return info.RoomID, nil
	}

	// Register before dialing so a racing Stop can find and cancel us.
	dialCtx, cancel := context.WithCancel(ctx)
	mon := newRoomMonitor(key, cancel)
	m.rooms[key] = mon
	m.mu.Unlock()

	m.logger.Info("starting room monitor", "room_key", key)

	conn, err := m.dialer.Dial(dialCtx, key)
	if err != nil {
		cancel()
		// Roll back unless a Stop already removed us.
		m.mu.Lock()
		if m.rooms[key] == mon {
			delete(m.rooms, key)
		}
		m.mu.Unlock()

		m.logger.Warn("room connect failed", "room_key", key, "error", err)
		return "", fmt.Errorf("start room %q: %w", key, err)
	}

	// The dial can complete even after a racing Stop cancelled it. Adopt
	// the connection only while the monitor is still registered; a
	// stopped room's late connection is discarded here, keeping at most
	// one upstream connection per room.
	m.mu.Lock()
	if m.rooms[key] != mon {
		m.mu.Unlock()
		cancel()
		conn.Close()
		m.logger.Info("room stopped while connecting, discarding connection", "room_key", key)
		return "", fmt.Errorf("start room %q: %w", key, context.Canceled)
	}
	mon.setConnected(conn)
	m.mu.Unlock()

	m.emit(mon, upstream.Event{Type: upstream.EventConnected, RoomID: conn.RoomID()})

	m.wg.Add(1)
	go m.pump(mon, conn)

	m.logger.Info("room monitor connected", "room_key", key, "room_id", conn.RoomID())
	return conn.RoomID(), nil
}

// Stop tears down a room's monitor. Stopping a room that is not active
// is a no-op, not an error. A room still connecting has its dial
// cancelled.
func (m *Manager) Stop(roomKey string) error {
	key := model.NormalizeRoomKey(roomKey)
	if key == "" {
		return ErrEmptyRoomKey
	}

	m.mu.Lock()
	mon, ok := m.rooms[key]
	if ok {
		delete(m.rooms, key)
	}
	m.mu.Unlock()

	if !ok {
		return nil
	}

	m.logger.Info("stopping room monitor", "room_key", key)
	mon.teardown()

	info := mon.info()
	m.recorder.Record(info.RoomKey, info.RoomID, info.Stats, m.now())
	return nil
}

// ListActive returns a snapshot of the registry, sorted by room key.
func (m *Manager) ListActive() []RoomInfo {
	m.mu.Lock()
	monitors := make([]*RoomMonitor, 0, len(m.rooms))
	for _, mon := range m.rooms {
		monitors = append(monitors, mon)
	}
	m.mu.Unlock()

	infos := make([]RoomInfo, 0, len(monitors))
	for _, mon := range monitors {
		infos = append(infos, mon.info())
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].RoomKey < infos[j].RoomKey })
	return infos
}

// ShutdownAll stops every active room and waits for their pumps to
// drain; used only at process termination.
func (m *Manager) ShutdownAll() {
	m.mu.Lock()
	monitors := make([]*RoomMonitor, 0, len(m.rooms))
	for _, mon := range m.rooms {
		monitors = append(monitors, mon)
	}
	m.rooms = make(map[string]*RoomMonitor)
	m.mu.Unlock()

	for _, mon := range monitors {
		mon.teardown()
		info := mon.info()
		m.recorder.Record(info.RoomKey, info.RoomID, info.Stats, m.now())
	}

	m.wg.Wait()
	m.logger.Info("all room monitors stopped", "count", len(monitors))
}

// pump forwards one room's upstream events until the connection ends.
// Runtime transport errors are logged, never forwarded and never fatal.
func (m *Manager) pump(mon *RoomMonitor, conn upstream.Conn) {
	defer m.wg.Done()

	for {
		select {
		case ev, ok := <-conn.Events():
			if !ok {
				mon.markDisconnected()
				m.emit(mon, upstream.Event{Type: upstream.EventDisconnected})

				info := mon.info()
				m.recorder.Record(info.RoomKey, info.RoomID, info.Stats, m.now())
				m.logger.Info("room upstream closed", "room_key", mon.key, "state", info.State)
				return
			}
			m.emit(mon, ev)

		case err := <-conn.Errors():
			m.logger.Warn("upstream error", "room_key", mon.key, "error", err)
		}
	}
}

// emit normalizes one raw event, folds it into the monitor's counters,
// and publishes it to the room's subscribers.
func (m *Manager) emit(mon *RoomMonitor, raw upstream.Event) {
	out, ok := normalize.Event(mon.key, raw, m.now())
	if !ok {
		return
	}

	if out.Type == model.KindStreamEnd {
		mon.setState(StateStreamEnded)
	}

	mon.mu.Lock()
	normalize.ApplyStats(&mon.stats, out)
	mon.mu.Unlock()

	m.pub.Publish(mon.key, out)
}
