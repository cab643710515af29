package sink

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xmgamer/liverelay/internal/config"
	"github.com/xmgamer/liverelay/internal/model"
)

// snapshotRow is one room's counters at a point in time.
type snapshotRow struct {
	RoomKey      string
	RoomID       string
	MessageCount int64
	GiftCount    int64
	MemberCount  int64
	LikeCount    int64
	RecordedAt   time.Time
}

// Metrics counts sink activity.
type Metrics struct {
	Inserts int64 `json:"inserts"`
	Flushes int64 `json:"flushes"`
	Errors  int64 `json:"errors"`
	Dropped int64 `json:"dropped"`
}

// SnapshotSink batches room counter snapshots into the
// room_stats_snapshots table.
type SnapshotSink struct {
	cfg    config.SinkConfig
	logger *slog.Logger
	db     *pgxpool.Pool

	input chan snapshotRow

	batch       []snapshotRow
	batchMu     sync.Mutex
	flushTicker *time.Ticker

	// insert performs one batch write; replaceable in tests.
	insert func(ctx context.Context, rows []snapshotRow) error

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	metrics Metrics
}

// NewSnapshotSink creates a sink writing to db.
func NewSnapshotSink(cfg config.SinkConfig, db *pgxpool.Pool, logger *slog.Logger) *SnapshotSink {
	if logger == nil {
		logger = slog.Default()
	}
	s := &SnapshotSink{
		cfg:    cfg,
		logger: logger,
		db:     db,
		input:  make(chan snapshotRow, cfg.BufferSize),
		batch:  make([]snapshotRow, 0, cfg.BatchSize),
	}
	s.insert = s.batchInsert
	return s
}

// Record implements monitor.StatsRecorder. It never blocks; snapshots
// are dropped with a warning when the queue is full.
func (s *SnapshotSink) Record(roomKey, roomID string, stats model.Stats, at time.Time) {
	row := snapshotRow{
		RoomKey:      roomKey,
		RoomID:       roomID,
		MessageCount: stats.MessageCount,
		GiftCount:    stats.GiftCount,
		MemberCount:  stats.MemberCount,
		LikeCount:    stats.LikeCount,
		RecordedAt:   at,
	}

	select {
	case s.input <- row:
	default:
		s.batchMu.Lock()
		s.metrics.Dropped++
		s.batchMu.Unlock()
		s.logger.Warn("snapshot queue full, dropping", "room_key", roomKey)
	}
}

// Start begins consuming snapshots and writing batches.
func (s *SnapshotSink) Start(ctx context.Context) error {
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.flushTicker = time.NewTicker(s.cfg.FlushInterval)

	s.wg.Add(1)
	go s.consumeLoop()

	s.wg.Add(1)
	go s.flushLoop()

	s.logger.Info("snapshot sink started",
		"batch_size", s.cfg.BatchSize,
		"flush_interval", s.cfg.FlushInterval,
	)
	return nil
}

// Stop gracefully shuts down the sink. Queued snapshots are drained and
// the final batch is flushed.
func (s *SnapshotSink) Stop(ctx context.Context) error {
	s.logger.Info("stopping snapshot sink")

	if s.cancel != nil {
		s.cancel()
	}
	if s.flushTicker != nil {
		s.flushTicker.Stop()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("snapshot sink stopped")
	case <-ctx.Done():
		s.logger.Warn("snapshot sink stop timed out")
	}

	s.drain()
	s.flush()
	return nil
}

// Stats returns current metrics.
func (s *SnapshotSink) Stats() Metrics {
	s.batchMu.Lock()
	defer s.batchMu.Unlock()
	return s.metrics
}

func (s *SnapshotSink) consumeLoop() {
	defer s.wg.Done()

	for {
		select {
		case <-s.ctx.Done():
			return
		case row := <-s.input:
			s.handleRow(row)
		}
	}
}

func (s *SnapshotSink) flushLoop() {
	defer s.wg.Done()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-s.flushTicker.C:
			s.flush()
		}
	}
}

func (s *SnapshotSink) handleRow(row snapshotRow) {
	s.batchMu.Lock()
	s.batch = append(s.batch, row)
	shouldFlush := len(s.batch) >= s.cfg.BatchSize
	s.batchMu.Unlock()

	if shouldFlush {
		s.flush()
	}
}

// drain moves any still-queued snapshots into the batch after the
// consumer has exited.
func (s *SnapshotSink) drain() {
	for {
		select {
		case row := <-s.input:
			s.batchMu.Lock()
			s.batch = append(s.batch, row)
			s.batchMu.Unlock()
		default:
			return
		}
	}
}

// flush writes the current batch to the database.
func (s *SnapshotSink) flush() {
	s.batchMu.Lock()
	if len(s.batch) == 0 {
		s.batchMu.Unlock()
		return
	}

	// Take ownership of current batch
	batch := s.batch
	s.batch = make([]snapshotRow, 0, s.cfg.BatchSize)
	s.batchMu.Unlock()

	start := time.Now()

	if err := s.insert(context.Background(), batch); err != nil {
		s.logger.Error("batch insert failed", "error", err, "count", len(batch))
		s.batchMu.Lock()
		s.metrics.Errors++
		s.batchMu.Unlock()
		return
	}

	s.batchMu.Lock()
	s.metrics.Inserts += int64(len(batch))
	s.metrics.Flushes++
	s.batchMu.Unlock()

	s.logger.Debug("flushed snapshots",
		"count", len(batch),
		"duration", time.Since(start),
	)
}

// batchInsert writes rows using pgx.Batch.
func (s *SnapshotSink) batchInsert(ctx context.Context, rows []snapshotRow) error {
	batch := &pgx.Batch{}
	for _, r := range rows {
		batch.Queue(`
			INSERT INTO room_stats_snapshots (room_key, room_id, message_count, gift_count, member_count, like_count, recorded_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, r.RoomKey, r.RoomID, r.MessageCount, r.GiftCount, r.MemberCount, r.LikeCount, r.RecordedAt)
	}

	results := s.db.SendBatch(ctx, batch)
	defer results.Close()

	for range rows {
		if _, err := results.Exec(); err != nil {
			return err
		}
	}
	return nil
}
