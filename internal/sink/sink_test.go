package sink

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/xmgamer/liverelay/internal/config"
	"github.com/xmgamer/liverelay/internal/model"
)

func testSinkConfig() config.SinkConfig {
	return config.SinkConfig{
		BatchSize:     100,
		FlushInterval: time.Hour,
		BufferSize:    16,
	}
}

// captureInserts swaps the insert seam for one that records batches.
func captureInserts(s *SnapshotSink) func() [][]snapshotRow {
	var (
		mu      sync.Mutex
		batches [][]snapshotRow
	)
	s.insert = func(_ context.Context, rows []snapshotRow) error {
		mu.Lock()
		defer mu.Unlock()
		batch := make([]snapshotRow, len(rows))
		copy(batch, rows)
		batches = append(batches, batch)
		return nil
	}
	return func() [][]snapshotRow {
		mu.Lock()
		defer mu.Unlock()
		return batches
	}
}

func TestSnapshotSink_RecordBuildsRow(t *testing.T) {
	s := NewSnapshotSink(testSinkConfig(), nil, nil)
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	s.Record("abc", "room-1", model.Stats{
		MessageCount: 3,
		GiftCount:    2,
		MemberCount:  5,
		LikeCount:    40,
	}, at)

	select {
	case row := <-s.input:
		if row.RoomKey != "abc" || row.RoomID != "room-1" {
			t.Errorf("row identity = %s/%s, want abc/room-1", row.RoomKey, row.RoomID)
		}
		if row.MessageCount != 3 || row.GiftCount != 2 || row.MemberCount != 5 || row.LikeCount != 40 {
			t.Errorf("row counters = %+v, want 3/2/5/40", row)
		}
		if !row.RecordedAt.Equal(at) {
			t.Errorf("RecordedAt = %v, want %v", row.RecordedAt, at)
		}
	default:
		t.Fatal("no row queued")
	}
}

func TestSnapshotSink_RecordDropsWhenFull(t *testing.T) {
	cfg := testSinkConfig()
	cfg.BufferSize = 1
	s := NewSnapshotSink(cfg, nil, nil)

	s.Record("a", "1", model.Stats{}, time.Now())
	s.Record("b", "2", model.Stats{}, time.Now())

	if got := s.Stats().Dropped; got != 1 {
		t.Errorf("Dropped = %d, want 1", got)
	}
}

func TestSnapshotSink_FlushAtBatchSize(t *testing.T) {
	cfg := testSinkConfig()
	cfg.BatchSize = 2
	s := NewSnapshotSink(cfg, nil, nil)
	batches := captureInserts(s)

	s.handleRow(snapshotRow{RoomKey: "a"})
	if got := batches(); len(got) != 0 {
		t.Fatalf("flushed %d batches below threshold, want 0", len(got))
	}

	s.handleRow(snapshotRow{RoomKey: "b"})
	got := batches()
	if len(got) != 1 || len(got[0]) != 2 {
		t.Fatalf("batches = %v, want one batch of 2", got)
	}

	stats := s.Stats()
	if stats.Inserts != 2 || stats.Flushes != 1 {
		t.Errorf("stats = %+v, want 2 inserts in 1 flush", stats)
	}
}

func TestSnapshotSink_StopFlushesQueued(t *testing.T) {
	s := NewSnapshotSink(testSinkConfig(), nil, nil)
	batches := captureInserts(s)

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	s.Record("abc", "room-1", model.Stats{MessageCount: 1}, time.Now())

	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.Stop(stopCtx); err != nil {
		t.Errorf("Stop() error = %v", err)
	}

	var total int
	for _, b := range batches() {
		total += len(b)
	}
	if total != 1 {
		t.Errorf("flushed %d rows across %d batches, want 1", total, len(batches()))
	}
}

func TestSnapshotSink_FlushErrorCounted(t *testing.T) {
	s := NewSnapshotSink(testSinkConfig(), nil, nil)
	s.insert = func(context.Context, []snapshotRow) error {
		return context.DeadlineExceeded
	}

	s.handleRow(snapshotRow{RoomKey: "a"})
	s.flush()

	stats := s.Stats()
	if stats.Errors != 1 {
		t.Errorf("Errors = %d, want 1", stats.Errors)
	}
	if stats.Inserts != 0 {
		t.Errorf("Inserts = %d, want 0 after failed flush", stats.Inserts)
	}
}
