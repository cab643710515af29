// Package sink persists room counter snapshots to PostgreSQL. Snapshots
// are accepted on a bounded queue and written in batches, so recording
// never blocks the event path. The sink is optional; when no database is
// configured the relay uses a no-op recorder instead.
package sink
