// Package monitor implements the room monitor manager.
//
// The Manager owns the registry of active rooms. Each active room holds
// at most one upstream connection; starting an already-active room is
// idempotent and never opens a second one. A monitor is registered
// while still connecting so a racing Stop can cancel the dial, and a
// failed dial rolls the registration back so a retry is not blocked.
//
// Upstream disconnects and stream-end signals do not remove a monitor:
// it stays registered (and visible to status queries) until an explicit
// Stop. There is no automatic reconnect.
package monitor
