// Package model defines the outbound wire schema shared by the relay.
//
// Conventions:
//   - Timestamps: int64 unix seconds for every event kind except
//     room_stats, which carries wall-clock milliseconds (preserved from
//     the upstream feed's observed behavior)
//   - Keys: room keys are always normalized (trimmed, no leading "@",
//     lower case) before they appear in an event
//   - Counters: non-negative, monotonically non-decreasing for the life
//     of a room monitor
package model
