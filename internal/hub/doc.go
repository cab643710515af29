// Package hub fans normalized events out to subscriber sessions.
//
// A session is one WebSocket connection from a browser. Sessions join
// and leave rooms with small JSON control frames; Publish delivers an
// event to every session in the room at call time. Delivery is
// best-effort: a session whose outbound queue is full has that one
// event dropped, and delivery to the remaining subscribers continues.
package hub
