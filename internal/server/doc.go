// Package server exposes the relay's HTTP surface: the JSON control
// plane for starting and stopping room monitors, the runtime proxy
// endpoint, health, and the subscriber WebSocket upgrade.
package server
