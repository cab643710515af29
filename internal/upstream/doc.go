// Package upstream implements the connection to the live platform's
// webcast feed.
//
// One Conn is opened per monitored room. Dialing happens in two steps:
// the room's live page is fetched to resolve the numeric room id (parsed
// out of the embedded SIGI_STATE blob), then the webcast WebSocket
// endpoint is dialed with that id. Both steps honor the process-wide
// proxy settings.
//
// Incoming frames are decoded defensively into tagged Event values with
// explicit optional fields; unknown frames are dropped.
package upstream
