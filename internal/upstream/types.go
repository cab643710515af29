package upstream

import (
	"context"
	"errors"
)

// Errors
var (
	ErrRoomNotFound    = errors.New("room not found or user has never been live")
	ErrRoomOffline     = errors.New("user is not currently live")
	ErrPageBlocked     = errors.New("live page fetch blocked (captcha or rate limit)")
	ErrConnectTimedOut = errors.New("upstream connect timed out")
)

// EventType identifies a raw upstream event variant.
type EventType string

// Raw upstream event types. Connected and Disconnected are synthesized
// by the connection owner around the feed's lifetime; the rest are
// decoded from frames.
const (
	EventConnected    EventType = "connected"
	EventDisconnected EventType = "disconnected"
	EventStreamEnd    EventType = "stream_end"
	EventChat         EventType = "chat"
	EventGift         EventType = "gift"
	EventMember       EventType = "member"
	EventLike         EventType = "like"
	EventFollow       EventType = "follow"
	EventShare        EventType = "share"
	EventRoomUser     EventType = "room_user"
)

// User carries the sender fields an upstream event may include. Any of
// them can be empty; consumers apply their own fallbacks.
type User struct {
	UserID    string
	UniqueID  string
	Nickname  string
	AvatarURL string
}

// Gift carries the gift fields of a gift event. Type 1 gifts are
// streakable: intermediate combo ticks arrive with RepeatEnd false and a
// final tick with RepeatEnd true.
type Gift struct {
	ID           int64
	Name         string
	Type         int
	RepeatCount  int
	RepeatEnd    bool
	DiamondCount int
	PictureURL   string
}

// Like carries the like fields of a like event. Count is the delta this
// event represents; Total is the room's cumulative count when supplied.
type Like struct {
	Count int
	Total int
}

// RoomUser carries a viewer-count update. It is only attached to an
// event when the upstream frame actually contained the field.
type RoomUser struct {
	ViewerCount int
}

// Event is a tagged variant decoded from one upstream frame. Type
// selects the variant; the pointer fields are nil unless the frame
// supplied them.
type Event struct {
	Type    EventType
	User    *User
	Comment string
	Gift    *Gift
	Like    *Like
	Room    *RoomUser

	// RoomID is set on synthesized Connected events only.
	RoomID string
}

// Conn is an open feed for a single room. Close is idempotent and safe
// to call while another goroutine is still reading Events.
type Conn interface {
	// RoomID returns the upstream-assigned numeric room identifier.
	RoomID() string

	// Events returns the decoded event stream. The channel is closed
	// when the connection ends.
	Events() <-chan Event

	// Errors returns transport errors occurring after a successful
	// connect.
	Errors() <-chan error

	// Close tears the connection down.
	Close() error
}

// Dialer opens upstream connections. The room key must already be
// normalized.
type Dialer interface {
	Dial(ctx context.Context, roomKey string) (Conn, error)
}
