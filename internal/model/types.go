package model

// EventKind identifies an outbound event variant.
type EventKind string

// Outbound event kinds.
const (
	KindConnected    EventKind = "connected"
	KindDisconnected EventKind = "disconnected"
	KindStreamEnd    EventKind = "stream_end"
	KindChat         EventKind = "chat"
	KindGift         EventKind = "gift"
	KindMember       EventKind = "member"
	KindLike         EventKind = "like"
	KindFollow       EventKind = "follow"
	KindShare        EventKind = "share"
	KindRoomStats    EventKind = "room_stats"
)

// OutboundEvent is the uniform message delivered to subscribers. It is a
// tagged union: Type selects the variant and only that variant's fields
// are populated. Immutable once constructed.
type OutboundEvent struct {
	Type    EventKind `json:"type"`
	RoomKey string    `json:"room_key"`

	// RoomID is the upstream-assigned room identifier (connected only).
	RoomID string `json:"room_id,omitempty"`

	// Message is a human-readable status line (connected, disconnected,
	// stream_end).
	Message string `json:"message,omitempty"`

	// User fields (chat, gift, member, like, follow, share).
	UserID     string `json:"user_id,omitempty"`
	UserName   string `json:"user_name,omitempty"`
	UserAvatar string `json:"user_avatar,omitempty"`

	// Content is the chat comment text (chat only).
	Content string `json:"content,omitempty"`

	// Gift fields (gift only).
	GiftID       int64  `json:"gift_id,omitempty"`
	GiftName     string `json:"gift_name,omitempty"`
	GiftCount    int    `json:"gift_count,omitempty"`
	DiamondCount int    `json:"diamond_count,omitempty"`
	GiftImage    string `json:"gift_image,omitempty"`

	// Like fields (like only). Count is the delta for this event, Total
	// the cumulative room total when the upstream supplies it.
	Count int `json:"count,omitempty"`
	Total int `json:"total,omitempty"`

	// ViewerCount is the current viewer count (room_stats only).
	ViewerCount int `json:"viewer_count,omitempty"`

	// Timestamp is unix seconds, except room_stats which uses wall-clock
	// milliseconds.
	Timestamp int64 `json:"timestamp"`
}

// Stats holds the per-room aggregate counters reported by status().
type Stats struct {
	MessageCount int64 `json:"message_count"`
	GiftCount    int64 `json:"gift_count"`
	MemberCount  int64 `json:"member_count"`
	LikeCount    int64 `json:"like_count"`
}
