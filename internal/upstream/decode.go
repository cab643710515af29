package upstream

import "encoding/json"

// Wire structs mirror the feed's frames with every field optional. The
// feed is inconsistent about key casing, so user fields carry alternate
// spellings and pick() takes the first non-empty one.

type wireFrame struct {
	Type   string `json:"type"`
	Action string `json:"action"`

	User    *wireUser `json:"user"`
	Comment string    `json:"comment"`

	Gift *wireGift `json:"gift"`

	Count *int `json:"count"`
	Total *int `json:"total"`

	ViewerCount *int `json:"viewer_count"`
}

type wireUser struct {
	UserID      string `json:"userId"`
	UserIDSnake string `json:"user_id"`

	UniqueID      string `json:"uniqueId"`
	UniqueIDSnake string `json:"unique_id"`

	Nickname    string `json:"nickname"`
	NicknameAlt string `json:"nickName"`

	ProfilePictureURL string `json:"profilePictureUrl"`
	AvatarURL         string `json:"avatar_url"`
}

type wireGift struct {
	ID           int64  `json:"gift_id"`
	Name         string `json:"name"`
	Type         int    `json:"gift_type"`
	RepeatCount  int    `json:"repeat_count"`
	RepeatEnd    bool   `json:"repeat_end"`
	DiamondCount int    `json:"diamond_count"`
	PictureURL   string `json:"picture_url"`
}

func pick(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func (w *wireUser) toUser() *User {
	if w == nil {
		return nil
	}
	return &User{
		UserID:    pick(w.UserID, w.UserIDSnake),
		UniqueID:  pick(w.UniqueID, w.UniqueIDSnake),
		Nickname:  pick(w.Nickname, w.NicknameAlt),
		AvatarURL: pick(w.ProfilePictureURL, w.AvatarURL),
	}
}

// decodeFrame decodes one raw frame into an Event. Unknown or
// unparseable frames return ok=false and are dropped.
func decodeFrame(data []byte) (Event, bool) {
	var f wireFrame
	if err := json.Unmarshal(data, &f); err != nil {
		return Event{}, false
	}

	switch f.Type {
	case "chat":
		return Event{Type: EventChat, User: f.User.toUser(), Comment: f.Comment}, true

	case "gift":
		ev := Event{Type: EventGift, User: f.User.toUser()}
		if f.Gift != nil {
			g := Gift(*f.Gift)
			ev.Gift = &g
		}
		return ev, true

	case "member":
		return Event{Type: EventMember, User: f.User.toUser()}, true

	case "like":
		ev := Event{Type: EventLike, User: f.User.toUser(), Like: &Like{}}
		if f.Count != nil {
			ev.Like.Count = *f.Count
		}
		if f.Total != nil {
			ev.Like.Total = *f.Total
		}
		return ev, true

	case "follow":
		return Event{Type: EventFollow, User: f.User.toUser()}, true

	case "share":
		return Event{Type: EventShare, User: f.User.toUser()}, true

	case "room_user":
		// Viewer counts are forwarded only when the frame carries one.
		if f.ViewerCount == nil {
			return Event{}, false
		}
		return Event{Type: EventRoomUser, Room: &RoomUser{ViewerCount: *f.ViewerCount}}, true

	case "control":
		if f.Action == "stream_end" || f.Action == "ended" {
			return Event{Type: EventStreamEnd}, true
		}
		return Event{}, false
	}

	return Event{}, false
}
