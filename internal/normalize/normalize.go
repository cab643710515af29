// Package normalize maps raw upstream events into the outbound wire
// schema. Normalization is pure: one raw event in, at most one
// OutboundEvent out. Gift combo ticks and unknown events are dropped.
package normalize

import (
	"fmt"
	"time"

	"github.com/xmgamer/liverelay/internal/model"
	"github.com/xmgamer/liverelay/internal/upstream"
)

// UnknownUser is the display-name fallback when an event carries neither
// a nickname nor a unique handle.
const UnknownUser = "Unknown"

// streakableGiftType marks gifts that arrive as combo ticks. Only the
// final tick (RepeatEnd) of a streakable gift is forwarded.
const streakableGiftType = 1

// Event maps one raw upstream event for roomKey into an OutboundEvent.
// Timestamps are taken from now, not from the upstream payload: every
// kind uses unix seconds except room_stats, which keeps the feed's
// wall-clock millisecond convention. ok is false for dropped events
// (intermediate combo ticks, unknown kinds).
func Event(roomKey string, ev upstream.Event, now time.Time) (model.OutboundEvent, bool) {
	switch ev.Type {
	case upstream.EventConnected:
		return model.OutboundEvent{
			Type:      model.KindConnected,
			RoomKey:   roomKey,
			RoomID:    ev.RoomID,
			Message:   fmt.Sprintf("connected to live room @%s", roomKey),
			Timestamp: now.Unix(),
		}, true

	case upstream.EventDisconnected:
		return model.OutboundEvent{
			Type:      model.KindDisconnected,
			RoomKey:   roomKey,
			Message:   "live room connection closed",
			Timestamp: now.Unix(),
		}, true

	case upstream.EventStreamEnd:
		return model.OutboundEvent{
			Type:      model.KindStreamEnd,
			RoomKey:   roomKey,
			Message:   "live stream ended",
			Timestamp: now.Unix(),
		}, true

	case upstream.EventChat:
		out := userEvent(model.KindChat, roomKey, ev.User, now)
		out.Content = ev.Comment
		return out, true

	case upstream.EventGift:
		if ev.Gift == nil {
			return model.OutboundEvent{}, false
		}
		// Suppress intermediate combo ticks; forward only completed
		// combos and non-streakable gifts.
		if ev.Gift.Type == streakableGiftType && !ev.Gift.RepeatEnd {
			return model.OutboundEvent{}, false
		}
		out := userEvent(model.KindGift, roomKey, ev.User, now)
		out.GiftID = ev.Gift.ID
		out.GiftName = ev.Gift.Name
		if out.GiftName == "" {
			out.GiftName = fmt.Sprintf("gift-%d", ev.Gift.ID)
		}
		out.GiftCount = ev.Gift.RepeatCount
		if out.GiftCount <= 0 {
			out.GiftCount = 1
		}
		out.DiamondCount = ev.Gift.DiamondCount
		out.GiftImage = ev.Gift.PictureURL
		return out, true

	case upstream.EventMember:
		return userEvent(model.KindMember, roomKey, ev.User, now), true

	case upstream.EventLike:
		out := userEvent(model.KindLike, roomKey, ev.User, now)
		out.Count = 1
		if ev.Like != nil {
			if ev.Like.Count > 0 {
				out.Count = ev.Like.Count
			}
			out.Total = ev.Like.Total
		}
		return out, true

	case upstream.EventFollow:
		return userEvent(model.KindFollow, roomKey, ev.User, now), true

	case upstream.EventShare:
		return userEvent(model.KindShare, roomKey, ev.User, now), true

	case upstream.EventRoomUser:
		// Never synthesized: only forwarded when the upstream supplied
		// a viewer count.
		if ev.Room == nil {
			return model.OutboundEvent{}, false
		}
		return model.OutboundEvent{
			Type:        model.KindRoomStats,
			RoomKey:     roomKey,
			ViewerCount: ev.Room.ViewerCount,
			Timestamp:   now.UnixMilli(),
		}, true
	}

	return model.OutboundEvent{}, false
}

// userEvent builds the common shape of user-attributed events, applying
// the display-name fallback chain nickname -> unique handle -> Unknown.
func userEvent(kind model.EventKind, roomKey string, u *upstream.User, now time.Time) model.OutboundEvent {
	out := model.OutboundEvent{
		Type:      kind,
		RoomKey:   roomKey,
		UserName:  UnknownUser,
		Timestamp: now.Unix(),
	}
	if u == nil {
		return out
	}

	out.UserID = u.UserID
	out.UserAvatar = u.AvatarURL
	switch {
	case u.Nickname != "":
		out.UserName = u.Nickname
	case u.UniqueID != "":
		out.UserName = u.UniqueID
	}
	return out
}

// ApplyStats folds a normalized event into the room's counters. Chat,
// gift and member events count 1 each; likes add the event's delta.
func ApplyStats(s *model.Stats, ev model.OutboundEvent) {
	switch ev.Type {
	case model.KindChat:
		s.MessageCount++
	case model.KindGift:
		s.GiftCount++
	case model.KindMember:
		s.MemberCount++
	case model.KindLike:
		s.LikeCount += int64(ev.Count)
	}
}
