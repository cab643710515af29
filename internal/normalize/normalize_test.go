package normalize

import (
	"testing"
	"time"

	"github.com/xmgamer/liverelay/internal/model"
	"github.com/xmgamer/liverelay/internal/upstream"
)

var testNow = time.Unix(1735689600, 500*int64(time.Millisecond))

func TestEvent_ChatUserFallbacks(t *testing.T) {
	tests := []struct {
		name     string
		user     *upstream.User
		wantName string
	}{
		{
			name:     "nickname preferred",
			user:     &upstream.User{Nickname: "Alice", UniqueID: "alice123"},
			wantName: "Alice",
		},
		{
			name:     "falls back to unique handle",
			user:     &upstream.User{UniqueID: "alice123"},
			wantName: "alice123",
		},
		{
			name:     "falls back to Unknown",
			user:     &upstream.User{UserID: "u1"},
			wantName: UnknownUser,
		},
		{
			name:     "nil user",
			user:     nil,
			wantName: UnknownUser,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, ok := Event("abc", upstream.Event{
				Type:    upstream.EventChat,
				User:    tt.user,
				Comment: "hi",
			}, testNow)
			if !ok {
				t.Fatal("chat event dropped")
			}
			if out.Type != model.KindChat {
				t.Errorf("Type = %s, want chat", out.Type)
			}
			if out.UserName != tt.wantName {
				t.Errorf("UserName = %q, want %q", out.UserName, tt.wantName)
			}
			if out.Content != "hi" {
				t.Errorf("Content = %q, want %q", out.Content, "hi")
			}
			if out.Timestamp != testNow.Unix() {
				t.Errorf("Timestamp = %d, want unix seconds %d", out.Timestamp, testNow.Unix())
			}
		})
	}
}

func TestEvent_GiftComboSuppression(t *testing.T) {
	gift := func(giftType int, repeatEnd bool, count int) upstream.Event {
		return upstream.Event{
			Type: upstream.EventGift,
			User: &upstream.User{Nickname: "Bob"},
			Gift: &upstream.Gift{ID: 5, Name: "Rose", Type: giftType, RepeatCount: count, RepeatEnd: repeatEnd, DiamondCount: count},
		}
	}

	// Stream of [tick, tick, end] emits exactly one event.
	var emitted []model.OutboundEvent
	for _, ev := range []upstream.Event{gift(1, false, 1), gift(1, false, 2), gift(1, true, 3)} {
		if out, ok := Event("abc", ev, testNow); ok {
			emitted = append(emitted, out)
		}
	}
	if len(emitted) != 1 {
		t.Fatalf("emitted %d events for combo stream, want 1", len(emitted))
	}
	if emitted[0].GiftCount != 3 {
		t.Errorf("GiftCount = %d, want cumulative 3", emitted[0].GiftCount)
	}
	if emitted[0].DiamondCount != 3 {
		t.Errorf("DiamondCount = %d, want 3", emitted[0].DiamondCount)
	}

	// Non-streakable gifts pass through regardless of RepeatEnd.
	if _, ok := Event("abc", gift(2, false, 1), testNow); !ok {
		t.Error("non-streakable gift was dropped")
	}
}

func TestEvent_GiftDefaults(t *testing.T) {
	out, ok := Event("abc", upstream.Event{
		Type: upstream.EventGift,
		Gift: &upstream.Gift{ID: 9, Type: 2},
	}, testNow)
	if !ok {
		t.Fatal("gift dropped")
	}
	if out.GiftName != "gift-9" {
		t.Errorf("GiftName = %q, want fallback %q", out.GiftName, "gift-9")
	}
	if out.GiftCount != 1 {
		t.Errorf("GiftCount = %d, want default 1", out.GiftCount)
	}
}

func TestEvent_LikeDefaults(t *testing.T) {
	out, ok := Event("abc", upstream.Event{Type: upstream.EventLike}, testNow)
	if !ok {
		t.Fatal("like dropped")
	}
	if out.Count != 1 {
		t.Errorf("Count = %d, want default 1", out.Count)
	}

	out, _ = Event("abc", upstream.Event{
		Type: upstream.EventLike,
		Like: &upstream.Like{Count: 5, Total: 120},
	}, testNow)
	if out.Count != 5 || out.Total != 120 {
		t.Errorf("Count/Total = %d/%d, want 5/120", out.Count, out.Total)
	}
}

func TestEvent_RoomStatsTimestampMillis(t *testing.T) {
	out, ok := Event("abc", upstream.Event{
		Type: upstream.EventRoomUser,
		Room: &upstream.RoomUser{ViewerCount: 77},
	}, testNow)
	if !ok {
		t.Fatal("room_user dropped")
	}
	if out.Type != model.KindRoomStats {
		t.Errorf("Type = %s, want room_stats", out.Type)
	}
	if out.ViewerCount != 77 {
		t.Errorf("ViewerCount = %d, want 77", out.ViewerCount)
	}
	if out.Timestamp != testNow.UnixMilli() {
		t.Errorf("Timestamp = %d, want milliseconds %d", out.Timestamp, testNow.UnixMilli())
	}

	if _, ok := Event("abc", upstream.Event{Type: upstream.EventRoomUser}, testNow); ok {
		t.Error("room_user without viewer count should be dropped")
	}
}

func TestEvent_Lifecycle(t *testing.T) {
	out, ok := Event("abc", upstream.Event{Type: upstream.EventConnected, RoomID: "741"}, testNow)
	if !ok || out.Type != model.KindConnected {
		t.Fatalf("connected = %+v, %v", out, ok)
	}
	if out.RoomID != "741" {
		t.Errorf("RoomID = %q, want %q", out.RoomID, "741")
	}
	if out.Message == "" {
		t.Error("connected event should carry a status message")
	}

	out, ok = Event("abc", upstream.Event{Type: upstream.EventStreamEnd}, testNow)
	if !ok || out.Type != model.KindStreamEnd {
		t.Fatalf("stream_end = %+v, %v", out, ok)
	}

	out, ok = Event("abc", upstream.Event{Type: upstream.EventDisconnected}, testNow)
	if !ok || out.Type != model.KindDisconnected {
		t.Fatalf("disconnected = %+v, %v", out, ok)
	}
}

func TestApplyStats(t *testing.T) {
	var s model.Stats
	ApplyStats(&s, model.OutboundEvent{Type: model.KindChat})
	ApplyStats(&s, model.OutboundEvent{Type: model.KindGift})
	ApplyStats(&s, model.OutboundEvent{Type: model.KindMember})
	ApplyStats(&s, model.OutboundEvent{Type: model.KindLike, Count: 5})
	ApplyStats(&s, model.OutboundEvent{Type: model.KindFollow})
	ApplyStats(&s, model.OutboundEvent{Type: model.KindRoomStats, ViewerCount: 3})

	if s.MessageCount != 1 || s.GiftCount != 1 || s.MemberCount != 1 {
		t.Errorf("Stats = %+v, want 1/1/1 message/gift/member", s)
	}
	if s.LikeCount != 5 {
		t.Errorf("LikeCount = %d, want like delta 5", s.LikeCount)
	}
}
