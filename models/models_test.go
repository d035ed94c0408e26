package models

import (
	"testing"
	"time"
)

func TestInviteIsExpired(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		invite Invite
		want   bool
	}{
		{"pending before deadline", Invite{Status: InviteStatusPending, ExpiresAt: now.Add(time.Hour)}, false},
		{"pending at deadline", Invite{Status: InviteStatusPending, ExpiresAt: now}, false},
		{"pending after deadline", Invite{Status: InviteStatusPending, ExpiresAt: now.Add(-time.Second)}, true},
		{"accepted after deadline", Invite{Status: InviteStatusAccepted, ExpiresAt: now.Add(-time.Hour)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.invite.IsExpired(now); got != tt.want {
				t.Fatalf("IsExpired() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRoomMemberLastRead(t *testing.T) {
	var nilMember *RoomMember
	if nilMember.LastRead() != 0 {
		t.Fatalf("nil member should read as zero")
	}

	id := uint(42)
	m := &RoomMember{Status: MemberStatusActive, LastReadMessageID: &id}
	if m.LastRead() != 42 {
		t.Fatalf("LastRead() = %d, want 42", m.LastRead())
	}
	if !m.IsActive() {
		t.Fatalf("expected active member")
	}
}

func TestMessageTypeValid(t *testing.T) {
	if MessageType("VIDEO").Valid() {
		t.Fatalf("unknown type reported valid")
	}
	if !MessageTypeSettlementCard.IsCard() || MessageTypeText.IsCard() {
		t.Fatalf("IsCard mismatch")
	}
}
