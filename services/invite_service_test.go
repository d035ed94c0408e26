package services_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/CUknot/chat_backend/cache"
	"github.com/CUknot/chat_backend/models"
	"github.com/CUknot/chat_backend/pubsub"
	"github.com/CUknot/chat_backend/services"
)

const hikingPost = 77

type inviteSetup struct {
	*fixture
	private *services.RoomView
	group   *services.RoomView
}

func newInviteSetup(t *testing.T) *inviteSetup {
	t.Helper()
	f := newFixture(t, cache.Noop{})
	post := uint(hikingPost)
	group, err := f.chat.CreateGroupRoom(context.Background(), f.alice.ID, "Hiking", &post)
	if err != nil {
		t.Fatalf("CreateGroupRoom: %v", err)
	}
	return &inviteSetup{fixture: f, private: f.privateRoom(t, f.alice, f.bob), group: group}
}

func (s *inviteSetup) invite(t *testing.T) *models.Invite {
	t.Helper()
	inv, err := s.invites.CreateInvite(context.Background(), services.CreateInviteRequest{
		PrivateRoomID:     s.private.ID,
		InviterID:         s.alice.ID,
		InviteeID:         s.bob.ID,
		TargetGroupPostID: hikingPost,
	})
	if err != nil {
		t.Fatalf("CreateInvite: %v", err)
	}
	return inv
}

func TestCreateInvitePostsCardAndNotifies(t *testing.T) {
	ctx := context.Background()
	s := newInviteSetup(t)

	inv := s.invite(t)
	if inv.Status != models.InviteStatusPending {
		t.Fatalf("status = %s", inv.Status)
	}
	if want := s.clock.Now().Add(7 * 24 * time.Hour); !inv.ExpiresAt.Equal(want) {
		t.Fatalf("expiresAt = %s, want %s", inv.ExpiresAt, want)
	}

	page, err := s.chat.ListMessages(ctx, s.private.ID, s.bob.ID, 0, 10)
	if err != nil {
		t.Fatalf("ListMessages: %v", err)
	}
	if len(page.Items) != 1 || page.Items[0].Type != models.MessageTypeInviteCard {
		t.Fatalf("transcript = %+v", page.Items)
	}
	var card services.InviteCard
	if err := json.Unmarshal(page.Items[0].CardPayload, &card); err != nil {
		t.Fatalf("card payload: %v", err)
	}
	if card.InviteID != inv.ID || card.TargetGroupPostID != hikingPost {
		t.Fatalf("card = %+v", card)
	}

	events := s.events.find(pubsub.UserTopic(s.bob.ID), services.EventInviteReceived)
	if len(events) != 1 {
		t.Fatalf("invite-received events = %d, want 1", len(events))
	}
	if view := events[0].Payload.(services.InviteView); view.ID != inv.ID || view.InviterName != "alice" {
		t.Fatalf("event payload = %+v", view)
	}
}

func TestCreateInviteIsIdempotentWhilePending(t *testing.T) {
	s := newInviteSetup(t)

	first := s.invite(t)
	s.clock.Advance(time.Hour)
	second := s.invite(t)
	if first.ID != second.ID {
		t.Fatalf("second create returned %d, want %d", second.ID, first.ID)
	}
	if n := len(s.events.find(pubsub.UserTopic(s.bob.ID), services.EventInviteReceived)); n != 1 {
		t.Fatalf("invite-received events = %d, want 1", n)
	}
}

func TestCreateInviteReplacesExpiredPending(t *testing.T) {
	ctx := context.Background()
	s := newInviteSetup(t)

	stale := s.invite(t)
	s.clock.Advance(8 * 24 * time.Hour)
	fresh := s.invite(t)
	if fresh.ID == stale.ID {
		t.Fatalf("expired invite returned")
	}
	old, err := s.store.Invites().FindByID(ctx, stale.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if old.Status != models.InviteStatusExpired {
		t.Fatalf("stale status = %s, want EXPIRED", old.Status)
	}
}

func TestCreateInvitePermissions(t *testing.T) {
	ctx := context.Background()
	s := newInviteSetup(t)

	_, err := s.invites.CreateInvite(ctx, services.CreateInviteRequest{PrivateRoomID: s.private.ID, InviterID: s.bob.ID, InviteeID: s.alice.ID, TargetGroupPostID: hikingPost})
	assertCode(t, err, services.ErrNotRoomOwner)

	_, err = s.invites.CreateInvite(ctx, services.CreateInviteRequest{PrivateRoomID: s.private.ID, InviterID: s.alice.ID, InviteeID: s.carol.ID, TargetGroupPostID: hikingPost})
	assertCode(t, err, services.ErrInviteeNotInRoom)

	_, err = s.invites.CreateInvite(ctx, services.CreateInviteRequest{PrivateRoomID: s.private.ID, InviterID: s.carol.ID, InviteeID: s.bob.ID, TargetGroupPostID: hikingPost})
	assertCode(t, err, services.ErrNotMember)

	_, err = s.invites.CreateInvite(ctx, services.CreateInviteRequest{PrivateRoomID: 404, InviterID: s.alice.ID, InviteeID: s.bob.ID, TargetGroupPostID: hikingPost})
	assertCode(t, err, services.ErrRoomNotFound)

	_, err = s.invites.CreateInvite(ctx, services.CreateInviteRequest{PrivateRoomID: s.private.ID, InviterID: s.alice.ID, InviteeID: s.alice.ID, TargetGroupPostID: hikingPost})
	if e := services.AsError(err); e == nil || e.Code != "SELF_INVITE" {
		t.Fatalf("self invite err = %v", err)
	}
}

func TestCreateInviteFromGroupRoomForbidden(t *testing.T) {
	ctx := context.Background()
	s := newInviteSetup(t)
	inv := s.invite(t)
	if _, err := s.invites.AcceptInvite(ctx, inv.ID, s.bob.ID, s.group.ID); err != nil {
		t.Fatalf("AcceptInvite: %v", err)
	}

	_, err := s.invites.CreateInvite(ctx, services.CreateInviteRequest{PrivateRoomID: s.group.ID, InviterID: s.alice.ID, InviteeID: s.bob.ID, TargetGroupPostID: hikingPost})
	assertCode(t, err, services.ErrNotPrivateRoom)
}

func TestAcceptInviteJoinsGroup(t *testing.T) {
	ctx := context.Background()
	s := newInviteSetup(t)
	inv := s.invite(t)
	s.clock.Advance(time.Minute)

	accepted, err := s.invites.AcceptInvite(ctx, inv.ID, s.bob.ID, s.group.ID)
	if err != nil {
		t.Fatalf("AcceptInvite: %v", err)
	}
	if accepted.Status != models.InviteStatusAccepted || accepted.AcceptedAt == nil {
		t.Fatalf("invite = %+v", accepted)
	}
	if !s.member(t, s.group.ID, s.bob).IsActive() {
		t.Fatalf("bob is not an active member of the group")
	}

	page, err := s.chat.ListMessages(ctx, s.group.ID, s.bob.ID, 0, 10)
	if err != nil {
		t.Fatalf("ListMessages: %v", err)
	}
	if len(page.Items) != 1 {
		t.Fatalf("group messages = %d, want 1", len(page.Items))
	}
	if m := page.Items[0]; m.Type != models.MessageTypeSystem || m.Content != "bob joined" {
		t.Fatalf("system message = %+v", m.Message)
	}
}

func TestAcceptInviteTwiceIsSafe(t *testing.T) {
	ctx := context.Background()
	s := newInviteSetup(t)
	inv := s.invite(t)

	first, err := s.invites.AcceptInvite(ctx, inv.ID, s.bob.ID, s.group.ID)
	if err != nil {
		t.Fatalf("first accept: %v", err)
	}
	second, err := s.invites.AcceptInvite(ctx, inv.ID, s.bob.ID, s.group.ID)
	if err != nil {
		t.Fatalf("second accept: %v", err)
	}
	if second.ID != first.ID || second.Status != models.InviteStatusAccepted {
		t.Fatalf("second accept = %+v", second)
	}

	n, err := s.store.Members().CountActive(ctx, s.group.ID)
	if err != nil {
		t.Fatalf("CountActive: %v", err)
	}
	if n != 2 {
		t.Fatalf("active members = %d, want 2", n)
	}
	page, _ := s.chat.ListMessages(ctx, s.group.ID, s.bob.ID, 0, 10)
	if page.TotalElements != 1 {
		t.Fatalf("join messages = %d, want 1", page.TotalElements)
	}
}

func TestAcceptInviteCompletesMembershipAfterLeaving(t *testing.T) {
	ctx := context.Background()
	s := newInviteSetup(t)
	inv := s.invite(t)

	if _, err := s.invites.AcceptInvite(ctx, inv.ID, s.bob.ID, s.group.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if err := s.chat.LeaveRoom(ctx, s.bob.ID, s.group.ID); err != nil {
		t.Fatalf("LeaveRoom: %v", err)
	}
	if _, err := s.invites.AcceptInvite(ctx, inv.ID, s.bob.ID, s.group.ID); err != nil {
		t.Fatalf("retry accept: %v", err)
	}
	if !s.member(t, s.group.ID, s.bob).IsActive() {
		t.Fatalf("membership not restored")
	}
}

func TestAcceptExpiredInvite(t *testing.T) {
	ctx := context.Background()
	s := newInviteSetup(t)
	inv := s.invite(t)

	s.clock.Advance(8 * 24 * time.Hour)
	if !inv.IsExpired(s.clock.Now()) {
		t.Fatalf("IsExpired = false after 8 days")
	}
	_, err := s.invites.AcceptInvite(ctx, inv.ID, s.bob.ID, s.group.ID)
	assertCode(t, err, services.ErrInviteExpired)

	stored, err := s.store.Invites().FindByID(ctx, inv.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if stored.Status != models.InviteStatusExpired {
		t.Fatalf("status = %s, want EXPIRED", stored.Status)
	}
	if !s.member(t, s.private.ID, s.bob).IsActive() {
		t.Fatalf("private membership changed")
	}
	if _, err := s.store.Members().Find(ctx, s.group.ID, s.bob.ID); err == nil {
		t.Fatalf("expired invite added a group membership")
	}

	_, err = s.invites.AcceptInvite(ctx, inv.ID, s.bob.ID, s.group.ID)
	assertCode(t, err, services.ErrInviteExpired)
}

func TestAcceptInviteChecks(t *testing.T) {
	ctx := context.Background()
	s := newInviteSetup(t)
	inv := s.invite(t)

	_, err := s.invites.AcceptInvite(ctx, inv.ID, s.carol.ID, s.group.ID)
	assertCode(t, err, services.ErrNotInvitee)

	_, err = s.invites.AcceptInvite(ctx, 404, s.bob.ID, s.group.ID)
	assertCode(t, err, services.ErrInviteNotFound)

	_, err = s.invites.AcceptInvite(ctx, inv.ID, s.bob.ID, 404)
	assertCode(t, err, services.ErrRoomNotFound)

	_, err = s.invites.AcceptInvite(ctx, inv.ID, s.bob.ID, s.private.ID)
	assertCode(t, err, services.ErrTargetNotGroup)

	otherPost := uint(12)
	other, err := s.chat.CreateGroupRoom(ctx, s.alice.ID, "Cooking", &otherPost)
	if err != nil {
		t.Fatalf("CreateGroupRoom: %v", err)
	}
	_, err = s.invites.AcceptInvite(ctx, inv.ID, s.bob.ID, other.ID)
	assertCode(t, err, services.ErrTargetMismatch)

	stored, _ := s.store.Invites().FindByID(ctx, inv.ID)
	if stored.Status != models.InviteStatusPending {
		t.Fatalf("failed accepts changed status to %s", stored.Status)
	}
}

func TestAcceptInviteRequiresRoomLinkedToPost(t *testing.T) {
	ctx := context.Background()
	s := newInviteSetup(t)
	inv := s.invite(t)

	unlinked, err := s.chat.CreateGroupRoom(ctx, s.carol.ID, "Carol's friends", nil)
	if err != nil {
		t.Fatalf("CreateGroupRoom: %v", err)
	}
	_, err = s.invites.AcceptInvite(ctx, inv.ID, s.bob.ID, unlinked.ID)
	assertCode(t, err, services.ErrTargetMismatch)
	if _, err := s.store.Members().Find(ctx, unlinked.ID, s.bob.ID); err == nil {
		t.Fatalf("bob joined a group the invite does not point at")
	}
	stored, _ := s.store.Invites().FindByID(ctx, inv.ID)
	if stored.Status != models.InviteStatusPending {
		t.Fatalf("status = %s, want PENDING", stored.Status)
	}
}

func TestAcceptedInviteStaysBoundToItsRoom(t *testing.T) {
	ctx := context.Background()
	s := newInviteSetup(t)
	inv := s.invite(t)

	accepted, err := s.invites.AcceptInvite(ctx, inv.ID, s.bob.ID, s.group.ID)
	if err != nil {
		t.Fatalf("AcceptInvite: %v", err)
	}
	if accepted.AcceptedRoomID == nil || *accepted.AcceptedRoomID != s.group.ID {
		t.Fatalf("accepted room = %v, want %d", accepted.AcceptedRoomID, s.group.ID)
	}

	post := uint(hikingPost)
	second, err := s.chat.CreateGroupRoom(ctx, s.carol.ID, "Hiking again", &post)
	if err != nil {
		t.Fatalf("CreateGroupRoom: %v", err)
	}
	_, err = s.invites.AcceptInvite(ctx, inv.ID, s.bob.ID, second.ID)
	assertCode(t, err, services.ErrTargetMismatch)
	if _, err := s.store.Members().Find(ctx, second.ID, s.bob.ID); err == nil {
		t.Fatalf("one invite joined two rooms")
	}
}

func TestDeclineInvite(t *testing.T) {
	ctx := context.Background()
	s := newInviteSetup(t)
	inv := s.invite(t)

	_, err := s.invites.DeclineInvite(ctx, inv.ID, s.carol.ID)
	assertCode(t, err, services.ErrNotInvitee)

	declined, err := s.invites.DeclineInvite(ctx, inv.ID, s.bob.ID)
	if err != nil {
		t.Fatalf("DeclineInvite: %v", err)
	}
	if declined.Status != models.InviteStatusDeclined || declined.RespondedAt == nil {
		t.Fatalf("invite = %+v", declined)
	}

	_, err = s.invites.DeclineInvite(ctx, inv.ID, s.bob.ID)
	assertCode(t, err, services.ErrInviteDeclined)
	_, err = s.invites.AcceptInvite(ctx, inv.ID, s.bob.ID, s.group.ID)
	assertCode(t, err, services.ErrInviteDeclined)

	// A terminal invite no longer blocks a new one.
	next := s.invite(t)
	if next.ID == inv.ID {
		t.Fatalf("declined invite reused")
	}
}

func TestDeclineAcceptedInvite(t *testing.T) {
	ctx := context.Background()
	s := newInviteSetup(t)
	inv := s.invite(t)
	if _, err := s.invites.AcceptInvite(ctx, inv.ID, s.bob.ID, s.group.ID); err != nil {
		t.Fatalf("AcceptInvite: %v", err)
	}
	_, err := s.invites.DeclineInvite(ctx, inv.ID, s.bob.ID)
	assertCode(t, err, services.ErrInviteAccepted)
}

func TestListPendingInvitesExpiresLazily(t *testing.T) {
	ctx := context.Background()
	s := newInviteSetup(t)
	old := s.invite(t)

	s.clock.Advance(6 * 24 * time.Hour)
	carolRoom := s.privateRoom(t, s.carol, s.bob)
	fresh, err := s.invites.CreateInvite(ctx, services.CreateInviteRequest{PrivateRoomID: carolRoom.ID, InviterID: s.carol.ID, InviteeID: s.bob.ID, TargetGroupPostID: hikingPost})
	if err != nil {
		t.Fatalf("CreateInvite: %v", err)
	}

	list, err := s.invites.ListPendingInvites(ctx, s.bob.ID)
	if err != nil {
		t.Fatalf("ListPendingInvites: %v", err)
	}
	if len(list) != 2 || list[0].ID != fresh.ID || list[0].InviterName != "carol" {
		t.Fatalf("pending = %+v", list)
	}

	s.clock.Advance(2 * 24 * time.Hour)
	list, err = s.invites.ListPendingInvites(ctx, s.bob.ID)
	if err != nil {
		t.Fatalf("ListPendingInvites: %v", err)
	}
	if len(list) != 1 || list[0].ID != fresh.ID {
		t.Fatalf("pending after expiry = %+v", list)
	}
	stored, _ := s.store.Invites().FindByID(ctx, old.ID)
	if stored.Status != models.InviteStatusExpired {
		t.Fatalf("old invite status = %s, want EXPIRED", stored.Status)
	}
}

func TestExpireStale(t *testing.T) {
	ctx := context.Background()
	s := newInviteSetup(t)
	inv := s.invite(t)

	if n, err := s.invites.ExpireStale(ctx); err != nil || n != 0 {
		t.Fatalf("ExpireStale before deadline = %d, %v", n, err)
	}
	s.clock.Advance(8 * 24 * time.Hour)
	if n, err := s.invites.ExpireStale(ctx); err != nil || n != 1 {
		t.Fatalf("ExpireStale = %d, %v; want 1", n, err)
	}
	stored, _ := s.store.Invites().FindByID(ctx, inv.ID)
	if stored.Status != models.InviteStatusExpired {
		t.Fatalf("status = %s", stored.Status)
	}
}
