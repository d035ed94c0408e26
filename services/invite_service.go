package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/CUknot/chat_backend/metrics"
	"github.com/CUknot/chat_backend/models"
	"github.com/CUknot/chat_backend/pubsub"
	"github.com/CUknot/chat_backend/repository"
)

// CreateInviteRequest asks the invitee of a private room to join the group
// chat of a post.
type CreateInviteRequest struct {
	PrivateRoomID     uint `json:"privateRoomId"`
	InviterID         uint `json:"-"`
	InviteeID         uint `json:"inviteeId"`
	TargetGroupPostID uint `json:"targetGroupPostId"`
}

// InviteService runs the PENDING -> ACCEPTED | DECLINED | EXPIRED state
// machine. Expiry is checked on every read so correctness never depends on
// the sweep.
type InviteService struct {
	store     repository.Store
	publisher Publisher
	chat      *ChatService
	now       func() time.Time
	ttl       time.Duration
}

func NewInviteService(d Deps, chat *ChatService) *InviteService {
	d = d.withDefaults()
	return &InviteService{
		store:     d.Store,
		publisher: d.Publisher,
		chat:      chat,
		now:       d.Now,
		ttl:       d.InviteTTL,
	}
}

// CreateInvite issues an invite, or returns the one still pending for the
// same room and invitee.
func (s *InviteService) CreateInvite(ctx context.Context, req CreateInviteRequest) (*models.Invite, error) {
	if req.InviterID == req.InviteeID {
		return nil, Invalid("SELF_INVITE", "cannot invite yourself")
	}
	if req.TargetGroupPostID == 0 {
		return nil, Invalid("TARGET_REQUIRED", "targetGroupPostId is required")
	}

	room, inviterMember, err := requireMember(ctx, s.store, req.PrivateRoomID, req.InviterID)
	if err != nil {
		return nil, err
	}
	if room.Type != models.RoomTypePrivate {
		return nil, ErrNotPrivateRoom
	}
	if room.OwnerID != inviterMember.UserID {
		return nil, ErrNotRoomOwner
	}
	inviteeMember, err := s.store.Members().Find(ctx, room.ID, req.InviteeID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, Internal(fmt.Errorf("find invitee: %w", err))
	}
	if !inviteeMember.IsActive() {
		return nil, ErrInviteeNotInRoom
	}

	now := s.now()
	existing, err := s.store.Invites().FindPending(ctx, room.ID, req.InviteeID)
	switch {
	case err == nil && !existing.IsExpired(now):
		return existing, nil
	case err == nil:
		if _, err := s.store.Invites().Transition(ctx, existing.ID, models.InviteStatusExpired, now); err != nil {
			return nil, Internal(fmt.Errorf("expire stale invite: %w", err))
		}
	case !errors.Is(err, repository.ErrNotFound):
		return nil, Internal(fmt.Errorf("find pending invite: %w", err))
	}

	invite := &models.Invite{
		RoomID:            room.ID,
		InviterID:         req.InviterID,
		InviteeID:         req.InviteeID,
		TargetGroupPostID: req.TargetGroupPostID,
		Status:            models.InviteStatusPending,
		ExpiresAt:         now.Add(s.ttl),
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.store.Invites().Create(ctx, invite); err != nil {
		// A concurrent create won the pending slot; hand back its invite.
		if winner, findErr := s.store.Invites().FindPending(ctx, room.ID, req.InviteeID); findErr == nil {
			return winner, nil
		}
		return nil, Internal(fmt.Errorf("create invite: %w", err))
	}

	card, _ := json.Marshal(InviteCard{
		InviteID:          invite.ID,
		TargetGroupPostID: invite.TargetGroupPostID,
		ExpiresAt:         invite.ExpiresAt,
	})
	_, err = s.chat.SendMessage(ctx, SendRequest{
		RoomID:      room.ID,
		SenderID:    req.InviterID,
		Type:        models.MessageTypeInviteCard,
		CardPayload: card,
	})
	if err != nil {
		log.Printf("chat: invite card for invite %d: %v", invite.ID, err)
	}

	view, err := s.view(ctx, *invite)
	if err != nil {
		log.Printf("chat: load inviter for invite %d: %v", invite.ID, err)
	} else {
		s.publisher.Publish(ctx, pubsub.UserTopic(invite.InviteeID), EventInviteReceived, view)
	}
	return invite, nil
}

// AcceptInvite joins the acceptor to the target group room, which must be
// an open group linked to the invite's post. Accepting an invite that was
// already accepted is safe: it completes a missing membership in the room it
// was accepted into and otherwise returns the invite unchanged.
func (s *InviteService) AcceptInvite(ctx context.Context, inviteID, acceptorID, targetRoomID uint) (*models.Invite, error) {
	invite, err := s.load(ctx, inviteID, acceptorID)
	if err != nil {
		return nil, err
	}
	if invite.Status == models.InviteStatusDeclined {
		return nil, ErrInviteDeclined
	}

	room, err := s.store.Rooms().FindByID(ctx, targetRoomID)
	if err != nil {
		return nil, lookup(err, ErrRoomNotFound, "find target room")
	}
	if room.Type != models.RoomTypeGroup || !room.IsOpen() {
		return nil, ErrTargetNotGroup
	}
	if room.LinkedPostID == nil || *room.LinkedPostID != invite.TargetGroupPostID {
		return nil, ErrTargetMismatch
	}
	if !acceptedInto(invite, room.ID) {
		return nil, ErrTargetMismatch
	}

	member, err := s.store.Members().Find(ctx, room.ID, acceptorID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, Internal(fmt.Errorf("find member: %w", err))
	}
	if invite.Status == models.InviteStatusAccepted && member.IsActive() {
		return invite, nil
	}

	now := s.now()
	joined := false
	err = s.store.Transaction(ctx, func(tx repository.Store) error {
		if invite.Status == models.InviteStatusPending {
			ok, err := tx.Invites().Accept(ctx, invite.ID, room.ID, now)
			if err != nil {
				return fmt.Errorf("accept invite: %w", err)
			}
			if !ok {
				current, err := tx.Invites().FindByID(ctx, invite.ID)
				if err != nil {
					return fmt.Errorf("reload invite: %w", err)
				}
				if current.Status != models.InviteStatusAccepted {
					return stateError(current)
				}
				if !acceptedInto(current, room.ID) {
					return ErrTargetMismatch
				}
			}
		}

		m, err := tx.Members().Find(ctx, room.ID, acceptorID)
		switch {
		case errors.Is(err, repository.ErrNotFound):
			joined = true
			return tx.Members().Create(ctx, &models.RoomMember{
				RoomID:   room.ID,
				UserID:   acceptorID,
				Status:   models.MemberStatusActive,
				JoinedAt: now,
			})
		case err != nil:
			return fmt.Errorf("find member: %w", err)
		case !m.IsActive():
			joined = true
			return tx.Members().Activate(ctx, room.ID, acceptorID, now)
		}
		return nil
	})
	if err != nil {
		var e *Error
		if errors.As(err, &e) {
			return nil, e
		}
		return nil, Internal(err)
	}

	if joined {
		s.announceJoin(ctx, room.ID, acceptorID)
	}
	invite, err = s.store.Invites().FindByID(ctx, invite.ID)
	if err != nil {
		return nil, lookup(err, ErrInviteNotFound, "reload invite")
	}
	return invite, nil
}

// DeclineInvite refuses a pending invite.
func (s *InviteService) DeclineInvite(ctx context.Context, inviteID, declinerID uint) (*models.Invite, error) {
	invite, err := s.load(ctx, inviteID, declinerID)
	if err != nil {
		return nil, err
	}
	if invite.IsTerminal() {
		return nil, stateError(invite)
	}

	ok, err := s.store.Invites().Transition(ctx, invite.ID, models.InviteStatusDeclined, s.now())
	if err != nil {
		return nil, Internal(fmt.Errorf("decline invite: %w", err))
	}
	current, err := s.store.Invites().FindByID(ctx, invite.ID)
	if err != nil {
		return nil, lookup(err, ErrInviteNotFound, "reload invite")
	}
	if !ok {
		return nil, stateError(current)
	}
	return current, nil
}

// ListPendingInvites returns the caller's live invites, newest first.
// Invites found past their deadline are expired on the way.
func (s *InviteService) ListPendingInvites(ctx context.Context, userID uint) ([]InviteView, error) {
	invites, err := s.store.Invites().ListPendingFor(ctx, userID)
	if err != nil {
		return nil, Internal(fmt.Errorf("list invites: %w", err))
	}

	now := s.now()
	live := make([]models.Invite, 0, len(invites))
	inviters := make([]uint, 0, len(invites))
	for _, inv := range invites {
		if inv.IsExpired(now) {
			if _, err := s.store.Invites().Transition(ctx, inv.ID, models.InviteStatusExpired, now); err != nil {
				log.Printf("chat: expire invite %d: %v", inv.ID, err)
			}
			continue
		}
		live = append(live, inv)
		inviters = append(inviters, inv.InviterID)
	}

	users, err := s.store.Users().FindByIDs(ctx, inviters)
	if err != nil {
		return nil, Internal(fmt.Errorf("load inviters: %w", err))
	}
	out := make([]InviteView, 0, len(live))
	for _, inv := range live {
		u := users[inv.InviterID]
		out = append(out, InviteView{Invite: inv, InviterName: u.Nickname, InviterAvatar: u.AvatarURL})
	}
	return out, nil
}

// ExpireStale flips every pending invite past its deadline to EXPIRED.
func (s *InviteService) ExpireStale(ctx context.Context) (int64, error) {
	n, err := s.store.Invites().ExpireBefore(ctx, s.now())
	if err != nil {
		return 0, Internal(fmt.Errorf("expire invites: %w", err))
	}
	metrics.InvitesExpired.Add(float64(n))
	return n, nil
}

// load fetches an invite for its invitee and settles lazy expiry.
func (s *InviteService) load(ctx context.Context, inviteID, userID uint) (*models.Invite, error) {
	invite, err := s.store.Invites().FindByID(ctx, inviteID)
	if err != nil {
		return nil, lookup(err, ErrInviteNotFound, "find invite")
	}
	if invite.InviteeID != userID {
		return nil, ErrNotInvitee
	}
	now := s.now()
	if invite.IsExpired(now) {
		if _, err := s.store.Invites().Transition(ctx, invite.ID, models.InviteStatusExpired, now); err != nil {
			return nil, Internal(fmt.Errorf("expire invite: %w", err))
		}
		return nil, ErrInviteExpired
	}
	if invite.Status == models.InviteStatusExpired {
		return nil, ErrInviteExpired
	}
	return invite, nil
}

func (s *InviteService) announceJoin(ctx context.Context, roomID, userID uint) {
	user, err := s.store.Users().FindByID(ctx, userID)
	if err != nil {
		log.Printf("chat: load user %d for join message: %v", userID, err)
		return
	}
	_, err = s.chat.SendMessage(ctx, SendRequest{
		RoomID:  roomID,
		Type:    models.MessageTypeSystem,
		Content: user.Nickname + " joined",
	})
	if err != nil {
		log.Printf("chat: join message for user %d in room %d: %v", userID, roomID, err)
	}
}

func (s *InviteService) view(ctx context.Context, invite models.Invite) (InviteView, error) {
	inviter, err := s.store.Users().FindByID(ctx, invite.InviterID)
	if err != nil {
		return InviteView{}, err
	}
	return InviteView{Invite: invite, InviterName: inviter.Nickname, InviterAvatar: inviter.AvatarURL}, nil
}

// acceptedInto reports whether an accepted invite may complete membership in
// roomID. A pending invite may target any matching room.
func acceptedInto(invite *models.Invite, roomID uint) bool {
	if invite.Status != models.InviteStatusAccepted || invite.AcceptedRoomID == nil {
		return true
	}
	return *invite.AcceptedRoomID == roomID
}

func stateError(invite *models.Invite) *Error {
	switch invite.Status {
	case models.InviteStatusAccepted:
		return ErrInviteAccepted
	case models.InviteStatusDeclined:
		return ErrInviteDeclined
	case models.InviteStatusExpired:
		return ErrInviteExpired
	}
	return Internal(fmt.Errorf("invite %d in unexpected status %s", invite.ID, invite.Status))
}
