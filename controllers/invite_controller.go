package controllers

import (
	"net/http"

	"github.com/CUknot/chat_backend/services"
	"github.com/gin-gonic/gin"
)

type CreateInviteInput struct {
	PrivateRoomID     uint `json:"privateRoomId" binding:"required" example:"3"`
	InviteeID         uint `json:"inviteeId" binding:"required" example:"2"`
	TargetGroupPostID uint `json:"targetGroupPostId" binding:"required" example:"77"`
}

type AcceptInviteInput struct {
	TargetGroupChatRoomID uint `json:"targetGroupChatRoomId" binding:"required" example:"9"`
}

// GetPendingInvites godoc
// @Summary List invites waiting for the authenticated user
// @Tags invites
// @Produce json
// @Security BearerAuth
// @Success 200 {array} services.InviteView
// @Failure 401 {object} ErrorResponse
// @Router /chat/invites [get]
func (ctl *Controller) GetPendingInvites(c *gin.Context) {
	invites, err := ctl.invites.ListPendingInvites(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, invites)
}

// CreateInvite godoc
// @Summary Invite the other member of a private room to a group chat
// @Description Idempotent while a pending invite exists for the same room and invitee
// @Tags invites
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param invite body CreateInviteInput true "Invite"
// @Success 201 {object} models.Invite
// @Failure 403 {object} ErrorResponse "Not the room owner"
// @Failure 404 {object} ErrorResponse "Room not found"
// @Router /chat/invites [post]
func (ctl *Controller) CreateInvite(c *gin.Context) {
	var input CreateInviteInput
	if !bindJSON(c, &input) {
		return
	}
	invite, err := ctl.invites.CreateInvite(c.Request.Context(), services.CreateInviteRequest{
		PrivateRoomID:     input.PrivateRoomID,
		InviterID:         currentUser(c),
		InviteeID:         input.InviteeID,
		TargetGroupPostID: input.TargetGroupPostID,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, invite)
}

// AcceptInvite godoc
// @Summary Accept an invite and join the group room
// @Tags invites
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Invite ID"
// @Param accept body AcceptInviteInput true "Group room to join"
// @Success 200 {object} models.Invite
// @Failure 403 {object} ErrorResponse "Not the invitee"
// @Failure 409 {object} ErrorResponse "Declined, or target room mismatch"
// @Failure 410 {object} ErrorResponse "Expired"
// @Router /chat/invites/{id}/accept [put]
func (ctl *Controller) AcceptInvite(c *gin.Context) {
	inviteID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input AcceptInviteInput
	if !bindJSON(c, &input) {
		return
	}
	invite, err := ctl.invites.AcceptInvite(c.Request.Context(), inviteID, currentUser(c), input.TargetGroupChatRoomID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, invite)
}

// DeclineInvite godoc
// @Summary Decline an invite
// @Tags invites
// @Produce json
// @Security BearerAuth
// @Param id path int true "Invite ID"
// @Success 200 {object} models.Invite
// @Failure 403 {object} ErrorResponse "Not the invitee"
// @Failure 409 {object} ErrorResponse "Already answered"
// @Failure 410 {object} ErrorResponse "Expired"
// @Router /chat/invites/{id}/decline [put]
func (ctl *Controller) DeclineInvite(c *gin.Context) {
	inviteID, ok := paramID(c, "id")
	if !ok {
		return
	}
	invite, err := ctl.invites.DeclineInvite(c.Request.Context(), inviteID, currentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, invite)
}
