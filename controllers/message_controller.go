package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/CUknot/chat_backend/models"
	"github.com/CUknot/chat_backend/services"
	"github.com/gin-gonic/gin"
)

type CreateMessageInput struct {
	Type        models.MessageType `json:"type" binding:"required" example:"TEXT"`
	Content     string             `json:"content" example:"Hello, everyone!"`
	ImageURL    string             `json:"imageUrl" example:"https://cdn.example.com/photo.png"`
	CardPayload json.RawMessage    `json:"cardPayload" swaggertype:"object"`
}

type MarkReadInput struct {
	LastReadMessageID uint `json:"lastReadMessageId" binding:"required" example:"42"`
}

// GetMessages godoc
// @Summary Page through a room's messages
// @Description Most recent first. Each message reports whether the caller has read it.
// @Tags messages
// @Produce json
// @Security BearerAuth
// @Param id path int true "Room ID"
// @Param page query int false "Page number, starting at 0"
// @Param size query int false "Page size (max 100)"
// @Success 200 {object} services.Page[services.MessageView]
// @Failure 403 {object} ErrorResponse "Not a member"
// @Failure 404 {object} ErrorResponse "Room not found"
// @Router /chat/rooms/{id}/messages [get]
func (ctl *Controller) GetMessages(c *gin.Context) {
	roomID, ok := paramID(c, "id")
	if !ok {
		return
	}
	page, size, ok := pageQuery(c)
	if !ok {
		return
	}
	msgs, err := ctl.chat.ListMessages(c.Request.Context(), roomID, currentUser(c), page, size)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, msgs)
}

// GetMessagesBefore godoc
// @Summary Page through messages older than a cursor
// @Tags messages
// @Produce json
// @Security BearerAuth
// @Param id path int true "Room ID"
// @Param cursor query string true "RFC 3339 timestamp; only messages created before it are returned"
// @Param page query int false "Page number, starting at 0"
// @Param size query int false "Page size (max 100)"
// @Success 200 {object} services.Page[services.MessageView]
// @Failure 400 {object} ErrorResponse "Invalid cursor"
// @Failure 403 {object} ErrorResponse "Not a member"
// @Router /chat/rooms/{id}/messages/before [get]
func (ctl *Controller) GetMessagesBefore(c *gin.Context) {
	roomID, ok := paramID(c, "id")
	if !ok {
		return
	}
	cursor, err := services.ParseCursor(c.Query("cursor"))
	if err != nil {
		respondError(c, err)
		return
	}
	page, size, ok := pageQuery(c)
	if !ok {
		return
	}
	msgs, err := ctl.chat.ListMessagesBefore(c.Request.Context(), roomID, currentUser(c), cursor, page, size)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, msgs)
}

// CreateMessage godoc
// @Summary Send a message
// @Description Sends through the same pipeline as the live channel. Clients may send TEXT, IMAGE and SETTLEMENT_CARD.
// @Tags messages
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Room ID"
// @Param message body CreateMessageInput true "Message"
// @Success 201 {object} services.MessageView
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse "Not a member or room closed"
// @Router /chat/rooms/{id}/messages [post]
func (ctl *Controller) CreateMessage(c *gin.Context) {
	roomID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input CreateMessageInput
	if !bindJSON(c, &input) {
		return
	}
	msg, err := ctl.chat.SendUserMessage(c.Request.Context(), services.SendRequest{
		RoomID:      roomID,
		SenderID:    currentUser(c),
		Type:        input.Type,
		Content:     input.Content,
		ImageURL:    input.ImageURL,
		CardPayload: input.CardPayload,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

// MarkRead godoc
// @Summary Move the caller's read position forward
// @Tags messages
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Room ID"
// @Param read body MarkReadInput true "Last read message"
// @Success 200 {object} services.ReadReceipt
// @Failure 404 {object} ErrorResponse "Message not in room"
// @Failure 409 {object} ErrorResponse "READ_POSITION_REGRESSION"
// @Router /chat/rooms/{id}/read [put]
func (ctl *Controller) MarkRead(c *gin.Context) {
	roomID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input MarkReadInput
	if !bindJSON(c, &input) {
		return
	}
	receipt, err := ctl.read.MarkRead(c.Request.Context(), currentUser(c), roomID, input.LastReadMessageID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, receipt)
}
