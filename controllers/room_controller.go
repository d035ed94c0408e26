package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type PrivateRoomInput struct {
	OtherUserID uint `json:"otherUserId" binding:"required" example:"2"`
}

type GroupRoomInput struct {
	Name         string `json:"name" binding:"required" example:"Weekend hiking"`
	LinkedPostID *uint  `json:"linkedPostId" example:"77"`
}

// GetRooms godoc
// @Summary List the authenticated user's rooms
// @Description Returns active rooms sorted by last message, each with its unread count
// @Tags rooms
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number, starting at 0"
// @Param size query int false "Page size (max 100)"
// @Success 200 {object} services.Page[services.RoomView]
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /chat/rooms [get]
func (ctl *Controller) GetRooms(c *gin.Context) {
	page, size, ok := pageQuery(c)
	if !ok {
		return
	}
	rooms, err := ctl.chat.ListRooms(c.Request.Context(), currentUser(c), page, size)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rooms)
}

// GetOrCreatePrivateRoom godoc
// @Summary Open a private chat
// @Description Returns the private room shared with another user, creating it if needed
// @Tags rooms
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param room body PrivateRoomInput true "Other participant"
// @Success 200 {object} services.RoomView
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse "User not found"
// @Router /chat/rooms/private [post]
func (ctl *Controller) GetOrCreatePrivateRoom(c *gin.Context) {
	var input PrivateRoomInput
	if !bindJSON(c, &input) {
		return
	}
	room, err := ctl.chat.GetOrCreatePrivateRoom(c.Request.Context(), currentUser(c), input.OtherUserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, room)
}

// CreateGroupRoom godoc
// @Summary Create a group room
// @Tags rooms
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param room body GroupRoomInput true "Group room"
// @Success 201 {object} services.RoomView
// @Failure 400 {object} ErrorResponse
// @Router /chat/rooms/group [post]
func (ctl *Controller) CreateGroupRoom(c *gin.Context) {
	var input GroupRoomInput
	if !bindJSON(c, &input) {
		return
	}
	room, err := ctl.chat.CreateGroupRoom(c.Request.Context(), currentUser(c), input.Name, input.LinkedPostID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, room)
}

// GetRoom godoc
// @Summary Get one room
// @Tags rooms
// @Produce json
// @Security BearerAuth
// @Param id path int true "Room ID"
// @Success 200 {object} services.RoomView
// @Failure 403 {object} ErrorResponse "Not a member"
// @Failure 404 {object} ErrorResponse "Room not found"
// @Router /chat/rooms/{id} [get]
func (ctl *Controller) GetRoom(c *gin.Context) {
	roomID, ok := paramID(c, "id")
	if !ok {
		return
	}
	room, err := ctl.chat.GetRoom(c.Request.Context(), currentUser(c), roomID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, room)
}

// GetUnreadCount godoc
// @Summary Get the unread message count for a room
// @Tags rooms
// @Produce json
// @Security BearerAuth
// @Param id path int true "Room ID"
// @Success 200 {object} map[string]interface{} "roomId and unreadCount"
// @Failure 403 {object} ErrorResponse "Not a member"
// @Failure 404 {object} ErrorResponse "Room not found"
// @Router /chat/rooms/{id}/unread [get]
func (ctl *Controller) GetUnreadCount(c *gin.Context) {
	roomID, ok := paramID(c, "id")
	if !ok {
		return
	}
	n, err := ctl.read.Unread(c.Request.Context(), currentUser(c), roomID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"roomId": roomID, "unreadCount": n})
}

// LeaveRoom godoc
// @Summary Leave a room
// @Description Marks the caller LEFT. The room stays open while other members remain.
// @Tags rooms
// @Security BearerAuth
// @Param id path int true "Room ID"
// @Success 204
// @Failure 403 {object} ErrorResponse "Not a member"
// @Failure 404 {object} ErrorResponse "Room not found"
// @Router /chat/rooms/{id} [delete]
func (ctl *Controller) LeaveRoom(c *gin.Context) {
	roomID, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := ctl.chat.LeaveRoom(c.Request.Context(), currentUser(c), roomID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
