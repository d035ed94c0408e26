package controllers

import (
	"context"
	"log"
	"net/http"
	"strconv"

	"github.com/CUknot/chat_backend/middleware"
	"github.com/CUknot/chat_backend/services"
	"github.com/gin-gonic/gin"
)

// Controller serves the /chat REST surface.
type Controller struct {
	chat    *services.ChatService
	read    *services.ReadService
	invites *services.InviteService
}

func New(chat *services.ChatService, read *services.ReadService, invites *services.InviteService) *Controller {
	return &Controller{chat: chat, read: read, invites: invites}
}

// Register mounts the chat routes on r. r must already authenticate.
func (ctl *Controller) Register(r gin.IRouter) {
	chat := r.Group("/chat")
	{
		chat.GET("/rooms", ctl.GetRooms)
		chat.POST("/rooms/private", ctl.GetOrCreatePrivateRoom)
		chat.POST("/rooms/group", ctl.CreateGroupRoom)
		chat.GET("/rooms/:id", ctl.GetRoom)
		chat.DELETE("/rooms/:id", ctl.LeaveRoom)
		chat.GET("/rooms/:id/unread", ctl.GetUnreadCount)
		chat.PUT("/rooms/:id/read", ctl.MarkRead)

		chat.GET("/rooms/:id/messages", ctl.GetMessages)
		chat.GET("/rooms/:id/messages/before", ctl.GetMessagesBefore)
		chat.POST("/rooms/:id/messages", ctl.CreateMessage)

		chat.GET("/invites", ctl.GetPendingInvites)
		chat.POST("/invites", ctl.CreateInvite)
		chat.PUT("/invites/:id/accept", ctl.AcceptInvite)
		chat.PUT("/invites/:id/decline", ctl.DeclineInvite)
	}
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error services.Error `json:"error"`
}

func respondError(c *gin.Context, err error) {
	e := services.AsError(err)
	if e.Status >= http.StatusInternalServerError {
		log.Printf("chat: %s %s: %v", c.Request.Method, c.FullPath(), err)
	}
	c.AbortWithStatusJSON(e.Status, ErrorResponse{Error: *e})
}

func currentUser(c *gin.Context) uint {
	return c.MustGet(middleware.UserIDKey).(uint)
}

func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		respondError(c, services.Invalid("INVALID_ID", "invalid "+name))
		return 0, false
	}
	return uint(id), true
}

func pageQuery(c *gin.Context) (int, int, bool) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "0"))
	if err != nil {
		respondError(c, services.Invalid("INVALID_PAGE", "page must be a number"))
		return 0, 0, false
	}
	size, err := strconv.Atoi(c.DefaultQuery("size", strconv.Itoa(services.DefaultPageSize)))
	if err != nil {
		respondError(c, services.Invalid("INVALID_PAGE", "size must be a number"))
		return 0, 0, false
	}
	page, size = services.NormalizePage(page, size)
	return page, size, true
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, services.Invalid("INVALID_BODY", err.Error()))
		return false
	}
	return true
}

// PingFunc reports whether a backing service is reachable.
type PingFunc func(ctx context.Context) error

// Health godoc
// @Summary Liveness and dependency status
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /health [get]
func Health(db, cache PingFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := gin.H{"status": "ok", "database": "ok", "cache": "ok"}
		code := http.StatusOK
		if err := db(c.Request.Context()); err != nil {
			status["status"], status["database"] = "unavailable", err.Error()
			code = http.StatusServiceUnavailable
		}
		// The cache is optional; its outage degrades but does not fail.
		if err := cache(c.Request.Context()); err != nil {
			status["cache"] = "degraded"
		}
		c.JSON(code, status)
	}
}
