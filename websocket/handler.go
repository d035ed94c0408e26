package websocket

import (
	"log"
	"net/http"

	"github.com/CUknot/chat_backend/services"
	"github.com/CUknot/chat_backend/utils"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// Gateway upgrades authenticated HTTP requests to chat connections.
type Gateway struct {
	hub        *Hub
	dispatcher *Dispatcher
	secret     string
	upgrader   websocket.Upgrader
}

// NewGateway builds the /ws handler. originAllowed decides cross-origin
// upgrades; nil allows any origin.
func NewGateway(hub *Hub, chat *services.ChatService, read *services.ReadService, secret string, originAllowed func(string) bool) *Gateway {
	return &Gateway{
		hub:        hub,
		dispatcher: NewDispatcher(hub, chat, read),
		secret:     secret,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" || originAllowed == nil {
					return true
				}
				return originAllowed(origin)
			},
		},
	}
}

// HandleConnection godoc
// @Summary Open a chat connection
// @Description Upgrades to a websocket. The token may be sent as a bearer header or the token query parameter
// @Tags websocket
// @Param token query string false "JWT access token"
// @Success 101
// @Failure 401 {object} controllers.ErrorResponse
// @Router /ws [get]
func (g *Gateway) HandleConnection(c *gin.Context) {
	token := utils.BearerToken(c.GetHeader("Authorization"))
	if token == "" {
		token = c.Query("token")
	}
	userID, err := utils.ParseToken(g.secret, token)
	if err != nil {
		log.Printf("ws: rejected handshake: %v", err)
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": gin.H{
			"code":    "UNAUTHORIZED",
			"status":  http.StatusUnauthorized,
			"message": "a valid token is required",
		}})
		return
	}

	conn, err := g.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("ws: upgrade for user %d: %v", userID, err)
		return
	}

	client := newClient(g.hub, conn, userID)
	g.hub.register(client)

	go client.writePump()
	go client.readPump(g.dispatcher)
}
