package middleware

import (
	"log"
	"net/http"

	"github.com/CUknot/chat_backend/utils"
	"github.com/gin-gonic/gin"
)

// UserIDKey is the gin context key holding the authenticated user id.
const UserIDKey = "userID"

// JWTAuth rejects requests without a valid bearer token and stores the
// token's user id under UserIDKey.
func JWTAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := utils.ParseToken(secret, utils.BearerToken(c.GetHeader("Authorization")))
		if err != nil {
			log.Printf("auth: rejected %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": gin.H{
				"code":    "UNAUTHORIZED",
				"status":  http.StatusUnauthorized,
				"message": "a valid bearer token is required",
			}})
			return
		}
		c.Set(UserIDKey, userID)
		c.Next()
	}
}

// CORS answers preflight requests and allows the configured origins.
// Credentials are only allowed for origins that credentialed accepts, so a
// wildcard entry never hands cookies to an arbitrary site.
func CORS(allowed, credentialed func(origin string) bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && allowed(origin) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			if credentialed(origin) {
				c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			}
			c.Writer.Header().Set("Vary", "Origin")
		}
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
