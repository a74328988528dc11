package server

import (
	"strings"

	"trading-simulator/src/models"

	"github.com/gin-gonic/gin"
)

const userContextKey = "authedUser"

// -----------------------------------------------------------------------------
// Auth Middleware
// -----------------------------------------------------------------------------

// authMiddleware resolves a bearer token to a user row. The real auth layer
// (registration, password handling, token issuance) lives outside this
// service; here the token is only a capability producing an identity.
func (s *Server) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(401, gin.H{"error": "missing bearer token"})
			return
		}

		user, err := s.Store.UserByToken(token)
		if err != nil {
			c.AbortWithStatusJSON(401, gin.H{"error": "invalid token"})
			return
		}

		c.Set(userContextKey, user)
		c.Next()
	}
}

// -----------------------------------------------------------------------------

func currentUser(c *gin.Context) *models.MUser {
	user, _ := c.MustGet(userContextKey).(*models.MUser)
	return user
}
