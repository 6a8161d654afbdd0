package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"realtime-service/internal/models"
)

// Context keys set by AuthMiddleware.
const (
	ProfileIDKey = "profileID"
	UserIDKey    = "userID"
)

// SessionResolver turns an opaque session token into a profile.
type SessionResolver interface {
	ResolveSession(ctx context.Context, token string) (models.Profile, error)
}

// AuthMiddleware validates the Authorization header against the session
// store and injects the derived identity into the gin context.
func AuthMiddleware(sessions SessionResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization"})
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header"})
			return
		}

		profile, err := sessions.ResolveSession(c.Request.Context(), parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid session"})
			return
		}

		c.Set(ProfileIDKey, profile.ID)
		c.Set(UserIDKey, profile.UserID)
		c.Next()
	}
}
