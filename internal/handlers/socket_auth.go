package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"realtime-service/internal/middleware"
	"realtime-service/internal/tokens"
)

// SocketAuthHandler issues the short-lived signed tokens presented at
// the socket handshake. It sits behind the session middleware, so the
// identity here was already established against the session store.
type SocketAuthHandler struct {
	tokens *tokens.Service
}

// NewSocketAuthHandler builds a SocketAuthHandler.
func NewSocketAuthHandler(tokenService *tokens.Service) *SocketAuthHandler {
	return &SocketAuthHandler{tokens: tokenService}
}

// IssueToken returns a fresh handshake token for the caller.
func (h *SocketAuthHandler) IssueToken(c *gin.Context) {
	identity := tokens.Identity{
		UserID:    c.GetString(middleware.UserIDKey),
		ProfileID: c.GetString(middleware.ProfileIDKey),
	}

	token, err := h.tokens.Issue(identity)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not issue token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":     token,
		"expiresIn": int64(tokens.TTL.Seconds()),
	})
}
