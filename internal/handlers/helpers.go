package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"realtime-service/internal/middleware"
	"realtime-service/internal/models"
)

// messagesBatch is the page size for message listings.
const messagesBatch = 5

const requestIDContextKey = "request_id"

func requestIDFromContext(c *gin.Context) string {
	if val, ok := c.Get(requestIDContextKey); ok {
		if id, ok := val.(string); ok && id != "" {
			return id
		}
	}

	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Set(requestIDContextKey, requestID)
	return requestID
}

func profileIDFromContext(c *gin.Context) *string {
	if id := c.GetString(middleware.ProfileIDKey); id != "" {
		return &id
	}
	return nil
}

// buildPage assembles the paginated response. The cursor names the last
// item of a full page; a short page means no older messages remain.
func buildPage(items []models.MessageRecord, limit int) models.MessagePage {
	page := models.MessagePage{Items: items}
	if page.Items == nil {
		page.Items = []models.MessageRecord{}
	}
	if len(items) == limit {
		page.NextCursor = items[len(items)-1].ID
	}
	return page
}
