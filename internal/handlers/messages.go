package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"realtime-service/internal/bus"
	"realtime-service/internal/middleware"
	"realtime-service/internal/models"
	"realtime-service/internal/repositories"
	"realtime-service/internal/telemetry"
)

// MessageHandler manages channel message endpoints. Every successful
// mutation ends with a best-effort publish to the channel's room.
type MessageHandler struct {
	channelRepo repositories.ChannelRepository
	messageRepo repositories.MessageRepository
	audit       *telemetry.AuditEmitter
}

// NewMessageHandler builds a MessageHandler.
func NewMessageHandler(channelRepo repositories.ChannelRepository, messageRepo repositories.MessageRepository, audit *telemetry.AuditEmitter) *MessageHandler {
	return &MessageHandler{
		channelRepo: channelRepo,
		messageRepo: messageRepo,
		audit:       audit,
	}
}

// resolveChannelScope validates the serverId/channelId query pair and
// the caller's membership. Responses are written on failure.
func (h *MessageHandler) resolveChannelScope(c *gin.Context) (models.Channel, models.Member, bool) {
	serverID := c.Query("serverId")
	channelID := c.Query("channelId")
	if serverID == "" || channelID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "serverId and channelId are required"})
		return models.Channel{}, models.Member{}, false
	}

	profileID := c.GetString(middleware.ProfileIDKey)
	member, err := h.channelRepo.GetMember(c.Request.Context(), serverID, profileID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrNotMember) {
			status = http.StatusForbidden
		}
		c.JSON(status, gin.H{"error": "not a server member"})
		return models.Channel{}, models.Member{}, false
	}

	channel, err := h.channelRepo.GetChannel(c.Request.Context(), channelID, serverID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrChannelNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "channel not found"})
		return models.Channel{}, models.Member{}, false
	}

	return channel, member, true
}

// ListMessages returns one page of channel messages, newest first.
func (h *MessageHandler) ListMessages(c *gin.Context) {
	channel, _, ok := h.resolveChannelScope(c)
	if !ok {
		return
	}

	items, err := h.messageRepo.ListMessages(c.Request.Context(), channel.ID, c.Query("cursor"), messagesBatch)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
		return
	}

	c.JSON(http.StatusOK, buildPage(items, messagesBatch))
}

// PostMessage stores a channel message and publishes the create event.
func (h *MessageHandler) PostMessage(c *gin.Context) {
	channel, member, ok := h.resolveChannelScope(c)
	if !ok {
		return
	}

	var req struct {
		Content string  `json:"content" binding:"required"`
		FileURL *string `json:"fileUrl"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rec, err := h.messageRepo.CreateMessage(c.Request.Context(), channel.ID, member.ID, req.Content, req.FileURL)
	if err != nil {
		h.emitAudit(c, "ERROR", "message create failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not store message"})
		return
	}

	// The room key derives from the resolved channel, never from raw
	// client input. Publish failure never rolls the write back.
	bus.Publish(bus.Event{Kind: bus.EventCreate, Room: bus.NewRoomKey(channel.ID), Message: rec})
	h.emitAudit(c, "INFO", "message created")
	c.JSON(http.StatusCreated, rec)
}

// EditMessage replaces the content of the caller's own message.
func (h *MessageHandler) EditMessage(c *gin.Context) {
	channel, member, ok := h.resolveChannelScope(c)
	if !ok {
		return
	}
	rec, ok := h.loadLiveMessage(c, channel)
	if !ok {
		return
	}
	if rec.MemberID != member.ID {
		c.JSON(http.StatusForbidden, gin.H{"error": "only the author can edit"})
		return
	}

	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := h.messageRepo.UpdateMessageContent(c.Request.Context(), rec.ID, req.Content)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrMessageNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "could not edit message"})
		return
	}

	bus.Publish(bus.Event{Kind: bus.EventUpdate, Room: bus.NewRoomKey(channel.ID), Message: updated})
	c.JSON(http.StatusOK, updated)
}

// DeleteMessage soft-deletes a message. The author may always delete
// their own; admins and moderators may delete anyone's.
func (h *MessageHandler) DeleteMessage(c *gin.Context) {
	channel, member, ok := h.resolveChannelScope(c)
	if !ok {
		return
	}
	rec, ok := h.loadLiveMessage(c, channel)
	if !ok {
		return
	}
	if rec.MemberID != member.ID && !member.CanModerate() {
		c.JSON(http.StatusForbidden, gin.H{"error": "not allowed"})
		return
	}

	deleted, err := h.messageRepo.SoftDeleteMessage(c.Request.Context(), rec.ID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrMessageNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "could not delete message"})
		return
	}

	bus.Publish(bus.Event{Kind: bus.EventUpdate, Room: bus.NewRoomKey(channel.ID), Message: deleted})
	h.emitAudit(c, "INFO", "message deleted")
	c.JSON(http.StatusOK, deleted)
}

// loadLiveMessage fetches the path message and verifies it belongs to
// the resolved channel and is not already deleted. Deleted messages are
// indistinguishable from missing ones.
func (h *MessageHandler) loadLiveMessage(c *gin.Context, channel models.Channel) (models.MessageRecord, bool) {
	rec, err := h.messageRepo.GetMessage(c.Request.Context(), c.Param("messageId"))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrMessageNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "message not found"})
		return models.MessageRecord{}, false
	}
	if rec.ChannelID != channel.ID || rec.Deleted {
		c.JSON(http.StatusNotFound, gin.H{"error": "message not found"})
		return models.MessageRecord{}, false
	}
	return rec, true
}

func (h *MessageHandler) emitAudit(c *gin.Context, level, text string) {
	if h.audit == nil {
		return
	}
	h.audit.Emit(c.Request.Context(), level, text, requestIDFromContext(c), profileIDFromContext(c))
}
