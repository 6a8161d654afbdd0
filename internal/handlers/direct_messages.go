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

// DirectMessageHandler manages one-to-one conversation endpoints. The
// shape mirrors the channel endpoints with the conversation as scope.
type DirectMessageHandler struct {
	conversationRepo repositories.ConversationRepository
	messageRepo      repositories.DirectMessageRepository
	audit            *telemetry.AuditEmitter
}

// NewDirectMessageHandler builds a DirectMessageHandler.
func NewDirectMessageHandler(conversationRepo repositories.ConversationRepository, messageRepo repositories.DirectMessageRepository, audit *telemetry.AuditEmitter) *DirectMessageHandler {
	return &DirectMessageHandler{
		conversationRepo: conversationRepo,
		messageRepo:      messageRepo,
		audit:            audit,
	}
}

func (h *DirectMessageHandler) resolveConversationScope(c *gin.Context) (models.Conversation, models.Member, bool) {
	conversationID := c.Query("conversationId")
	if conversationID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "conversationId is required"})
		return models.Conversation{}, models.Member{}, false
	}

	conversation, err := h.conversationRepo.GetConversation(c.Request.Context(), conversationID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrConversationNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "conversation not found"})
		return models.Conversation{}, models.Member{}, false
	}

	profileID := c.GetString(middleware.ProfileIDKey)
	member, err := h.conversationRepo.GetParticipant(c.Request.Context(), conversation.ID, profileID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrNotParticipant) {
			status = http.StatusForbidden
		}
		c.JSON(status, gin.H{"error": "not a conversation participant"})
		return models.Conversation{}, models.Member{}, false
	}

	return conversation, member, true
}

// ListDirectMessages returns one page of the conversation, newest first.
func (h *DirectMessageHandler) ListDirectMessages(c *gin.Context) {
	conversation, _, ok := h.resolveConversationScope(c)
	if !ok {
		return
	}

	items, err := h.messageRepo.ListDirectMessages(c.Request.Context(), conversation.ID, c.Query("cursor"), messagesBatch)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
		return
	}

	c.JSON(http.StatusOK, buildPage(items, messagesBatch))
}

// PostDirectMessage stores a direct message and publishes the create
// event to the conversation's room.
func (h *DirectMessageHandler) PostDirectMessage(c *gin.Context) {
	conversation, member, ok := h.resolveConversationScope(c)
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

	rec, err := h.messageRepo.CreateDirectMessage(c.Request.Context(), conversation.ID, member.ID, req.Content, req.FileURL)
	if err != nil {
		h.emitAudit(c, "ERROR", "direct message create failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not store message"})
		return
	}

	bus.Publish(bus.Event{Kind: bus.EventCreate, Room: bus.NewRoomKey(conversation.ID), Message: rec})
	h.emitAudit(c, "INFO", "direct message created")
	c.JSON(http.StatusCreated, rec)
}

// EditDirectMessage replaces the content of the caller's own message.
func (h *DirectMessageHandler) EditDirectMessage(c *gin.Context) {
	conversation, member, ok := h.resolveConversationScope(c)
	if !ok {
		return
	}
	rec, ok := h.loadLiveDirectMessage(c, conversation)
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

	updated, err := h.messageRepo.UpdateDirectMessageContent(c.Request.Context(), rec.ID, req.Content)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrMessageNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "could not edit message"})
		return
	}

	bus.Publish(bus.Event{Kind: bus.EventUpdate, Room: bus.NewRoomKey(conversation.ID), Message: updated})
	c.JSON(http.StatusOK, updated)
}

// DeleteDirectMessage soft-deletes a direct message. Only its author
// may delete it; conversations have no moderators.
func (h *DirectMessageHandler) DeleteDirectMessage(c *gin.Context) {
	conversation, member, ok := h.resolveConversationScope(c)
	if !ok {
		return
	}
	rec, ok := h.loadLiveDirectMessage(c, conversation)
	if !ok {
		return
	}
	if rec.MemberID != member.ID {
		c.JSON(http.StatusForbidden, gin.H{"error": "not allowed"})
		return
	}

	deleted, err := h.messageRepo.SoftDeleteDirectMessage(c.Request.Context(), rec.ID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrMessageNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "could not delete message"})
		return
	}

	bus.Publish(bus.Event{Kind: bus.EventUpdate, Room: bus.NewRoomKey(conversation.ID), Message: deleted})
	h.emitAudit(c, "INFO", "direct message deleted")
	c.JSON(http.StatusOK, deleted)
}

func (h *DirectMessageHandler) loadLiveDirectMessage(c *gin.Context, conversation models.Conversation) (models.MessageRecord, bool) {
	rec, err := h.messageRepo.GetDirectMessage(c.Request.Context(), c.Param("messageId"))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrMessageNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "message not found"})
		return models.MessageRecord{}, false
	}
	if rec.ConversationID != conversation.ID || rec.Deleted {
		c.JSON(http.StatusNotFound, gin.H{"error": "message not found"})
		return models.MessageRecord{}, false
	}
	return rec, true
}

func (h *DirectMessageHandler) emitAudit(c *gin.Context, level, text string) {
	if h.audit == nil {
		return
	}
	h.audit.Emit(c.Request.Context(), level, text, requestIDFromContext(c), profileIDFromContext(c))
}
