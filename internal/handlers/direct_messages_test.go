package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"realtime-service/internal/middleware"
	"realtime-service/internal/mocks"
	"realtime-service/internal/models"
	"realtime-service/internal/repositories"
)

func setupDirectMessageRouter(handler *DirectMessageHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.ProfileIDKey, "p1")
		c.Set(middleware.UserIDKey, "u1")
		c.Next()
	})
	r.GET("/direct-messages", handler.ListDirectMessages)
	r.POST("/direct-messages", handler.PostDirectMessage)
	r.PATCH("/direct-messages/:messageId", handler.EditDirectMessage)
	r.DELETE("/direct-messages/:messageId", handler.DeleteDirectMessage)
	return r
}

func directRecordFixture(id, memberID string) models.MessageRecord {
	return models.MessageRecord{ID: id, Content: "hi", ConversationID: "conv1", MemberID: memberID}
}

func expectConversationScope(conversationRepo *mocks.ConversationRepositoryMock) {
	conversationRepo.On("GetConversation", mock.Anything, "conv1").
		Return(models.Conversation{ID: "conv1", MemberOneID: "mem1", MemberTwoID: "mem2"}, nil).Once()
	conversationRepo.On("GetParticipant", mock.Anything, "conv1", "p1").
		Return(models.Member{ID: "mem1", Role: models.RoleGuest, ProfileID: "p1"}, nil).Once()
}

func TestPostDirectMessageSuccess(t *testing.T) {
	conversationRepo := new(mocks.ConversationRepositoryMock)
	messageRepo := new(mocks.DirectMessageRepositoryMock)
	router := setupDirectMessageRouter(NewDirectMessageHandler(conversationRepo, messageRepo, nil))

	expectConversationScope(conversationRepo)
	messageRepo.On("CreateDirectMessage", mock.Anything, "conv1", "mem1", "hi", (*string)(nil)).
		Return(directRecordFixture("dm1", "mem1"), nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/direct-messages?conversationId=conv1", bytes.NewBufferString(`{"content":"hi"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	conversationRepo.AssertExpectations(t)
	messageRepo.AssertExpectations(t)
}

func TestPostDirectMessageNotParticipant(t *testing.T) {
	conversationRepo := new(mocks.ConversationRepositoryMock)
	router := setupDirectMessageRouter(NewDirectMessageHandler(conversationRepo, new(mocks.DirectMessageRepositoryMock), nil))

	conversationRepo.On("GetConversation", mock.Anything, "conv1").
		Return(models.Conversation{ID: "conv1"}, nil).Once()
	conversationRepo.On("GetParticipant", mock.Anything, "conv1", "p1").
		Return(models.Member{}, repositories.ErrNotParticipant).Once()

	req := httptest.NewRequest(http.MethodPost, "/direct-messages?conversationId=conv1", bytes.NewBufferString(`{"content":"hi"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
	conversationRepo.AssertExpectations(t)
}

func TestListDirectMessagesSuccess(t *testing.T) {
	conversationRepo := new(mocks.ConversationRepositoryMock)
	messageRepo := new(mocks.DirectMessageRepositoryMock)
	router := setupDirectMessageRouter(NewDirectMessageHandler(conversationRepo, messageRepo, nil))

	expectConversationScope(conversationRepo)
	messageRepo.On("ListDirectMessages", mock.Anything, "conv1", "", messagesBatch).
		Return([]models.MessageRecord{directRecordFixture("dm1", "mem2")}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/direct-messages?conversationId=conv1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var page models.MessagePage
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&page))
	assert.Len(t, page.Items, 1)
	assert.Empty(t, page.NextCursor)
}

func TestDeleteDirectMessageNotOwner(t *testing.T) {
	conversationRepo := new(mocks.ConversationRepositoryMock)
	messageRepo := new(mocks.DirectMessageRepositoryMock)
	router := setupDirectMessageRouter(NewDirectMessageHandler(conversationRepo, messageRepo, nil))

	expectConversationScope(conversationRepo)
	messageRepo.On("GetDirectMessage", mock.Anything, "dm1").
		Return(directRecordFixture("dm1", "mem2"), nil).Once()

	req := httptest.NewRequest(http.MethodDelete, "/direct-messages/dm1?conversationId=conv1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestDeleteDirectMessageSuccess(t *testing.T) {
	conversationRepo := new(mocks.ConversationRepositoryMock)
	messageRepo := new(mocks.DirectMessageRepositoryMock)
	router := setupDirectMessageRouter(NewDirectMessageHandler(conversationRepo, messageRepo, nil))

	deleted := directRecordFixture("dm1", "mem1")
	deleted.Content = models.DeletedPlaceholder
	deleted.Deleted = true
	expectConversationScope(conversationRepo)
	messageRepo.On("GetDirectMessage", mock.Anything, "dm1").Return(directRecordFixture("dm1", "mem1"), nil).Once()
	messageRepo.On("SoftDeleteDirectMessage", mock.Anything, "dm1").Return(deleted, nil).Once()

	req := httptest.NewRequest(http.MethodDelete, "/direct-messages/dm1?conversationId=conv1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	messageRepo.AssertExpectations(t)
}

func TestEditDirectMessageMissingConversation(t *testing.T) {
	router := setupDirectMessageRouter(NewDirectMessageHandler(new(mocks.ConversationRepositoryMock), new(mocks.DirectMessageRepositoryMock), nil))

	req := httptest.NewRequest(http.MethodPatch, "/direct-messages/dm1", bytes.NewBufferString(`{"content":"edit"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}
