package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"realtime-service/internal/models"
)

type ChannelRepositoryMock struct {
	mock.Mock
}

func (m *ChannelRepositoryMock) GetChannel(ctx context.Context, channelID string, serverID string) (models.Channel, error) {
	args := m.Called(ctx, channelID, serverID)
	var channel models.Channel
	if val := args.Get(0); val != nil {
		channel = val.(models.Channel)
	}
	return channel, args.Error(1)
}

func (m *ChannelRepositoryMock) GetMember(ctx context.Context, serverID string, profileID string) (models.Member, error) {
	args := m.Called(ctx, serverID, profileID)
	var member models.Member
	if val := args.Get(0); val != nil {
		member = val.(models.Member)
	}
	return member, args.Error(1)
}

type ConversationRepositoryMock struct {
	mock.Mock
}

func (m *ConversationRepositoryMock) GetConversation(ctx context.Context, conversationID string) (models.Conversation, error) {
	args := m.Called(ctx, conversationID)
	var conversation models.Conversation
	if val := args.Get(0); val != nil {
		conversation = val.(models.Conversation)
	}
	return conversation, args.Error(1)
}

func (m *ConversationRepositoryMock) GetParticipant(ctx context.Context, conversationID string, profileID string) (models.Member, error) {
	args := m.Called(ctx, conversationID, profileID)
	var member models.Member
	if val := args.Get(0); val != nil {
		member = val.(models.Member)
	}
	return member, args.Error(1)
}

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) CreateMessage(ctx context.Context, channelID string, memberID string, content string, fileURL *string) (models.MessageRecord, error) {
	args := m.Called(ctx, channelID, memberID, content, fileURL)
	var rec models.MessageRecord
	if val := args.Get(0); val != nil {
		rec = val.(models.MessageRecord)
	}
	return rec, args.Error(1)
}

func (m *MessageRepositoryMock) GetMessage(ctx context.Context, messageID string) (models.MessageRecord, error) {
	args := m.Called(ctx, messageID)
	var rec models.MessageRecord
	if val := args.Get(0); val != nil {
		rec = val.(models.MessageRecord)
	}
	return rec, args.Error(1)
}

func (m *MessageRepositoryMock) UpdateMessageContent(ctx context.Context, messageID string, content string) (models.MessageRecord, error) {
	args := m.Called(ctx, messageID, content)
	var rec models.MessageRecord
	if val := args.Get(0); val != nil {
		rec = val.(models.MessageRecord)
	}
	return rec, args.Error(1)
}

func (m *MessageRepositoryMock) SoftDeleteMessage(ctx context.Context, messageID string) (models.MessageRecord, error) {
	args := m.Called(ctx, messageID)
	var rec models.MessageRecord
	if val := args.Get(0); val != nil {
		rec = val.(models.MessageRecord)
	}
	return rec, args.Error(1)
}

func (m *MessageRepositoryMock) ListMessages(ctx context.Context, channelID string, cursor string, limit int) ([]models.MessageRecord, error) {
	args := m.Called(ctx, channelID, cursor, limit)
	var records []models.MessageRecord
	if val := args.Get(0); val != nil {
		records = val.([]models.MessageRecord)
	}
	return records, args.Error(1)
}

type DirectMessageRepositoryMock struct {
	mock.Mock
}

func (m *DirectMessageRepositoryMock) CreateDirectMessage(ctx context.Context, conversationID string, memberID string, content string, fileURL *string) (models.MessageRecord, error) {
	args := m.Called(ctx, conversationID, memberID, content, fileURL)
	var rec models.MessageRecord
	if val := args.Get(0); val != nil {
		rec = val.(models.MessageRecord)
	}
	return rec, args.Error(1)
}

func (m *DirectMessageRepositoryMock) GetDirectMessage(ctx context.Context, messageID string) (models.MessageRecord, error) {
	args := m.Called(ctx, messageID)
	var rec models.MessageRecord
	if val := args.Get(0); val != nil {
		rec = val.(models.MessageRecord)
	}
	return rec, args.Error(1)
}

func (m *DirectMessageRepositoryMock) UpdateDirectMessageContent(ctx context.Context, messageID string, content string) (models.MessageRecord, error) {
	args := m.Called(ctx, messageID, content)
	var rec models.MessageRecord
	if val := args.Get(0); val != nil {
		rec = val.(models.MessageRecord)
	}
	return rec, args.Error(1)
}

func (m *DirectMessageRepositoryMock) SoftDeleteDirectMessage(ctx context.Context, messageID string) (models.MessageRecord, error) {
	args := m.Called(ctx, messageID)
	var rec models.MessageRecord
	if val := args.Get(0); val != nil {
		rec = val.(models.MessageRecord)
	}
	return rec, args.Error(1)
}

func (m *DirectMessageRepositoryMock) ListDirectMessages(ctx context.Context, conversationID string, cursor string, limit int) ([]models.MessageRecord, error) {
	args := m.Called(ctx, conversationID, cursor, limit)
	var records []models.MessageRecord
	if val := args.Get(0); val != nil {
		records = val.([]models.MessageRecord)
	}
	return records, args.Error(1)
}

type SessionResolverMock struct {
	mock.Mock
}

func (m *SessionResolverMock) ResolveSession(ctx context.Context, token string) (models.Profile, error) {
	args := m.Called(ctx, token)
	var profile models.Profile
	if val := args.Get(0); val != nil {
		profile = val.(models.Profile)
	}
	return profile, args.Error(1)
}
