package bus

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"realtime-service/internal/mocks"
	"realtime-service/internal/models"
	"realtime-service/internal/repositories"
	"realtime-service/internal/tokens"
)

var testIdentity = tokens.Identity{UserID: "u1", ProfileID: "p1"}

func TestAuthorizeChannelGranted(t *testing.T) {
	channels := new(mocks.ChannelRepositoryMock)
	conversations := new(mocks.ConversationRepositoryMock)
	auth := NewStoreAuthorizer(channels, conversations)

	channels.On("GetChannel", mock.Anything, "chan1", "srv1").Return(models.Channel{ID: "chan1", ServerID: "srv1"}, nil).Once()
	channels.On("GetMember", mock.Anything, "srv1", "p1").Return(models.Member{ID: "mem1"}, nil).Once()

	granted := auth.Authorize(context.Background(), testIdentity, NewRoomKey("chan1"), JoinMeta{ChannelID: "chan1", ServerID: "srv1"})
	assert.True(t, granted)
	channels.AssertExpectations(t)
}

func TestAuthorizeChannelDeniedWhenNotServerMember(t *testing.T) {
	channels := new(mocks.ChannelRepositoryMock)
	auth := NewStoreAuthorizer(channels, new(mocks.ConversationRepositoryMock))

	channels.On("GetChannel", mock.Anything, "chan1", "srv1").Return(models.Channel{ID: "chan1", ServerID: "srv1"}, nil).Once()
	channels.On("GetMember", mock.Anything, "srv1", "p1").Return(models.Member{}, repositories.ErrNotMember).Once()

	granted := auth.Authorize(context.Background(), testIdentity, NewRoomKey("chan1"), JoinMeta{ChannelID: "chan1", ServerID: "srv1"})
	assert.False(t, granted, "valid channel id must not grant a non-member")
	channels.AssertExpectations(t)
}

func TestAuthorizeChannelDeniedWhenChannelNotInServer(t *testing.T) {
	channels := new(mocks.ChannelRepositoryMock)
	auth := NewStoreAuthorizer(channels, new(mocks.ConversationRepositoryMock))

	channels.On("GetChannel", mock.Anything, "chan1", "srv2").Return(models.Channel{}, repositories.ErrChannelNotFound).Once()

	granted := auth.Authorize(context.Background(), testIdentity, NewRoomKey("chan1"), JoinMeta{ChannelID: "chan1", ServerID: "srv2"})
	assert.False(t, granted)
	channels.AssertExpectations(t)
}

func TestAuthorizeDeniedWhenMetaTargetMismatches(t *testing.T) {
	auth := NewStoreAuthorizer(new(mocks.ChannelRepositoryMock), new(mocks.ConversationRepositoryMock))

	granted := auth.Authorize(context.Background(), testIdentity, NewRoomKey("chan1"), JoinMeta{ChannelID: "chan2", ServerID: "srv1"})
	assert.False(t, granted, "meta must authorize the room actually joined")
}

func TestAuthorizeConversationParticipant(t *testing.T) {
	conversations := new(mocks.ConversationRepositoryMock)
	auth := NewStoreAuthorizer(new(mocks.ChannelRepositoryMock), conversations)

	conversations.On("GetParticipant", mock.Anything, "conv1", "p1").Return(models.Member{ID: "mem1"}, nil).Once()
	granted := auth.Authorize(context.Background(), testIdentity, NewRoomKey("conv1"), JoinMeta{ConversationID: "conv1"})
	assert.True(t, granted)

	conversations.On("GetParticipant", mock.Anything, "conv2", "p1").Return(models.Member{}, repositories.ErrNotParticipant).Once()
	granted = auth.Authorize(context.Background(), testIdentity, NewRoomKey("conv2"), JoinMeta{ConversationID: "conv2"})
	assert.False(t, granted)

	conversations.AssertExpectations(t)
}

func TestAuthorizeDeniedWithoutMeta(t *testing.T) {
	auth := NewStoreAuthorizer(new(mocks.ChannelRepositoryMock), new(mocks.ConversationRepositoryMock))
	granted := auth.Authorize(context.Background(), testIdentity, NewRoomKey("chan1"), JoinMeta{})
	assert.False(t, granted)
}
