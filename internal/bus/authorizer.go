package bus

import (
	"context"

	"realtime-service/internal/repositories"
	"realtime-service/internal/tokens"
)

// Authorizer decides whether an identity may join a room. Decisions are
// evaluated against store state read at decision time, never cached
// from connection-open.
type Authorizer interface {
	Authorize(ctx context.Context, identity tokens.Identity, room RoomKey, meta JoinMeta) bool
}

// StoreAuthorizer checks room joins against the relational store. It
// exists to prevent cross-tenant eavesdropping: without it any
// connected client could subscribe to another server's or DM's stream
// by guessing the target id.
type StoreAuthorizer struct {
	channels      repositories.ChannelRepository
	conversations repositories.ConversationRepository
}

// NewStoreAuthorizer constructs a StoreAuthorizer.
func NewStoreAuthorizer(channels repositories.ChannelRepository, conversations repositories.ConversationRepository) *StoreAuthorizer {
	return &StoreAuthorizer{channels: channels, conversations: conversations}
}

// Authorize grants a conversation room when the identity is one of the
// two participants, and a channel room when the channel belongs to the
// named server and the identity is a member of that server. The meta
// target must match the room target; any store error denies.
func (a *StoreAuthorizer) Authorize(ctx context.Context, identity tokens.Identity, room RoomKey, meta JoinMeta) bool {
	switch {
	case meta.ConversationID != "":
		if meta.ConversationID != room.TargetID() {
			return false
		}
		if _, err := a.conversations.GetParticipant(ctx, meta.ConversationID, identity.ProfileID); err != nil {
			return false
		}
		return true

	case meta.ChannelID != "" && meta.ServerID != "":
		if meta.ChannelID != room.TargetID() {
			return false
		}
		if _, err := a.channels.GetChannel(ctx, meta.ChannelID, meta.ServerID); err != nil {
			return false
		}
		if _, err := a.channels.GetMember(ctx, meta.ServerID, identity.ProfileID); err != nil {
			return false
		}
		return true

	default:
		return false
	}
}
