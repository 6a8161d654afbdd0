package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"realtime-service/internal/models"
)

var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrNotParticipant       = errors.New("not a conversation participant")
)

// ConversationRepository resolves one-to-one conversations and their
// two participants.
type ConversationRepository interface {
	GetConversation(ctx context.Context, conversationID string) (models.Conversation, error)
	GetParticipant(ctx context.Context, conversationID string, profileID string) (models.Member, error)
}

// ConversationRepo is a sqlx-backed repository.
type ConversationRepo struct {
	db *sqlx.DB
}

// NewConversationRepo constructs a ConversationRepo.
func NewConversationRepo(db *sqlx.DB) *ConversationRepo {
	return &ConversationRepo{db: db}
}

// GetConversation loads a conversation row.
func (r *ConversationRepo) GetConversation(ctx context.Context, conversationID string) (models.Conversation, error) {
	var conversation models.Conversation
	err := r.db.GetContext(ctx, &conversation,
		`SELECT id, member_one_id, member_two_id, created_at FROM conversations WHERE id=$1`,
		conversationID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Conversation{}, ErrConversationNotFound
	}
	return conversation, err
}

// GetParticipant returns the member record of the profile inside the
// conversation, or ErrNotParticipant when the profile is neither side.
func (r *ConversationRepo) GetParticipant(ctx context.Context, conversationID string, profileID string) (models.Member, error) {
	var member models.Member
	err := r.db.GetContext(ctx, &member,
		`SELECT m.id, m.role, m.profile_id, m.server_id, m.created_at, m.updated_at
         FROM conversations c
         JOIN members m ON m.id IN (c.member_one_id, c.member_two_id)
         WHERE c.id=$1 AND m.profile_id=$2`,
		conversationID, profileID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Member{}, ErrNotParticipant
	}
	return member, err
}
