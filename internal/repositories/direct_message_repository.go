package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"realtime-service/internal/models"
)

// DirectMessageRepository mirrors MessageRepository for one-to-one
// conversations.
type DirectMessageRepository interface {
	CreateDirectMessage(ctx context.Context, conversationID string, memberID string, content string, fileURL *string) (models.MessageRecord, error)
	GetDirectMessage(ctx context.Context, messageID string) (models.MessageRecord, error)
	UpdateDirectMessageContent(ctx context.Context, messageID string, content string) (models.MessageRecord, error)
	SoftDeleteDirectMessage(ctx context.Context, messageID string) (models.MessageRecord, error)
	ListDirectMessages(ctx context.Context, conversationID string, cursor string, limit int) ([]models.MessageRecord, error)
}

// DirectMessageRepo is a sqlx-backed repository.
type DirectMessageRepo struct {
	db *sqlx.DB
}

// NewDirectMessageRepo constructs a DirectMessageRepo.
func NewDirectMessageRepo(db *sqlx.DB) *DirectMessageRepo {
	return &DirectMessageRepo{db: db}
}

// CreateDirectMessage stores a message in a conversation.
func (r *DirectMessageRepo) CreateDirectMessage(ctx context.Context, conversationID string, memberID string, content string, fileURL *string) (models.MessageRecord, error) {
	id := uuid.NewString()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO direct_messages (id, content, file_url, conversation_id, member_id) VALUES ($1, $2, $3, $4, $5)`,
		id, content, fileURL, conversationID, memberID)
	if err != nil {
		return models.MessageRecord{}, err
	}
	return r.GetDirectMessage(ctx, id)
}

// GetDirectMessage retrieves a single denormalized direct message.
func (r *DirectMessageRepo) GetDirectMessage(ctx context.Context, messageID string) (models.MessageRecord, error) {
	query := fmt.Sprintf(`SELECT %s
        FROM direct_messages m
        JOIN members mb ON mb.id = m.member_id
        JOIN profiles p ON p.id = mb.profile_id
        WHERE m.id=$1`, messageRecordColumns("conversation_id"))
	row := r.db.QueryRowxContext(ctx, query, messageID)
	rec, err := scanMessageRecord(row, targetConversation)
	if errors.Is(err, sql.ErrNoRows) {
		return models.MessageRecord{}, ErrMessageNotFound
	}
	return rec, err
}

// UpdateDirectMessageContent replaces the content of an existing message.
func (r *DirectMessageRepo) UpdateDirectMessageContent(ctx context.Context, messageID string, content string) (models.MessageRecord, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE direct_messages SET content=$2, updated_at=NOW() WHERE id=$1 AND deleted=FALSE`,
		messageID, content)
	if err != nil {
		return models.MessageRecord{}, err
	}
	if err := requireRows(res); err != nil {
		return models.MessageRecord{}, err
	}
	return r.GetDirectMessage(ctx, messageID)
}

// SoftDeleteDirectMessage scrubs a message without removing the row.
func (r *DirectMessageRepo) SoftDeleteDirectMessage(ctx context.Context, messageID string) (models.MessageRecord, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE direct_messages SET content=$2, file_url=NULL, deleted=TRUE, updated_at=NOW() WHERE id=$1`,
		messageID, models.DeletedPlaceholder)
	if err != nil {
		return models.MessageRecord{}, err
	}
	if err := requireRows(res); err != nil {
		return models.MessageRecord{}, err
	}
	return r.GetDirectMessage(ctx, messageID)
}

// ListDirectMessages returns one page of conversation messages, newest
// first, with the same cursor contract as ListMessages.
func (r *DirectMessageRepo) ListDirectMessages(ctx context.Context, conversationID string, cursor string, limit int) ([]models.MessageRecord, error) {
	base := fmt.Sprintf(`SELECT %s
        FROM direct_messages m
        JOIN members mb ON mb.id = m.member_id
        JOIN profiles p ON p.id = mb.profile_id
        WHERE m.conversation_id=$1`, messageRecordColumns("conversation_id"))

	var rows *sqlx.Rows
	var err error
	if cursor == "" {
		rows, err = r.db.QueryxContext(ctx,
			base+` ORDER BY m.created_at DESC, m.id DESC LIMIT $2`,
			conversationID, limit)
	} else {
		rows, err = r.db.QueryxContext(ctx,
			base+` AND (m.created_at, m.id) < (SELECT created_at, id FROM direct_messages WHERE id=$2)
             ORDER BY m.created_at DESC, m.id DESC LIMIT $3`,
			conversationID, cursor, limit)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.MessageRecord
	for rows.Next() {
		rec, err := scanMessageRecord(rows, targetConversation)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
