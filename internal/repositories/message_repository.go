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

var ErrMessageNotFound = errors.New("message not found")

// MessageRepository defines interactions for channel messages. All
// reads return the denormalized record (message + member + profile) so
// callers never need a follow-up fetch.
type MessageRepository interface {
	CreateMessage(ctx context.Context, channelID string, memberID string, content string, fileURL *string) (models.MessageRecord, error)
	GetMessage(ctx context.Context, messageID string) (models.MessageRecord, error)
	UpdateMessageContent(ctx context.Context, messageID string, content string) (models.MessageRecord, error)
	SoftDeleteMessage(ctx context.Context, messageID string) (models.MessageRecord, error)
	ListMessages(ctx context.Context, channelID string, cursor string, limit int) ([]models.MessageRecord, error)
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs a MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// CreateMessage stores a message in a channel.
func (r *MessageRepo) CreateMessage(ctx context.Context, channelID string, memberID string, content string, fileURL *string) (models.MessageRecord, error) {
	id := uuid.NewString()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO messages (id, content, file_url, channel_id, member_id) VALUES ($1, $2, $3, $4, $5)`,
		id, content, fileURL, channelID, memberID)
	if err != nil {
		return models.MessageRecord{}, err
	}
	return r.GetMessage(ctx, id)
}

// GetMessage retrieves a single denormalized message.
func (r *MessageRepo) GetMessage(ctx context.Context, messageID string) (models.MessageRecord, error) {
	query := fmt.Sprintf(`SELECT %s
        FROM messages m
        JOIN members mb ON mb.id = m.member_id
        JOIN profiles p ON p.id = mb.profile_id
        WHERE m.id=$1`, messageRecordColumns("channel_id"))
	row := r.db.QueryRowxContext(ctx, query, messageID)
	rec, err := scanMessageRecord(row, targetChannel)
	if errors.Is(err, sql.ErrNoRows) {
		return models.MessageRecord{}, ErrMessageNotFound
	}
	return rec, err
}

// UpdateMessageContent replaces the content of an existing message.
func (r *MessageRepo) UpdateMessageContent(ctx context.Context, messageID string, content string) (models.MessageRecord, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE messages SET content=$2, updated_at=NOW() WHERE id=$1 AND deleted=FALSE`,
		messageID, content)
	if err != nil {
		return models.MessageRecord{}, err
	}
	if err := requireRows(res); err != nil {
		return models.MessageRecord{}, err
	}
	return r.GetMessage(ctx, messageID)
}

// SoftDeleteMessage scrubs a message without removing the row.
func (r *MessageRepo) SoftDeleteMessage(ctx context.Context, messageID string) (models.MessageRecord, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE messages SET content=$2, file_url=NULL, deleted=TRUE, updated_at=NOW() WHERE id=$1`,
		messageID, models.DeletedPlaceholder)
	if err != nil {
		return models.MessageRecord{}, err
	}
	if err := requireRows(res); err != nil {
		return models.MessageRecord{}, err
	}
	return r.GetMessage(ctx, messageID)
}

// ListMessages returns one page of channel messages, newest first. An
// empty cursor means the first page; otherwise the page starts after
// the message the cursor names.
func (r *MessageRepo) ListMessages(ctx context.Context, channelID string, cursor string, limit int) ([]models.MessageRecord, error) {
	base := fmt.Sprintf(`SELECT %s
        FROM messages m
        JOIN members mb ON mb.id = m.member_id
        JOIN profiles p ON p.id = mb.profile_id
        WHERE m.channel_id=$1`, messageRecordColumns("channel_id"))

	var rows *sqlx.Rows
	var err error
	if cursor == "" {
		rows, err = r.db.QueryxContext(ctx,
			base+` ORDER BY m.created_at DESC, m.id DESC LIMIT $2`,
			channelID, limit)
	} else {
		rows, err = r.db.QueryxContext(ctx,
			base+` AND (m.created_at, m.id) < (SELECT created_at, id FROM messages WHERE id=$2)
             ORDER BY m.created_at DESC, m.id DESC LIMIT $3`,
			channelID, cursor, limit)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.MessageRecord
	for rows.Next() {
		rec, err := scanMessageRecord(rows, targetChannel)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func requireRows(res sql.Result) error {
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrMessageNotFound
	}
	return nil
}
