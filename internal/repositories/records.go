package repositories

import (
	"fmt"

	"realtime-service/internal/models"
)

// scanner matches both sqlx.Row and sqlx.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

// messageRecordColumns builds the joined projection for denormalized
// message reads. targetColumn is channel_id or conversation_id; the
// alias prefixes (m, mb, p) are fixed by the callers' FROM clauses.
func messageRecordColumns(targetColumn string) string {
	return fmt.Sprintf(`
    m.id, m.content, m.file_url, m.%s, m.member_id, m.deleted, m.created_at, m.updated_at,
    mb.id, mb.role, mb.profile_id, mb.server_id, mb.created_at, mb.updated_at,
    p.id, p.user_id, p.name, p.email, p.image_url, p.created_at, p.updated_at`, targetColumn)
}

// recordTarget selects which field receives the target id column.
type recordTarget int

const (
	targetChannel recordTarget = iota
	targetConversation
)

func scanMessageRecord(s scanner, target recordTarget) (models.MessageRecord, error) {
	var rec models.MessageRecord
	targetField := &rec.ChannelID
	if target == targetConversation {
		targetField = &rec.ConversationID
	}
	err := s.Scan(
		&rec.ID, &rec.Content, &rec.FileURL, targetField, &rec.MemberID, &rec.Deleted, &rec.CreatedAt, &rec.UpdatedAt,
		&rec.Member.ID, &rec.Member.Role, &rec.Member.ProfileID, &rec.Member.ServerID,
		&rec.Member.CreatedAt, &rec.Member.UpdatedAt,
		&rec.Member.Profile.ID, &rec.Member.Profile.UserID, &rec.Member.Profile.Name,
		&rec.Member.Profile.Email, &rec.Member.Profile.ImageURL,
		&rec.Member.Profile.CreatedAt, &rec.Member.Profile.UpdatedAt,
	)
	return rec, err
}
