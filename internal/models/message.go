package models

import "time"

// DeletedPlaceholder replaces the content of a soft-deleted message.
const DeletedPlaceholder = "This message has been deleted."

// MessageRecord is the denormalized message payload shared by HTTP
// responses and bus events: message plus author member plus minimal
// profile fields. Exactly one of ChannelID / ConversationID is set.
// Subscribers never need a follow-up fetch.
type MessageRecord struct {
	ID             string  `db:"id" json:"id"`
	Content        string  `db:"content" json:"content"`
	FileURL        *string `db:"file_url" json:"fileUrl"`
	ChannelID      string  `db:"channel_id" json:"channelId,omitempty"`
	ConversationID string  `db:"conversation_id" json:"conversationId,omitempty"`
	MemberID       string  `db:"member_id" json:"memberId"`
	Deleted        bool    `db:"deleted" json:"deleted"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`

	Member Member `db:"-" json:"member"`
}

// MessagePage is a cursor-paginated slice of messages, newest first.
// NextCursor is empty when no older page exists.
type MessagePage struct {
	Items      []MessageRecord `json:"items"`
	NextCursor string          `json:"nextCursor"`
}
