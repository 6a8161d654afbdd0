package models

import "time"

// Channel is a named message stream inside a server.
type Channel struct {
	ID       string `db:"id" json:"id"`
	Name     string `db:"name" json:"name"`
	ServerID string `db:"server_id" json:"serverId"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// Conversation is a one-to-one message stream between two members.
type Conversation struct {
	ID          string `db:"id" json:"id"`
	MemberOneID string `db:"member_one_id" json:"memberOneId"`
	MemberTwoID string `db:"member_two_id" json:"memberTwoId"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}
