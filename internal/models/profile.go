package models

import "time"

// Profile mirrors the record the external auth provider establishes for
// a user. Only the fields the realtime core needs are carried.
type Profile struct {
	ID       string  `db:"id" json:"id"`
	UserID   string  `db:"user_id" json:"userId"`
	Name     string  `db:"name" json:"name"`
	Email    string  `db:"email" json:"email"`
	ImageURL *string `db:"image_url" json:"imageUrl"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// MemberRole controls moderation rights inside a server.
type MemberRole string

const (
	RoleAdmin     MemberRole = "ADMIN"
	RoleModerator MemberRole = "MODERATOR"
	RoleGuest     MemberRole = "GUEST"
)

// Member ties a profile to a server with a role.
type Member struct {
	ID        string     `db:"id" json:"id"`
	Role      MemberRole `db:"role" json:"role"`
	ProfileID string     `db:"profile_id" json:"profileId"`
	ServerID  string     `db:"server_id" json:"serverId"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`

	// Profile is populated on denormalized reads only.
	Profile Profile `db:"-" json:"profile"`
}

// CanModerate reports whether the member may remove other members'
// messages.
func (m Member) CanModerate() bool {
	return m.Role == RoleAdmin || m.Role == RoleModerator
}
