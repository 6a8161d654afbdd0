package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"realtime-service/internal/models"
)

var (
	ErrChannelNotFound = errors.New("channel not found")
	ErrNotMember       = errors.New("not a server member")
)

// ChannelRepository resolves channels and server membership. These
// checks gate both room joins and message mutations.
type ChannelRepository interface {
	GetChannel(ctx context.Context, channelID string, serverID string) (models.Channel, error)
	GetMember(ctx context.Context, serverID string, profileID string) (models.Member, error)
}

// ChannelRepo is a sqlx-backed repository.
type ChannelRepo struct {
	db *sqlx.DB
}

// NewChannelRepo constructs a ChannelRepo.
func NewChannelRepo(db *sqlx.DB) *ChannelRepo {
	return &ChannelRepo{db: db}
}

// GetChannel returns the channel only when it belongs to the named server.
func (r *ChannelRepo) GetChannel(ctx context.Context, channelID string, serverID string) (models.Channel, error) {
	var channel models.Channel
	err := r.db.GetContext(ctx, &channel,
		`SELECT id, name, server_id, created_at, updated_at FROM channels WHERE id=$1 AND server_id=$2`,
		channelID, serverID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Channel{}, ErrChannelNotFound
	}
	return channel, err
}

// GetMember returns the profile's membership in a server.
func (r *ChannelRepo) GetMember(ctx context.Context, serverID string, profileID string) (models.Member, error) {
	var member models.Member
	err := r.db.GetContext(ctx, &member,
		`SELECT id, role, profile_id, server_id, created_at, updated_at FROM members WHERE server_id=$1 AND profile_id=$2`,
		serverID, profileID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Member{}, ErrNotMember
	}
	return member, err
}
