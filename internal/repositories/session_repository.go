package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"realtime-service/internal/models"
)

var ErrSessionNotFound = errors.New("session not found")

// SessionRepository resolves the opaque session token minted by the
// external auth collaborator into a profile identity.
type SessionRepository interface {
	ResolveSession(ctx context.Context, token string) (models.Profile, error)
}

// SessionRepo is a sqlx-backed repository.
type SessionRepo struct {
	db *sqlx.DB
}

// NewSessionRepo constructs a SessionRepo.
func NewSessionRepo(db *sqlx.DB) *SessionRepo {
	return &SessionRepo{db: db}
}

// ResolveSession returns the profile behind an unexpired session token.
func (r *SessionRepo) ResolveSession(ctx context.Context, token string) (models.Profile, error) {
	var profile models.Profile
	err := r.db.GetContext(ctx, &profile,
		`SELECT p.id, p.user_id, p.name, p.email, p.image_url, p.created_at, p.updated_at
         FROM sessions s
         JOIN profiles p ON p.id = s.profile_id
         WHERE s.token=$1 AND s.expires_at > NOW()`,
		token)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Profile{}, ErrSessionNotFound
	}
	return profile, err
}
