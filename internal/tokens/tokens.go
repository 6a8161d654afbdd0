// Package tokens issues and verifies the signed, time-limited tokens
// presented at socket connection time.
package tokens

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TTL is how long an issued token stays valid.
const TTL = 24 * time.Hour

// Identity is the stable identity a verified token carries for the
// lifetime of a connection.
type Identity struct {
	UserID    string
	ProfileID string
}

type socketClaims struct {
	UserID    string `json:"userId"`
	ProfileID string `json:"profileId"`
	jwt.RegisteredClaims
}

// Service signs and verifies socket tokens with a shared HMAC-SHA256
// secret. Verification never returns an error to callers: any
// malformed, tampered or expired token is simply not ok.
type Service struct {
	secret []byte
	now    func() time.Time
}

// NewService builds a token service. The secret must be non-empty; the
// caller is expected to treat a missing secret as a fatal startup
// error, not a per-request one.
func NewService(secret string) (*Service, error) {
	if secret == "" {
		return nil, errors.New("socket token secret is empty")
	}
	return &Service{secret: []byte(secret), now: time.Now}, nil
}

// Issue signs a token for an already-authenticated identity.
func (s *Service) Issue(identity Identity) (string, error) {
	now := s.now()
	claims := socketClaims{
		UserID:    identity.UserID,
		ProfileID: identity.ProfileID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Verify checks signature and expiry and returns the identity claims.
func (s *Service) Verify(token string) (Identity, bool) {
	claims := &socketClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return s.now() }))
	if err != nil || !parsed.Valid {
		return Identity{}, false
	}
	if claims.UserID == "" || claims.ProfileID == "" {
		return Identity{}, false
	}
	return Identity{UserID: claims.UserID, ProfileID: claims.ProfileID}, true
}
