package user

import (
	"time"

	"github.com/tradearena/backend/internal/id"
)

// User is a registered trader. PasswordHash is produced by the hash pool;
// the plaintext never leaves the auth service.
type User struct {
	ID           string
	Email        string
	DisplayName  string
	PasswordHash string
	CreatedAt    time.Time
}

func New(email, displayName, passwordHash string) *User {
	return &User{
		ID:           id.GenerateID(),
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
}

// Session is a bearer token issued at login.
type Session struct {
	Token     string
	UserID    string
	CreatedAt time.Time
	ExpiresAt time.Time
}

func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
