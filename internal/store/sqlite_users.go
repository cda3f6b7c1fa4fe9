package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/tradearena/backend/internal/domain/user"
)

func (s *SQLiteStore) SaveUser(ctx context.Context, u *user.User) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO users (id, email, display_name, password_hash, created_at) VALUES (?, ?, ?, ?, ?)",
		u.ID, u.Email, u.DisplayName, u.PasswordHash, u.CreatedAt,
	)
	if err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return ErrConflict
	}
	return err
}

func (s *SQLiteStore) GetUser(ctx context.Context, id string) (*user.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx,
		"SELECT id, email, display_name, password_hash, created_at FROM users WHERE id = ?", id))
}

func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*user.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx,
		"SELECT id, email, display_name, password_hash, created_at FROM users WHERE email = ?", email))
}

func (s *SQLiteStore) scanUser(row *sql.Row) (*user.User, error) {
	var u user.User
	err := row.Scan(&u.ID, &u.Email, &u.DisplayName, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *SQLiteStore) SaveSession(ctx context.Context, sess *user.Session) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO sessions (token, user_id, created_at, expires_at) VALUES (?, ?, ?, ?)",
		sess.Token, sess.UserID, sess.CreatedAt, sess.ExpiresAt,
	)
	return err
}

func (s *SQLiteStore) GetSession(ctx context.Context, token string) (*user.Session, error) {
	var sess user.Session
	err := s.db.QueryRowContext(ctx,
		"SELECT token, user_id, created_at, expires_at FROM sessions WHERE token = ?", token,
	).Scan(&sess.Token, &sess.UserID, &sess.CreatedAt, &sess.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

func (s *SQLiteStore) DeleteSession(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE token = ?", token)
	return err
}
