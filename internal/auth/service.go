package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tradearena/backend/internal/domain/user"
	"github.com/tradearena/backend/internal/hashpool"
	"github.com/tradearena/backend/internal/store"
)

const (
	DefaultSessionTTL = 24 * time.Hour
	minPasswordLen    = 8
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidToken       = errors.New("invalid or expired session")
	ErrWeakPassword       = fmt.Errorf("password must be at least %d characters", minPasswordLen)
)

// Service owns registration, login and session checks. All password
// hashing and comparison goes through the pool so the calling handler's
// goroutine never burns CPU on bcrypt.
type Service struct {
	store      store.Store
	pool       *hashpool.Pool
	logger     *slog.Logger
	sessionTTL time.Duration
}

func NewService(s store.Store, pool *hashpool.Pool, logger *slog.Logger) *Service {
	return &Service{
		store:      s,
		pool:       pool,
		logger:     logger,
		sessionTTL: DefaultSessionTTL,
	}
}

// HashPassword submits a hash operation and waits for it. Cancelling ctx
// abandons the wait but not the operation; the pool discards its result.
func (s *Service) HashPassword(ctx context.Context, plaintext string) (string, error) {
	select {
	case res := <-s.pool.Submit(hashpool.Request{Op: hashpool.OpHash, Plaintext: plaintext}):
		return res.Hash, res.Err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// ComparePassword submits a compare operation and waits for it.
func (s *Service) ComparePassword(ctx context.Context, plaintext, hash string) (bool, error) {
	select {
	case res := <-s.pool.Submit(hashpool.Request{Op: hashpool.OpCompare, Plaintext: plaintext, Hash: hash}):
		return res.Match, res.Err
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

func (s *Service) Register(ctx context.Context, email, displayName, password string) (*user.User, error) {
	if len(password) < minPasswordLen {
		return nil, ErrWeakPassword
	}

	hash, err := s.HashPassword(ctx, password)
	if err != nil {
		return nil, err
	}

	u := user.New(email, displayName, hash)
	if err := s.store.SaveUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	s.logger.Info("user registered", "user_id", u.ID)
	return u, nil
}

// Login verifies credentials and issues a bearer session token. A missing
// user and a wrong password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (*user.Session, error) {
	u, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	match, err := s.ComparePassword(ctx, password, u.PasswordHash)
	if err != nil {
		return nil, err
	}
	if !match {
		return nil, ErrInvalidCredentials
	}

	now := time.Now().UTC()
	sess := &user.Session{
		Token:     uuid.NewString(),
		UserID:    u.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.sessionTTL),
	}
	if err := s.store.SaveSession(ctx, sess); err != nil {
		return nil, err
	}

	s.logger.Info("user logged in", "user_id", u.ID)
	return sess, nil
}

func (s *Service) Logout(ctx context.Context, token string) error {
	return s.store.DeleteSession(ctx, token)
}

// Authenticate resolves a bearer token to its user.
func (s *Service) Authenticate(ctx context.Context, token string) (*user.User, error) {
	sess, err := s.store.GetSession(ctx, token)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if sess.Expired(time.Now().UTC()) {
		return nil, ErrInvalidToken
	}

	u, err := s.store.GetUser(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	return u, nil
}
