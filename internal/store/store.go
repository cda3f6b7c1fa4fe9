package store

import (
	"context"
	"errors"

	"github.com/tradearena/backend/internal/domain/competition"
	"github.com/tradearena/backend/internal/domain/user"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")
)

// LeaderboardRow is one ranked entry within a competition.
type LeaderboardRow struct {
	Rank        int
	EntryID     string
	UserID      string
	DisplayName string
	Cash        int64
}

// Store is the persistence boundary. SQLiteStore is the only production
// implementation; tests substitute fakes.
type Store interface {
	// Users and sessions
	SaveUser(ctx context.Context, u *user.User) error
	GetUser(ctx context.Context, id string) (*user.User, error)
	GetUserByEmail(ctx context.Context, email string) (*user.User, error)
	SaveSession(ctx context.Context, s *user.Session) error
	GetSession(ctx context.Context, token string) (*user.Session, error)
	DeleteSession(ctx context.Context, token string) error

	// Competitions
	SaveCompetition(ctx context.Context, c *competition.Competition) error
	GetCompetition(ctx context.Context, id string) (*competition.Competition, error)
	ListCompetitions(ctx context.Context) ([]*competition.Competition, error)

	// Entries and orders
	SaveEntry(ctx context.Context, e *competition.Entry) error
	GetEntry(ctx context.Context, id string) (*competition.Entry, error)
	GetEntryByUser(ctx context.Context, competitionID, userID string) (*competition.Entry, error)
	UpdateEntryCash(ctx context.Context, entryID string, cash int64) error
	SaveOrder(ctx context.Context, o *competition.Order) error
	ListOrders(ctx context.Context, entryID string) ([]*competition.Order, error)
	GetPosition(ctx context.Context, entryID, symbol string) (int64, error)
	Leaderboard(ctx context.Context, competitionID string) ([]LeaderboardRow, error)
}
