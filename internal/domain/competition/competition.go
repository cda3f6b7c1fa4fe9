package competition

import (
	"time"

	"github.com/tradearena/backend/internal/id"
)

// Status is derived from the competition window, never stored.
type Status string

const (
	StatusUpcoming Status = "upcoming"
	StatusActive   Status = "active"
	StatusFinished Status = "finished"
)

// Competition is one trading contest. Money is kept in cents to avoid
// float drift in balances.
type Competition struct {
	ID              string
	Name            string
	Description     string
	StartingBalance int64
	StartsAt        time.Time
	EndsAt          time.Time
	CreatedAt       time.Time
}

func New(name, description string, startingBalance int64, startsAt, endsAt time.Time) *Competition {
	return &Competition{
		ID:              id.GenerateID(),
		Name:            name,
		Description:     description,
		StartingBalance: startingBalance,
		StartsAt:        startsAt,
		EndsAt:          endsAt,
		CreatedAt:       time.Now().UTC(),
	}
}

func (c *Competition) StatusAt(now time.Time) Status {
	switch {
	case now.Before(c.StartsAt):
		return StatusUpcoming
	case now.After(c.EndsAt):
		return StatusFinished
	default:
		return StatusActive
	}
}

// Entry is one user's participation in one competition.
type Entry struct {
	ID            string
	CompetitionID string
	UserID        string
	Cash          int64
	JoinedAt      time.Time
}

func NewEntry(c *Competition, userID string) *Entry {
	return &Entry{
		ID:            id.GenerateID(),
		CompetitionID: c.ID,
		UserID:        userID,
		Cash:          c.StartingBalance,
		JoinedAt:      time.Now().UTC(),
	}
}
