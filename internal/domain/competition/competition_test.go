package competition_test

import (
	"testing"
	"time"

	"github.com/tradearena/backend/internal/domain/competition"
)

func TestNewCompetition(t *testing.T) {
	starts := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	ends := starts.AddDate(0, 0, 21)

	c := competition.New("Q3 Momentum Cup", "three weeks", 10_000_00, starts, ends)

	if c.ID == "" {
		t.Error("expected non-empty ID")
	}
	if c.Name != "Q3 Momentum Cup" {
		t.Errorf("expected name %q, got %q", "Q3 Momentum Cup", c.Name)
	}
	if c.StartingBalance != 10_000_00 {
		t.Errorf("expected starting balance %d, got %d", 10_000_00, c.StartingBalance)
	}
}

func TestStatusAt(t *testing.T) {
	starts := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	ends := starts.AddDate(0, 0, 21)
	c := competition.New("cup", "", 100, starts, ends)

	if got := c.StatusAt(starts.Add(-time.Hour)); got != competition.StatusUpcoming {
		t.Errorf("before start: expected %q, got %q", competition.StatusUpcoming, got)
	}
	if got := c.StatusAt(starts.Add(time.Hour)); got != competition.StatusActive {
		t.Errorf("mid-window: expected %q, got %q", competition.StatusActive, got)
	}
	if got := c.StatusAt(ends.Add(time.Hour)); got != competition.StatusFinished {
		t.Errorf("after end: expected %q, got %q", competition.StatusFinished, got)
	}
}

func TestNewEntryStartsWithCompetitionBalance(t *testing.T) {
	c := competition.New("cup", "", 5000, time.Now(), time.Now().Add(time.Hour))
	e := competition.NewEntry(c, "user-1")

	if e.Cash != 5000 {
		t.Errorf("expected cash %d, got %d", 5000, e.Cash)
	}
	if e.CompetitionID != c.ID {
		t.Errorf("expected competition ID %q, got %q", c.ID, e.CompetitionID)
	}
	if e.UserID != "user-1" {
		t.Errorf("expected user ID %q, got %q", "user-1", e.UserID)
	}
}
