package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/tradearena/backend/internal/domain/competition"
)

func (s *SQLiteStore) SaveCompetition(ctx context.Context, c *competition.Competition) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO competitions (id, name, description, starting_balance, starts_at, ends_at, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		c.ID, c.Name, c.Description, c.StartingBalance, c.StartsAt, c.EndsAt, c.CreatedAt,
	)
	return err
}

func (s *SQLiteStore) GetCompetition(ctx context.Context, id string) (*competition.Competition, error) {
	var c competition.Competition
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, description, starting_balance, starts_at, ends_at, created_at FROM competitions WHERE id = ?", id,
	).Scan(&c.ID, &c.Name, &c.Description, &c.StartingBalance, &c.StartsAt, &c.EndsAt, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *SQLiteStore) ListCompetitions(ctx context.Context) ([]*competition.Competition, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, description, starting_balance, starts_at, ends_at, created_at FROM competitions ORDER BY starts_at DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var competitions []*competition.Competition
	for rows.Next() {
		var c competition.Competition
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.StartingBalance, &c.StartsAt, &c.EndsAt, &c.CreatedAt); err != nil {
			return nil, err
		}
		competitions = append(competitions, &c)
	}
	return competitions, rows.Err()
}

func (s *SQLiteStore) SaveEntry(ctx context.Context, e *competition.Entry) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO entries (id, competition_id, user_id, cash, joined_at) VALUES (?, ?, ?, ?, ?)",
		e.ID, e.CompetitionID, e.UserID, e.Cash, e.JoinedAt,
	)
	if err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return ErrConflict
	}
	return err
}

func (s *SQLiteStore) GetEntry(ctx context.Context, id string) (*competition.Entry, error) {
	return s.scanEntry(s.db.QueryRowContext(ctx,
		"SELECT id, competition_id, user_id, cash, joined_at FROM entries WHERE id = ?", id))
}

func (s *SQLiteStore) GetEntryByUser(ctx context.Context, competitionID, userID string) (*competition.Entry, error) {
	return s.scanEntry(s.db.QueryRowContext(ctx,
		"SELECT id, competition_id, user_id, cash, joined_at FROM entries WHERE competition_id = ? AND user_id = ?",
		competitionID, userID))
}

func (s *SQLiteStore) scanEntry(row *sql.Row) (*competition.Entry, error) {
	var e competition.Entry
	err := row.Scan(&e.ID, &e.CompetitionID, &e.UserID, &e.Cash, &e.JoinedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *SQLiteStore) UpdateEntryCash(ctx context.Context, entryID string, cash int64) error {
	res, err := s.db.ExecContext(ctx, "UPDATE entries SET cash = ? WHERE id = ?", cash, entryID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) SaveOrder(ctx context.Context, o *competition.Order) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO orders (id, entry_id, symbol, side, quantity, price, placed_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		o.ID, o.EntryID, o.Symbol, o.Side, o.Quantity, o.Price, o.PlacedAt,
	)
	return err
}

func (s *SQLiteStore) ListOrders(ctx context.Context, entryID string) ([]*competition.Order, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, entry_id, symbol, side, quantity, price, placed_at FROM orders WHERE entry_id = ? ORDER BY placed_at",
		entryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*competition.Order
	for rows.Next() {
		var o competition.Order
		if err := rows.Scan(&o.ID, &o.EntryID, &o.Symbol, &o.Side, &o.Quantity, &o.Price, &o.PlacedAt); err != nil {
			return nil, err
		}
		orders = append(orders, &o)
	}
	return orders, rows.Err()
}

// GetPosition returns the net quantity held in symbol: buys minus sells.
func (s *SQLiteStore) GetPosition(ctx context.Context, entryID, symbol string) (int64, error) {
	var held sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT SUM(CASE side WHEN 'buy' THEN quantity ELSE -quantity END)
		 FROM orders WHERE entry_id = ? AND symbol = ?`,
		entryID, symbol,
	).Scan(&held)
	if err != nil {
		return 0, err
	}
	return held.Int64, nil
}

func (s *SQLiteStore) Leaderboard(ctx context.Context, competitionID string) ([]LeaderboardRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT e.id, e.user_id, u.display_name, e.cash
		 FROM entries e JOIN users u ON u.id = e.user_id
		 WHERE e.competition_id = ?
		 ORDER BY e.cash DESC, e.joined_at`,
		competitionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var board []LeaderboardRow
	for rows.Next() {
		var row LeaderboardRow
		if err := rows.Scan(&row.EntryID, &row.UserID, &row.DisplayName, &row.Cash); err != nil {
			return nil, err
		}
		row.Rank = len(board) + 1
		board = append(board, row)
	}
	return board, rows.Err()
}
