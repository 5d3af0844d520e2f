package store

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// WatchTicker is one user-tracked symbol.
type WatchTicker struct {
	Ticker  string    `json:"ticker"`
	Note    string    `json:"note,omitempty"`
	AddedAt time.Time `json:"added_at"`
}

// Idea is one free-form trade idea captured from chat.
type Idea struct {
	ID   int64     `json:"id"`
	Ts   time.Time `json:"ts"`
	Text string    `json:"text"`
}

// TrackTicker adds or updates a tracked symbol.
func (s *Store) TrackTicker(ctx context.Context, ticker, note string) error {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return fmt.Errorf("ticker required")
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO watch_tickers (ticker, note) VALUES (?, ?)
		 ON CONFLICT(ticker) DO UPDATE SET note = excluded.note`,
		ticker, note)
	if err != nil {
		return fmt.Errorf("track ticker: %w", err)
	}
	return nil
}

// UntrackTicker removes a tracked symbol. Returns false if it was not tracked.
func (s *Store) UntrackTicker(ctx context.Context, ticker string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM watch_tickers WHERE ticker = ?`,
		strings.ToUpper(strings.TrimSpace(ticker)))
	if err != nil {
		return false, fmt.Errorf("untrack ticker: %w", err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// TrackedTickers lists the watchlist in alphabetical order.
func (s *Store) TrackedTickers(ctx context.Context) ([]WatchTicker, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT ticker, COALESCE(note, ''), added_at FROM watch_tickers ORDER BY ticker`)
	if err != nil {
		return nil, fmt.Errorf("list tickers: %w", err)
	}
	defer rows.Close()

	var out []WatchTicker
	for rows.Next() {
		var t WatchTicker
		if err := rows.Scan(&t.Ticker, &t.Note, &t.AddedAt); err != nil {
			return nil, fmt.Errorf("scan ticker: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// AddIdea stores a trade idea.
func (s *Store) AddIdea(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return fmt.Errorf("idea text required")
	}
	if _, err := s.db.ExecContext(ctx, `INSERT INTO ideas (text) VALUES (?)`, text); err != nil {
		return fmt.Errorf("add idea: %w", err)
	}
	return nil
}

// RecentIdeas lists the newest ideas first. Limit defaults to 10.
func (s *Store) RecentIdeas(ctx context.Context, limit int) ([]Idea, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, ts, text FROM ideas ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list ideas: %w", err)
	}
	defer rows.Close()

	var out []Idea
	for rows.Next() {
		var i Idea
		if err := rows.Scan(&i.ID, &i.Ts, &i.Text); err != nil {
			return nil, fmt.Errorf("scan idea: %w", err)
		}
		out = append(out, i)
	}
	return out, rows.Err()
}
