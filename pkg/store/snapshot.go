package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Snapshot kinds, one per data source.
const (
	SnapshotMarketMonitor = "market_monitor"
	SnapshotMomentum      = "momentum"
)

// SaveSnapshot upserts the day's payload for a data source. Re-running a
// push on the same day overwrites that day's snapshot.
func (s *Store) SaveSnapshot(ctx context.Context, kind string, day time.Time, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO snapshots (kind, day, payload) VALUES (?, ?, ?)
		 ON CONFLICT(kind, day) DO UPDATE SET payload = excluded.payload, ts = CURRENT_TIMESTAMP`,
		kind, day.Format("2006-01-02"), string(raw))
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// LatestSnapshot loads the most recent payload for a kind into dest.
// Returns false when no snapshot exists yet.
func (s *Store) LatestSnapshot(ctx context.Context, kind string, dest any) (bool, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM snapshots WHERE kind = ? ORDER BY day DESC LIMIT 1`, kind).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load snapshot: %w", err)
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return false, fmt.Errorf("decode snapshot: %w", err)
	}
	return true, nil
}
