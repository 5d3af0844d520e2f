package store

import (
	"context"
	"fmt"
	"time"
)

// AuditEntry is one recorded AI provider attempt.
type AuditEntry struct {
	ID       int64         `json:"id"`
	Ts       time.Time     `json:"ts"`
	Provider string        `json:"provider"`
	Outcome  string        `json:"outcome"`
	Latency  time.Duration `json:"latency"`
	Detail   string        `json:"detail,omitempty"`
}

// AppendAudit records one provider attempt. Satisfies the analyzer's sink.
func (s *Store) AppendAudit(ctx context.Context, provider, outcome string, latency time.Duration, detail string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO ai_audit (provider, outcome, latency_ms, detail) VALUES (?, ?, ?, ?)`,
		provider, outcome, latency.Milliseconds(), detail)
	if err != nil {
		return fmt.Errorf("append audit: %w", err)
	}
	return nil
}

// RecentAudit returns the newest entries, newest first. Limit defaults to 50.
func (s *Store) RecentAudit(ctx context.Context, limit int) ([]AuditEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, ts, provider, outcome, latency_ms, COALESCE(detail, '')
		 FROM ai_audit ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit: %w", err)
	}
	defer rows.Close()

	var entries []AuditEntry
	for rows.Next() {
		var e AuditEntry
		var latencyMs int64
		if err := rows.Scan(&e.ID, &e.Ts, &e.Provider, &e.Outcome, &latencyMs, &e.Detail); err != nil {
			return nil, fmt.Errorf("scan audit row: %w", err)
		}
		e.Latency = time.Duration(latencyMs) * time.Millisecond
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
