package scrape

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Momentum is the parsed top-50 momentum watchlist. The source sheet lays
// snapshots out as columns: the header row carries dates, each column below
// it the ranked tickers for that date.
type Momentum struct {
	Date       string              `json:"date"`
	Tickers    []string            `json:"tickers"`
	History    map[string][]string `json:"history,omitempty"`
	Dates      []string            `json:"dates,omitempty"`
	NewEntries []string            `json:"new_entries"`
	Dropped    []string            `json:"dropped"`
	Source     string              `json:"source"`
}

// FetchMomentum downloads the momentum watchlist CSV and diffs the latest
// snapshot against the previous one.
func (c *Client) FetchMomentum(ctx context.Context) (*Momentum, error) {
	rows, err := c.fetchCSV(ctx, c.momentumURL)
	if err != nil {
		return nil, fmt.Errorf("momentum: %w", err)
	}
	m := parseMomentum(rows)
	if m == nil {
		return nil, fmt.Errorf("momentum: no dated columns in %d rows", len(rows))
	}
	c.logger.Info("momentum fetched",
		zap.String("snapshot", m.Date),
		zap.Int("tickers", len(m.Tickers)),
		zap.Int("new", len(m.NewEntries)))
	return m, nil
}

// parseMomentum turns the column-per-date layout into per-date ticker lists.
// The sheet prepends each new session, so the newest snapshot is the leftmost
// dated column and Dates runs newest to oldest.
func parseMomentum(rows [][]string) *Momentum {
	if len(rows) < 2 {
		return nil
	}
	header := rows[0]

	var dates []string
	var cols []int
	for i, h := range header {
		h = trimCell(h)
		if dateCellRe.MatchString(h) {
			dates = append(dates, h)
			cols = append(cols, i)
		}
	}
	if len(dates) == 0 {
		return nil
	}

	history := make(map[string][]string, len(dates))
	for j, col := range cols {
		var tickers []string
		for _, row := range rows[1:] {
			t := strings.ToUpper(trimCell(cell(row, col)))
			if t == "" || !tickerRe.MatchString(t) {
				continue
			}
			tickers = append(tickers, t)
			if len(tickers) == 50 {
				break
			}
		}
		history[dates[j]] = tickers
	}

	latestDate := dates[0]
	latest := history[latestDate]

	m := &Momentum{
		Date:    latestDate,
		Tickers: latest,
		History: history,
		Dates:   dates,
		Source:  "google_sheets_csv",
	}
	if len(dates) >= 2 {
		prev := history[dates[1]]
		m.NewEntries = diffTickers(latest, prev)
		m.Dropped = diffTickers(prev, latest)
	}
	return m
}

// tickerRe accepts plain symbols plus the dotted share classes (BRK.B).
var tickerRe = regexp.MustCompile(`^[A-Z]{1,6}(\.[A-Z])?$`)

// diffTickers returns members of a that are absent from b, preserving order.
func diffTickers(a, b []string) []string {
	seen := make(map[string]struct{}, len(b))
	for _, t := range b {
		seen[t] = struct{}{}
	}
	out := []string{}
	for _, t := range a {
		if _, ok := seen[t]; !ok {
			out = append(out, t)
		}
	}
	return out
}

// TradingViewWatchlist renders the ticker list in TradingView's import
// format, one comma-separated line of exchange-prefixed symbols.
func (m *Momentum) TradingViewWatchlist() string {
	prefixed := make([]string, 0, len(m.Tickers))
	for _, t := range m.Tickers {
		prefixed = append(prefixed, "NASDAQ:"+t)
	}
	return strings.Join(prefixed, ",")
}

// MomentumAnalysis summarizes list churn across recent snapshots.
type MomentumAnalysis struct {
	Date              string   `json:"date"`
	TurnoverRate      float64  `json:"turnover_rate"`
	PersistentLeaders []string `json:"persistent_leaders"`
	Summary           []string `json:"summary"`
}

// AnalyzeMomentum computes the day-over-day turnover rate and the tickers
// that held a spot in every one of the last three snapshots.
func AnalyzeMomentum(m *Momentum) *MomentumAnalysis {
	if m == nil || len(m.Tickers) == 0 {
		return nil
	}
	a := &MomentumAnalysis{Date: m.Date}

	if len(m.Tickers) > 0 {
		a.TurnoverRate = round2(float64(len(m.NewEntries)) / float64(len(m.Tickers)))
	}

	if len(m.Dates) >= 3 {
		recent := m.Dates[:3]
		counts := make(map[string]int)
		for _, d := range recent {
			for _, t := range m.History[d] {
				counts[t]++
			}
		}
		for _, t := range m.Tickers {
			if counts[t] == len(recent) {
				a.PersistentLeaders = append(a.PersistentLeaders, t)
			}
		}
	}

	switch {
	case a.TurnoverRate >= 0.3:
		a.Summary = append(a.Summary, "high turnover, leadership is rotating")
	case a.TurnoverRate <= 0.1:
		a.Summary = append(a.Summary, "low turnover, leadership is stable")
	}
	if n := len(a.PersistentLeaders); n > 0 {
		a.Summary = append(a.Summary, fmt.Sprintf("%d tickers held a top-50 spot for three straight sessions", n))
	}
	return a
}

// Snapshot bundles both feeds for a single run.
type Snapshot struct {
	FetchedAt     time.Time      `json:"fetched_at"`
	MarketMonitor *MarketMonitor `json:"market_monitor,omitempty"`
	Momentum      *Momentum      `json:"momentum,omitempty"`
}

// FetchAll grabs both feeds, tolerating a failure of either one. It errors
// only when nothing could be fetched.
func (c *Client) FetchAll(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{FetchedAt: time.Now().UTC()}

	mm, err := c.FetchMarketMonitor(ctx)
	if err != nil {
		c.logger.Error("market monitor fetch failed", zap.Error(err))
	} else {
		snap.MarketMonitor = mm
	}

	mo, err := c.FetchMomentum(ctx)
	if err != nil {
		c.logger.Error("momentum fetch failed", zap.Error(err))
	} else {
		snap.Momentum = mo
	}

	if snap.MarketMonitor == nil && snap.Momentum == nil {
		return nil, fmt.Errorf("all data sources failed")
	}
	return snap, nil
}
