package scrape

import (
	"context"
	"math"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
)

// BreadthRow is one trading day of market-breadth counts.
type BreadthRow struct {
	Date     string  `json:"date"`
	Up4Pct   int     `json:"up_4pct"`
	Down4Pct int     `json:"down_4pct"`
	Ratio5D  float64 `json:"ratio_5d"`
	Ratio10D float64 `json:"ratio_10d"`
	Up25Qtr  int     `json:"up_25pct_qtr"`
	Down25Qtr int    `json:"down_25pct_qtr"`

	// Present only when the sheet carries the extended columns.
	Up25Month   int `json:"up_25pct_month,omitempty"`
	Down25Month int `json:"down_25pct_month,omitempty"`
	Up50Month   int `json:"up_50pct_month,omitempty"`
	Down50Month int `json:"down_50pct_month,omitempty"`
}

// MarketMonitor is the parsed breadth sheet, newest row first.
type MarketMonitor struct {
	Date   string       `json:"date"`
	Rows   []BreadthRow `json:"rows"`
	Latest *BreadthRow  `json:"latest"`
	Source string       `json:"source"`
}

var dateCellRe = regexp.MustCompile(`^\d{1,2}/\d{1,2}/\d{4}`)

// FetchMarketMonitor downloads the breadth sheet CSV export and parses the
// date-keyed rows. When the CSV endpoint fails, it falls back to scraping
// the public HTML page.
func (c *Client) FetchMarketMonitor(ctx context.Context) (*MarketMonitor, error) {
	rows, err := c.fetchCSV(ctx, c.marketMonitorURL)
	if err != nil {
		c.logger.Warn("breadth csv fetch failed, trying html page", zap.Error(err))
		return c.fetchMarketMonitorHTML(ctx)
	}

	parsed := parseBreadthRows(rows)
	if len(parsed) == 0 {
		c.logger.Warn("breadth csv had no parseable rows, trying html page")
		return c.fetchMarketMonitorHTML(ctx)
	}

	c.logger.Info("market monitor fetched", zap.Int("rows", len(parsed)))
	return &MarketMonitor{
		Date:   time.Now().Format("2006-01-02"),
		Rows:   parsed,
		Latest: &parsed[0],
		Source: "google_sheets_csv",
	}, nil
}

// parseBreadthRows keeps only rows whose first cell is an M/D/YYYY date and
// needs at least the seven core columns. Malformed rows are skipped.
func parseBreadthRows(rows [][]string) []BreadthRow {
	var out []BreadthRow
	for _, row := range rows {
		if len(row) < 7 {
			continue
		}
		first := trimCell(row[0])
		if !dateCellRe.MatchString(first) {
			continue
		}

		parsed := BreadthRow{
			Date:      first,
			Up4Pct:    parseInt(cell(row, 1)),
			Down4Pct:  parseInt(cell(row, 2)),
			Ratio5D:   parseFloat(cell(row, 3)),
			Ratio10D:  parseFloat(cell(row, 4)),
			Up25Qtr:   parseInt(cell(row, 5)),
			Down25Qtr: parseInt(cell(row, 6)),
		}
		if len(row) >= 11 {
			parsed.Up25Month = parseInt(cell(row, 7))
			parsed.Down25Month = parseInt(cell(row, 8))
			parsed.Up50Month = parseInt(cell(row, 9))
			parsed.Down50Month = parseInt(cell(row, 10))
		}
		out = append(out, parsed)
	}
	return out
}

// Extreme levels for the breadth indicators.
type ExtremeLevel string

const (
	ExtremeHigh ExtremeLevel = "extreme_high"
	ExtremeLow  ExtremeLevel = "extreme_low"
)

// Extreme flags an indicator sitting outside its normal band.
type Extreme struct {
	Indicator string       `json:"indicator"`
	Value     float64      `json:"value"`
	Level     ExtremeLevel `json:"level"`
}

// Signal is a notable day-over-day change.
type Signal struct {
	Type      string  `json:"type"`
	Indicator string  `json:"indicator"`
	Change    float64 `json:"change"`
	Direction string  `json:"direction"`
}

// TrendAnalysis summarizes the recent breadth trend.
type TrendAnalysis struct {
	Date     string    `json:"date"`
	Summary  []string  `json:"summary"`
	Signals  []Signal  `json:"signals"`
	Extremes []Extreme `json:"extremes"`
}

type band struct {
	extremeHigh float64
	extremeLow  float64
	hasLow      bool
}

var extremeBands = map[string]band{
	"up_4pct":   {extremeHigh: 500},
	"down_4pct": {extremeHigh: 500},
	"ratio_5d":  {extremeHigh: 2.0, extremeLow: 0.3, hasLow: true},
	"ratio_10d": {extremeHigh: 1.5, extremeLow: 0.6, hasLow: true},
}

// AnalyzeTrend scans the most recent rows for extremes and ratio swings.
// Returns nil when there is not enough data to say anything.
func AnalyzeTrend(rows []BreadthRow, days int) *TrendAnalysis {
	if len(rows) < 2 {
		return nil
	}
	if days > len(rows) {
		days = len(rows)
	}
	recent := rows[:days]
	latest := recent[0]

	analysis := &TrendAnalysis{Date: latest.Date}

	values := map[string]float64{
		"up_4pct":   float64(latest.Up4Pct),
		"down_4pct": float64(latest.Down4Pct),
		"ratio_5d":  latest.Ratio5D,
		"ratio_10d": latest.Ratio10D,
	}
	for _, indicator := range []string{"up_4pct", "down_4pct", "ratio_5d", "ratio_10d"} {
		b := extremeBands[indicator]
		v := values[indicator]
		switch {
		case b.extremeHigh > 0 && v >= b.extremeHigh:
			analysis.Extremes = append(analysis.Extremes, Extreme{Indicator: indicator, Value: v, Level: ExtremeHigh})
		case b.hasLow && v > 0 && v <= b.extremeLow:
			analysis.Extremes = append(analysis.Extremes, Extreme{Indicator: indicator, Value: v, Level: ExtremeLow})
		}
	}

	if len(recent) >= 2 {
		prev := recent[1]
		if latest.Ratio5D != 0 && prev.Ratio5D != 0 {
			change := latest.Ratio5D - prev.Ratio5D
			if change > 0.1 || change < -0.1 {
				direction := "improving"
				if change < 0 {
					direction = "deteriorating"
				}
				analysis.Signals = append(analysis.Signals, Signal{
					Type:      "ratio_change",
					Indicator: "ratio_5d",
					Change:    round2(change),
					Direction: direction,
				})
			}
		}
	}

	switch {
	case latest.Ratio5D > 1.2:
		analysis.Summary = append(analysis.Summary, "short-term breadth is strong")
	case latest.Ratio5D > 0 && latest.Ratio5D < 0.8:
		analysis.Summary = append(analysis.Summary, "short-term breadth is weak")
	}

	return analysis
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

func trimCell(s string) string {
	return strings.TrimSpace(s)
}
