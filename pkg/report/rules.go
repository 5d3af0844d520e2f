package report

import (
	"fmt"
	"strings"

	"github.com/antigravity-ai/antigravity/pkg/scrape"
)

// RuleBasedMarketAnalysis mirrors the AI output format with fixed thresholds,
// so chat and markdown rendering never care which path produced the text.
func RuleBasedMarketAnalysis(latest scrape.BreadthRow) string {
	var parts []string

	up := float64(latest.Up4Pct)
	down := float64(latest.Down4Pct)
	switch {
	case up > down*1.5:
		parts = append(parts, fmt.Sprintf("1. Short-term: strong - up 4%%+ (%d) well above down 4%%+ (%d)", latest.Up4Pct, latest.Down4Pct))
	case down > up*1.5:
		parts = append(parts, fmt.Sprintf("1. Short-term: weak - down 4%%+ (%d) well above up 4%%+ (%d), 5-day ratio %.2f below 1", latest.Down4Pct, latest.Up4Pct, latest.Ratio5D))
	default:
		parts = append(parts, fmt.Sprintf("1. Short-term: choppy - advances and declines close (up %d / down %d)", latest.Up4Pct, latest.Down4Pct))
	}

	if latest.Up25Qtr > latest.Down25Qtr {
		parts = append(parts, fmt.Sprintf("2. Mid-term: strong - more quarterly gainers (%d) than losers (%d)", latest.Up25Qtr, latest.Down25Qtr))
	} else {
		parts = append(parts, fmt.Sprintf("2. Mid-term: weak - more quarterly losers (%d) than gainers (%d)", latest.Down25Qtr, latest.Up25Qtr))
	}

	switch {
	case latest.Up25Qtr > 0 && latest.Up25Qtr < 350:
		parts = append(parts, fmt.Sprintf("3. Signal: bottoming zone - only %d stocks up 25%%+ on the quarter (below 350)", latest.Up25Qtr))
	case latest.Up4Pct > 1000 && latest.Ratio5D > 2:
		parts = append(parts, fmt.Sprintf("3. Signal: overheated - %d stocks up 4%%+ with 5-day ratio %.2f above 2", latest.Up4Pct, latest.Ratio5D))
	default:
		parts = append(parts, "3. Signal: none")
	}

	switch {
	case latest.Ratio5D < 1 && latest.Down4Pct > latest.Up4Pct:
		parts = append(parts, "4. Advice: wait - short-term weakness, avoid chasing, keep position size down")
	case latest.Ratio5D > 1.2:
		parts = append(parts, "4. Advice: add - leaders can be added carefully, cap per-trade risk")
	default:
		parts = append(parts, "4. Advice: caution - keep watching, mind the risk-reward")
	}

	return strings.Join(parts, "\n")
}

// RuleBasedMomentumAnalysis is the deterministic fallback for the watchlist.
func RuleBasedMomentumAnalysis(m *scrape.Momentum) string {
	var parts []string

	if len(m.Tickers) > 0 {
		turnover := float64(len(m.NewEntries)) / float64(len(m.Tickers)) * 100
		if turnover > 20 {
			parts = append(parts, fmt.Sprintf("1. Sector mix: high turnover (%.0f%%), leadership may be rotating", turnover))
		} else {
			parts = append(parts, fmt.Sprintf("1. Sector mix: turnover %.0f%%, leadership fairly stable", turnover))
		}
	}

	parts = append(parts, "", "2. New entries:")
	if len(m.NewEntries) > 0 {
		limit := len(m.NewEntries)
		if limit > 10 {
			limit = 10
		}
		for _, t := range m.NewEntries[:limit] {
			parts = append(parts, fmt.Sprintf("%s: needs research. Watch: new to the list, look for a breakout setup", t))
		}
	} else {
		parts = append(parts, "no new entries today")
	}

	parts = append(parts, "", "3. Advice:")
	if len(m.NewEntries) > 10 {
		parts = append(parts, "- many new names, watch the fresh leaders but beware chasing")
	} else {
		parts = append(parts, "- focus on names that keep their spot on the list")
	}
	parts = append(parts, "- confirm with volume and price action, use stops")

	return strings.Join(parts, "\n")
}
