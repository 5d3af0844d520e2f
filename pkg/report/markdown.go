package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/antigravity-ai/antigravity/pkg/scrape"
)

const (
	breadthSourceURL  = "https://stockbee.blogspot.com/p/mm.html"
	momentumSourceURL = "https://docs.google.com/spreadsheets/d/1xjbe9SF0HsxwY_Uy3NC2tT92BqK0nhArUaYU16Q0p9M"
)

// MarketMonitorMarkdown renders the breadth document for the notes vault:
// YAML frontmatter, the recent data table, and the analysis text.
func MarketMonitorMarkdown(mm *scrape.MarketMonitor, analysis string, now time.Time) string {
	date := now.Format("2006-01-02")
	clock := now.Format("15:04")

	var table strings.Builder
	rows := mm.Rows
	if len(rows) > 10 {
		rows = rows[:10]
	}
	for _, r := range rows {
		fmt.Fprintf(&table, "| %s | %d | %d | %.2f | %.2f |\n",
			r.Date, r.Up4Pct, r.Down4Pct, r.Ratio5D, r.Ratio10D)
	}
	tableContent := strings.TrimRight(table.String(), "\n")
	if tableContent == "" {
		tableContent = "| no data |"
	}

	return fmt.Sprintf(`---
title: Market Monitor %[1]s
date: %[1]s
time: %[2]s
type: daily-push
source: stockbee
tags:
  - market-breadth
  - daily-monitor
---

# Market Monitor %[1]s

> Updated: %[2]s
> Source: [Stockbee Market Monitor](%[3]s)

## Data

| Date | Up 4%%+ | Down 4%%+ | 5D Ratio | 10D Ratio |
|------|--------|----------|----------|-----------|
%[4]s

## Analysis

%[5]s

## Indicator notes

- **Up/Down 4%%+**: stocks moving more than 4%% on the day
- **5D/10D ratio**: advance-decline ratio, above 1 means bulls in control
- **Extremes**: up 4%%+ above 500 or below 50 often precedes a turn

## Links

- [Market Monitor](%[3]s)
- [Indicator guide](https://stockbee.blogspot.com/2022/12/market-monitor-scans.html)

---
*generated %[6]s*
`, date, clock, breadthSourceURL, tableContent, analysis, now.Format("2006-01-02 15:04:05"))
}

// MomentumMarkdown renders the watchlist document: new and dropped names,
// the full ranked table with blurbs, and a copy-paste TradingView block.
func MomentumMarkdown(m *scrape.Momentum, analysis string, descriptions map[string]string, now time.Time) string {
	date := now.Format("2006-01-02")
	clock := now.Format("15:04")

	isNew := make(map[string]bool, len(m.NewEntries))
	for _, t := range m.NewEntries {
		isNew[t] = true
	}

	var table strings.Builder
	for i, t := range m.Tickers {
		desc := descriptions[t]
		if desc == "" {
			desc = "-"
		}
		marker := ""
		if isNew[t] {
			marker = " 🆕"
		}
		fmt.Fprintf(&table, "| %d | %s%s | %s |\n", i+1, t, marker, desc)
	}
	tickerTable := strings.TrimRight(table.String(), "\n")
	if tickerTable == "" {
		tickerTable = "| no data |"
	}

	var newSection strings.Builder
	if len(m.NewEntries) > 0 {
		limit := len(m.NewEntries)
		if limit > 10 {
			limit = 10
		}
		for _, t := range m.NewEntries[:limit] {
			fmt.Fprintf(&newSection, "- **%s**: %s\n", t, descriptions[t])
		}
	} else {
		newSection.WriteString("no new entries today\n")
	}

	droppedSection := "none"
	if len(m.Dropped) > 0 {
		dropped := m.Dropped
		if len(dropped) > 10 {
			dropped = dropped[:10]
		}
		droppedSection = strings.Join(dropped, ", ")
	}

	return fmt.Sprintf(`---
title: Momentum 50 %[1]s
date: %[1]s
time: %[2]s
type: daily-push
source: stockbee
tags:
  - momentum
  - watchlist
  - daily-monitor
---

# Momentum 50 %[1]s

> Updated: %[2]s
> Source: [Stockbee Momentum 50](%[3]s)

## Analysis

%[4]s

## New entries 🆕

%[5]s
## Dropped

%[6]s

## Full list

| # | Ticker | About |
|---|--------|-------|
%[7]s

## TradingView Watchlist

<details>
<summary>Copy into TradingView</summary>

`+"```"+`
%[8]s
`+"```"+`

</details>

---
*generated %[9]s*
`, date, clock, momentumSourceURL, analysis, newSection.String(), droppedSection,
		tickerTable, m.TradingViewWatchlist(), now.Format("2006-01-02 15:04:05"))
}
