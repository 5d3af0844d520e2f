package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/antigravity-ai/antigravity/pkg/scrape"
)

// MarketMonitorMessage renders the compact chat message for the breadth
// push. The mood marker follows the 5-day ratio.
func MarketMonitorMessage(mm *scrape.MarketMonitor, analysis, docLink string, now time.Time) string {
	latest := mm.Latest
	date := now.Format("2006-01-02")

	mood := "🟡"
	switch {
	case latest.Ratio5D > 1.2:
		mood = "🟢"
	case latest.Ratio5D < 0.8:
		mood = "🔴"
	}

	msg := fmt.Sprintf(`%s *Market Monitor %s*

📈 Up 4%%+: `+"`%d`"+` | 📉 Down 4%%+: `+"`%d`"+`
📊 5D: `+"`%.2f`"+` | 10D: `+"`%.2f`"+`

*Analysis:*
%s

🔗 [Details](%s)`,
		mood, date, latest.Up4Pct, latest.Down4Pct, latest.Ratio5D, latest.Ratio10D,
		truncate(analysis, 500), breadthSourceURL)

	if docLink != "" {
		msg += fmt.Sprintf("\n📝 [Note](%s)", docLink)
	}
	return msg
}

// MomentumMessage renders the compact chat message for the watchlist push.
func MomentumMessage(m *scrape.Momentum, analysis, docLink string, now time.Time) string {
	date := now.Format("2006-01-02")

	top := m.Tickers
	if len(top) > 10 {
		top = top[:10]
	}
	preview := make([]string, 0, len(top))
	for _, t := range top {
		preview = append(preview, "`"+t+"`")
	}

	newSection := ""
	if len(m.NewEntries) > 0 {
		entries := m.NewEntries
		if len(entries) > 5 {
			entries = entries[:5]
		}
		marked := make([]string, 0, len(entries))
		for _, t := range entries {
			marked = append(marked, "`"+t+"`")
		}
		newSection = fmt.Sprintf("\n🆕 *New:* %s", strings.Join(marked, " "))
	}

	msg := fmt.Sprintf(`🚀 *Momentum 50 %s*

*Top 10:*
%s
%s

*Analysis:*
%s

🔗 [Full list](%s)`,
		date, strings.Join(preview, " "), newSection, truncate(analysis, 400), momentumSourceURL)

	if docLink != "" {
		msg += fmt.Sprintf("\n📝 [Note](%s)", docLink)
	}
	return msg
}

// truncate cuts at a rune boundary so multi-byte text never splits.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
