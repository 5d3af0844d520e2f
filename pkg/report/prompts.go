package report

import (
	"fmt"
	"strings"

	"github.com/antigravity-ai/antigravity/pkg/scrape"
)

// BreadthPrompt asks for a four-line verdict on the latest breadth numbers.
// The strict output format keeps downstream chat rendering predictable.
func BreadthPrompt(latest scrape.BreadthRow) string {
	return fmt.Sprintf(`Analyze this US market breadth data. Output conclusions directly, no preamble.

[Short-term] up 4%%+: %d | down 4%%+: %d | 5-day ratio: %.2f | 10-day ratio: %.2f
[Mid-term] up 25%%+ qtr: %d | down 25%%+ qtr: %d

Output format (follow exactly, no trailing periods):
1. Short-term: [strong/weak/choppy] - [brief reason]
2. Mid-term: [strong/weak] - [brief verdict from quarterly data]
3. Signal: [none, or the specific extreme signal]
4. Advice: [wait/add/reduce] - [brief advice, under 15 words]

Extreme signal rules:
- up 25%%+ qtr below 350: bottoming zone
- up 4%%+ above 1000 with 5-day ratio above 2: overheated`,
		latest.Up4Pct, latest.Down4Pct, latest.Ratio5D, latest.Ratio10D,
		latest.Up25Qtr, latest.Down25Qtr)
}

// MomentumPrompt asks for sector distribution and one-liners on new entries.
func MomentumPrompt(m *scrape.Momentum) string {
	top := m.Tickers
	if len(top) > 20 {
		top = top[:20]
	}
	return fmt.Sprintf(`You are a momentum trading analyst. Analyze this top-50 momentum list:

Date: %s
Top 20: %s
New today: %s
Dropped today: %s

Provide a brief, mobile-friendly analysis:
1. Sector mix: which sectors dominate (1-2 sentences)
2. New entries: one line each, format "TICKER: [what the company does]. Watch: [the angle]"

Rules:
- Write "unknown" for any ticker you do not know. Never invent facts.
- Output directly, no preamble.`,
		m.Date, strings.Join(top, ", "), joinOrNone(m.NewEntries, 10), joinOrNone(m.Dropped, 10))
}

// DescriptionsPrompt asks for a strict "TICKER: blurb" line per symbol.
func DescriptionsPrompt(tickers []string) string {
	if len(tickers) > 15 {
		tickers = tickers[:15]
	}
	return fmt.Sprintf(`Give a short description for each of these US stocks (10-15 words, core business only):

%s

Format (follow exactly):
TICKER: description

Example:
AAPL: iPhone and consumer electronics giant
NVDA: leading AI chip and GPU maker

Write "TICKER: unknown" for any you do not know.
Output only the formatted lines, nothing else.`, strings.Join(tickers, ", "))
}

// ResearchPrompt asks for a compact research note on one ticker.
func ResearchPrompt(ticker string) string {
	return fmt.Sprintf(`You are an equity research analyst. Write a compact research note on %s:

1. Business: what the company does (1-2 sentences)
2. Thesis: the bull case in one sentence
3. Risks: the main bear point in one sentence
4. Watch: what to monitor next

Rules:
- Write "unknown" for anything you do not know. Never invent numbers.
- Keep it under 120 words, mobile-friendly.
- Output directly, no preamble.`, ticker)
}

// EarningsPrompt asks for a pre-earnings checklist on one ticker.
func EarningsPrompt(ticker string) string {
	return fmt.Sprintf(`You are an equity analyst preparing for %s's next earnings report. Write a brief preview:

1. Key metrics the market will focus on
2. What would count as a beat, what as a miss
3. The main risk into the print

Rules:
- Write "unknown" where you lack the facts. Never invent guidance figures.
- Keep it under 100 words.
- Output directly, no preamble.`, ticker)
}

// ParseDescriptions pulls "TICKER: blurb" lines out of a model response,
// keeping only tickers that were actually asked about.
func ParseDescriptions(text string, tickers []string) map[string]string {
	asked := make(map[string]struct{}, len(tickers))
	for _, t := range tickers {
		asked[strings.ToUpper(t)] = struct{}{}
	}

	out := make(map[string]string)
	for _, line := range strings.Split(text, "\n") {
		ticker, desc, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		ticker = strings.ToUpper(strings.TrimSpace(ticker))
		desc = strings.TrimSpace(desc)
		if _, want := asked[ticker]; want && desc != "" {
			out[ticker] = desc
		}
	}
	return out
}

func joinOrNone(items []string, max int) string {
	if len(items) == 0 {
		return "none"
	}
	if len(items) > max {
		items = items[:max]
	}
	return strings.Join(items, ", ")
}
