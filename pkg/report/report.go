// Package report turns scraped market data into analysis text, markdown
// documents, and chat messages. AI-written analysis comes from the analyzer
// router; when no provider is available the rule-based fallbacks produce a
// deterministic summary in the same shape.
package report

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/antigravity-ai/antigravity/pkg/analyzer"
	"github.com/antigravity-ai/antigravity/pkg/scrape"
)

// Analyst produces analysis text for each data source, preferring the AI
// router and falling back to rules.
type Analyst struct {
	router *analyzer.Router
	logger *zap.Logger
}

// NewAnalyst wires the router in. A nil logger defaults to a no-op.
func NewAnalyst(router *analyzer.Router, logger *zap.Logger) *Analyst {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyst{router: router, logger: logger}
}

// MarketBreadth analyzes the breadth snapshot. Never returns empty text.
func (a *Analyst) MarketBreadth(ctx context.Context, mm *scrape.MarketMonitor) string {
	if mm == nil || mm.Latest == nil {
		return "no data available for analysis"
	}
	res := a.router.Analyze(ctx, analyzer.Request{Prompt: BreadthPrompt(*mm.Latest)})
	if res.Available {
		return res.Text
	}
	a.logger.Info("falling back to rule-based breadth analysis")
	return RuleBasedMarketAnalysis(*mm.Latest)
}

// MomentumStocks analyzes the momentum watchlist. Never returns empty text.
func (a *Analyst) MomentumStocks(ctx context.Context, m *scrape.Momentum) string {
	if m == nil || len(m.Tickers) == 0 {
		return "no data available for analysis"
	}
	res := a.router.Analyze(ctx, analyzer.Request{Prompt: MomentumPrompt(m)})
	if res.Available {
		return res.Text
	}
	a.logger.Info("falling back to rule-based momentum analysis")
	return RuleBasedMomentumAnalysis(m)
}

// QuickResearch produces a short research note on a single ticker.
func (a *Analyst) QuickResearch(ctx context.Context, ticker string) string {
	res := a.router.Analyze(ctx, analyzer.Request{Prompt: ResearchPrompt(ticker)})
	if res.Available {
		return res.Text
	}
	return "No AI provider is available right now, try again in a few minutes."
}

// EarningsPreview produces a short pre-earnings checklist for a ticker.
func (a *Analyst) EarningsPreview(ctx context.Context, ticker string) string {
	res := a.router.Analyze(ctx, analyzer.Request{Prompt: EarningsPrompt(ticker)})
	if res.Available {
		return res.Text
	}
	return "No AI provider is available right now, try again in a few minutes."
}

// TickerDescriptions fetches one-line company blurbs for the given tickers.
// Tickers the model does not cover come back as "unknown". With no provider
// available every ticker is "unknown".
func (a *Analyst) TickerDescriptions(ctx context.Context, tickers []string) map[string]string {
	out := make(map[string]string, len(tickers))
	if len(tickers) == 0 {
		return out
	}

	res := a.router.Analyze(ctx, analyzer.Request{Prompt: DescriptionsPrompt(tickers)})
	if res.Available {
		out = ParseDescriptions(res.Text, tickers)
	}
	for _, t := range tickers {
		t = strings.ToUpper(t)
		if out[t] == "" {
			out[t] = "unknown"
		}
	}
	return out
}
