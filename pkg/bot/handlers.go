package bot

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/antigravity-ai/antigravity/pkg/scrape"
	"github.com/antigravity-ai/antigravity/pkg/store"
)

func (b *Bot) handleStart(ctx context.Context, args string) string {
	return `🚀 *Antigravity Assistant*

Commands:
/status [TICKER] - provider budgets, or a ticker's standing
/brief - today's market breadth brief
/week - momentum watchlist summary
/help - full command list

Or just send a message and I'll try to point you somewhere useful.`
}

func (b *Bot) handleHelp(ctx context.Context, args string) string {
	return `📋 *Commands*

*Queries:*
/status - AI provider budget status
/status TICKER - where a ticker stands
/brief - today's market breadth brief
/week - momentum watchlist summary
/position - tracked tickers

*Actions:*
/research TICKER - quick AI research note
/preview TICKER - earnings preview
/push - run the daily push now

*Capture:*
/track TICKER [note] - track a ticker
/untrack TICKER - stop tracking
/idea TICKER your thought - log an idea

*System:*
/ping - liveness check
/help - this list`
}

func (b *Bot) handlePing(ctx context.Context, args string) string {
	return fmt.Sprintf("🏓 Pong!\nUp and running.\nTime: %s", b.now().Format("2006-01-02 15:04:05"))
}

// handleStatus without args reports the provider limiter occupancy; with a
// ticker it reports that ticker's standing on the latest watchlist snapshot.
func (b *Bot) handleStatus(ctx context.Context, args string) string {
	if args == "" {
		return b.providerStatus()
	}
	return b.tickerStatus(ctx, strings.ToUpper(strings.Fields(args)[0]))
}

func (b *Bot) providerStatus() string {
	if b.router == nil {
		return "No AI providers configured."
	}
	statuses := b.router.Status()
	if len(statuses) == 0 {
		return "No AI providers configured."
	}

	var sb strings.Builder
	sb.WriteString("🤖 *AI providers*\n")
	for _, s := range statuses {
		sb.WriteString(fmt.Sprintf("\n*%s*\n", s.Name))
		if s.MinuteLimit > 0 {
			sb.WriteString(fmt.Sprintf("  minute: %d/%d\n", s.MinuteCount, s.MinuteLimit))
		}
		if s.DayLimit > 0 {
			sb.WriteString(fmt.Sprintf("  day: %d/%d\n", s.DayCount, s.DayLimit))
		}
		if !s.LastRequestAt.IsZero() {
			sb.WriteString(fmt.Sprintf("  last request: %s\n", s.LastRequestAt.Format("15:04:05")))
		}
	}
	return sb.String()
}

func (b *Bot) tickerStatus(ctx context.Context, ticker string) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📊 *%s*\n", ticker))

	if b.store != nil {
		var m scrape.Momentum
		found, err := b.store.LatestSnapshot(ctx, store.SnapshotMomentum, &m)
		if err != nil {
			b.logger.Warn("snapshot load failed", zap.Error(err))
		}
		if found {
			rank := 0
			for i, t := range m.Tickers {
				if t == ticker {
					rank = i + 1
					break
				}
			}
			if rank > 0 {
				sb.WriteString(fmt.Sprintf("\nMomentum 50: rank %d (as of %s)", rank, m.Date))
				for _, t := range m.NewEntries {
					if t == ticker {
						sb.WriteString(" 🆕")
						break
					}
				}
			} else {
				sb.WriteString(fmt.Sprintf("\nNot on the Momentum 50 list (as of %s)", m.Date))
			}
		}

		tracked, err := b.store.TrackedTickers(ctx)
		if err == nil {
			for _, t := range tracked {
				if t.Ticker == ticker {
					sb.WriteString("\n📌 Tracked")
					if t.Note != "" {
						sb.WriteString(": " + t.Note)
					}
					break
				}
			}
		}
	}
	return sb.String()
}

// handleBrief fetches today's breadth data and replies with the analysis
// inline, without going through the full push pipeline.
func (b *Bot) handleBrief(ctx context.Context, args string) string {
	if b.scraper == nil || b.analyst == nil {
		return "Brief is not configured."
	}
	mm, err := b.scraper.FetchMarketMonitor(ctx)
	if err != nil {
		b.logger.Error("brief fetch failed", zap.Error(err))
		return "❌ Could not fetch market data right now."
	}
	analysis := b.analyst.MarketBreadth(ctx, mm)
	latest := mm.Latest
	return fmt.Sprintf(`🌅 *Market brief %s*

📈 Up 4%%+: %d | 📉 Down 4%%+: %d
📊 5D: %.2f | 10D: %.2f

%s`, b.now().Format("2006-01-02"),
		latest.Up4Pct, latest.Down4Pct, latest.Ratio5D, latest.Ratio10D, analysis)
}

// handleWeek summarizes the momentum watchlist: leaders, churn, new names.
func (b *Bot) handleWeek(ctx context.Context, args string) string {
	if b.scraper == nil {
		return "Watchlist is not configured."
	}
	m, err := b.scraper.FetchMomentum(ctx)
	if err != nil {
		b.logger.Error("week fetch failed", zap.Error(err))
		return "❌ Could not fetch the watchlist right now."
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📅 *Momentum week view (%s)*\n", m.Date))

	top := m.Tickers
	if len(top) > 10 {
		top = top[:10]
	}
	sb.WriteString("\n*Top 10:* " + strings.Join(top, " "))

	if a := scrape.AnalyzeMomentum(m); a != nil {
		sb.WriteString(fmt.Sprintf("\n*Turnover:* %.0f%%", a.TurnoverRate*100))
		if len(a.PersistentLeaders) > 0 {
			sb.WriteString("\n*Holding their spot:* " + strings.Join(a.PersistentLeaders, " "))
		}
	}
	if len(m.NewEntries) > 0 {
		sb.WriteString("\n🆕 *New:* " + strings.Join(m.NewEntries, " "))
	}
	return sb.String()
}

func (b *Bot) handlePosition(ctx context.Context, args string) string {
	if b.store == nil {
		return "Tracking is not configured."
	}
	tracked, err := b.store.TrackedTickers(ctx)
	if err != nil {
		b.logger.Error("position query failed", zap.Error(err))
		return "❌ Could not read the watchlist."
	}
	if len(tracked) == 0 {
		return "💼 Nothing tracked yet. Use /track TICKER to start."
	}

	var sb strings.Builder
	sb.WriteString("💼 *Tracked tickers*\n")
	for _, t := range tracked {
		sb.WriteString("\n`" + t.Ticker + "`")
		if t.Note != "" {
			sb.WriteString(" - " + t.Note)
		}
	}
	return sb.String()
}

func (b *Bot) handleResearch(ctx context.Context, args string) string {
	if args == "" {
		return "Give me a ticker, e.g. /research SHOP"
	}
	if b.analyst == nil {
		return "Research is not configured."
	}
	ticker := strings.ToUpper(strings.Fields(args)[0])
	return fmt.Sprintf("🔍 *%s*\n\n%s", ticker, b.analyst.QuickResearch(ctx, ticker))
}

func (b *Bot) handlePreview(ctx context.Context, args string) string {
	if args == "" {
		return "Give me a ticker, e.g. /preview AMZN"
	}
	if b.analyst == nil {
		return "Previews are not configured."
	}
	ticker := strings.ToUpper(strings.Fields(args)[0])
	return fmt.Sprintf("📈 *%s earnings preview*\n\n%s", ticker, b.analyst.EarningsPreview(ctx, ticker))
}

func (b *Bot) handleTrack(ctx context.Context, args string) string {
	if args == "" {
		return "Give me a ticker, e.g. /track SHOP entry near 90"
	}
	if b.store == nil {
		return "Tracking is not configured."
	}
	fields := strings.Fields(args)
	ticker := strings.ToUpper(fields[0])
	note := strings.Join(fields[1:], " ")

	if err := b.store.TrackTicker(ctx, ticker, note); err != nil {
		b.logger.Error("track failed", zap.Error(err))
		return "❌ Could not save that."
	}
	return fmt.Sprintf("📡 Tracking `%s`", ticker)
}

func (b *Bot) handleUntrack(ctx context.Context, args string) string {
	if args == "" {
		return "Give me a ticker, e.g. /untrack SHOP"
	}
	if b.store == nil {
		return "Tracking is not configured."
	}
	ticker := strings.ToUpper(strings.Fields(args)[0])
	removed, err := b.store.UntrackTicker(ctx, ticker)
	if err != nil {
		b.logger.Error("untrack failed", zap.Error(err))
		return "❌ Could not do that."
	}
	if !removed {
		return fmt.Sprintf("`%s` was not tracked.", ticker)
	}
	return fmt.Sprintf("Stopped tracking `%s`.", ticker)
}

func (b *Bot) handleIdea(ctx context.Context, args string) string {
	fields := strings.Fields(args)
	if len(fields) < 2 {
		return "Format: /idea TICKER your thought"
	}
	if b.store == nil {
		return "Ideas are not configured."
	}
	ticker := strings.ToUpper(fields[0])
	content := strings.Join(fields[1:], " ")

	if err := b.store.AddIdea(ctx, ticker+": "+content); err != nil {
		b.logger.Error("idea save failed", zap.Error(err))
		return "❌ Could not save that."
	}
	return fmt.Sprintf("✅ Logged for %s\n📝 %s\n⏰ %s",
		ticker, content, b.now().Format("2006-01-02 15:04"))
}

func (b *Bot) handlePush(ctx context.Context, args string) string {
	if b.pusher == nil {
		return "Push is not configured."
	}
	go func() {
		// Detached: a full push takes minutes with AI backoff in play.
		if err := b.pusher.PushAll(context.WithoutCancel(ctx)); err != nil {
			b.logger.Error("manual push failed", zap.Error(err))
		}
	}()
	return "📤 Daily push started, results will arrive here."
}
