// Package push runs the daily pipelines: fetch the data, analyze it, render
// the markdown document and chat message, then deliver everything.
package push

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/antigravity-ai/antigravity/pkg/report"
	"github.com/antigravity-ai/antigravity/pkg/scrape"
	"github.com/antigravity-ai/antigravity/pkg/store"
)

// Categories used for document paths and snapshot kinds.
const (
	CategoryMarketMonitor = "MarketMonitor"
	CategoryMomentum      = "Momentum50"
)

// Fetcher is the scrape client surface the pipelines need.
type Fetcher interface {
	FetchMarketMonitor(ctx context.Context) (*scrape.MarketMonitor, error)
	FetchMomentum(ctx context.Context) (*scrape.Momentum, error)
}

// DocSink receives the rendered markdown document. Implemented by the
// GitHub publisher.
type DocSink interface {
	Publish(ctx context.Context, category, content string, date time.Time) error
}

// Messenger delivers the chat message. Implemented by the Telegram client.
type Messenger interface {
	SendMarkdown(ctx context.Context, chatID int64, text string) error
}

// Archiver keeps the local markdown copy.
type Archiver interface {
	Publish(category, content string, date time.Time) (string, error)
}

// Pipeline wires the daily push steps together. Optional sinks may be nil;
// a missing sink skips that delivery with a log line instead of failing.
type Pipeline struct {
	fetcher   Fetcher
	analyst   *report.Analyst
	store     *store.Store
	docs      DocSink
	archive   Archiver
	messenger Messenger
	mail      Mail
	chatID    int64
	vault     string
	logger    *zap.Logger
	now       func() time.Time

	briefLabel    string
	briefLookback time.Duration
}

// Config collects the pipeline collaborators.
type Config struct {
	Fetcher   Fetcher
	Analyst   *report.Analyst
	Store     *store.Store
	Docs      DocSink
	Archive   Archiver
	Messenger Messenger
	Mail      Mail
	ChatID    int64
	Vault     string
	Logger    *zap.Logger
	Now       func() time.Time

	// BriefLabel and BriefLookback scope the newsletter brief. Defaults:
	// the "Newsletter" label, 24 hours back.
	BriefLabel    string
	BriefLookback time.Duration
}

// NewPipeline builds a pipeline. Fetcher and Analyst are required.
func NewPipeline(cfg Config) (*Pipeline, error) {
	if cfg.Fetcher == nil || cfg.Analyst == nil {
		return nil, fmt.Errorf("push: fetcher and analyst are required")
	}
	p := &Pipeline{
		fetcher:       cfg.Fetcher,
		analyst:       cfg.Analyst,
		store:         cfg.Store,
		docs:          cfg.Docs,
		archive:       cfg.Archive,
		messenger:     cfg.Messenger,
		mail:          cfg.Mail,
		chatID:        cfg.ChatID,
		vault:         cfg.Vault,
		logger:        cfg.Logger,
		now:           cfg.Now,
		briefLabel:    cfg.BriefLabel,
		briefLookback: cfg.BriefLookback,
	}
	if p.logger == nil {
		p.logger = zap.NewNop()
	}
	if p.now == nil {
		p.now = time.Now
	}
	if p.vault == "" {
		p.vault = "Antigravity"
	}
	if p.briefLabel == "" {
		p.briefLabel = "Newsletter"
	}
	if p.briefLookback <= 0 {
		p.briefLookback = 24 * time.Hour
	}
	return p, nil
}

// PushMarketMonitor runs the breadth pipeline end to end.
func (p *Pipeline) PushMarketMonitor(ctx context.Context) error {
	now := p.now()

	mm, err := p.fetcher.FetchMarketMonitor(ctx)
	if err != nil {
		p.notify(ctx, "❌ Market Monitor fetch failed")
		pushTotal.WithLabelValues(CategoryMarketMonitor, "fetch_error").Inc()
		return fmt.Errorf("market monitor push: %w", err)
	}

	analysis := p.analyst.MarketBreadth(ctx, mm)
	doc := report.MarketMonitorMarkdown(mm, analysis, now)

	p.archiveDoc(CategoryMarketMonitor, doc, now)
	p.publishDoc(ctx, CategoryMarketMonitor, doc, now)
	p.snapshot(ctx, store.SnapshotMarketMonitor, now, mm)

	msg := report.MarketMonitorMessage(mm, analysis, p.docLink(CategoryMarketMonitor, now), now)
	p.notify(ctx, msg)

	pushTotal.WithLabelValues(CategoryMarketMonitor, "success").Inc()
	p.logger.Info("market monitor push complete")
	return nil
}

// PushMomentum runs the watchlist pipeline end to end. Ticker blurbs are
// fetched only for new entries, since each lookup spends an AI request.
func (p *Pipeline) PushMomentum(ctx context.Context) error {
	now := p.now()

	m, err := p.fetcher.FetchMomentum(ctx)
	if err != nil {
		p.notify(ctx, "❌ Momentum 50 fetch failed")
		pushTotal.WithLabelValues(CategoryMomentum, "fetch_error").Inc()
		return fmt.Errorf("momentum push: %w", err)
	}

	var descriptions map[string]string
	if len(m.NewEntries) > 0 {
		entries := m.NewEntries
		if len(entries) > 10 {
			entries = entries[:10]
		}
		descriptions = p.analyst.TickerDescriptions(ctx, entries)
	}

	analysis := p.analyst.MomentumStocks(ctx, m)
	doc := report.MomentumMarkdown(m, analysis, descriptions, now)

	p.archiveDoc(CategoryMomentum, doc, now)
	p.publishDoc(ctx, CategoryMomentum, doc, now)
	p.snapshot(ctx, store.SnapshotMomentum, now, m)

	msg := report.MomentumMessage(m, analysis, p.docLink(CategoryMomentum, now), now)
	p.notify(ctx, msg)

	pushTotal.WithLabelValues(CategoryMomentum, "success").Inc()
	p.logger.Info("momentum push complete")
	return nil
}

// PushAll runs both pipelines and reports the tally to chat. A failing
// pipeline does not stop the other one.
func (p *Pipeline) PushAll(ctx context.Context) error {
	p.logger.Info("daily push starting")

	var firstErr error
	succeeded := 0
	for _, step := range []func(context.Context) error{p.PushMarketMonitor, p.PushMomentum} {
		if err := step(ctx); err != nil {
			p.logger.Error("push step failed", zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		succeeded++
	}

	p.notify(ctx, fmt.Sprintf("📋 Daily push complete: %d/2 succeeded", succeeded))
	return firstErr
}

func (p *Pipeline) docLink(category string, now time.Time) string {
	return fmt.Sprintf("obsidian://open?vault=%s&file=10_DailyPush/%s/%s",
		p.vault, category, now.Format("2006-01-02"))
}

func (p *Pipeline) archiveDoc(category, doc string, now time.Time) {
	if p.archive == nil {
		return
	}
	if _, err := p.archive.Publish(category, doc, now); err != nil {
		p.logger.Error("local archive failed", zap.String("category", category), zap.Error(err))
	}
}

func (p *Pipeline) publishDoc(ctx context.Context, category, doc string, now time.Time) {
	if p.docs == nil {
		p.logger.Debug("no document sink configured, skipping", zap.String("category", category))
		return
	}
	if err := p.docs.Publish(ctx, category, doc, now); err != nil {
		p.logger.Error("document publish failed", zap.String("category", category), zap.Error(err))
	}
}

func (p *Pipeline) snapshot(ctx context.Context, kind string, now time.Time, payload any) {
	if p.store == nil {
		return
	}
	if err := p.store.SaveSnapshot(ctx, kind, now, payload); err != nil {
		p.logger.Error("snapshot save failed", zap.String("kind", kind), zap.Error(err))
	}
}

func (p *Pipeline) notify(ctx context.Context, text string) {
	if p.messenger == nil {
		return
	}
	if err := p.messenger.SendMarkdown(ctx, p.chatID, text); err != nil {
		p.logger.Error("chat send failed", zap.Error(err))
	}
}
