package push

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/antigravity-ai/antigravity/pkg/gmail"
	"github.com/antigravity-ai/antigravity/pkg/report"
)

// CategoryBrief labels the newsletter brief in metrics.
const CategoryBrief = "GmailBrief"

// Mail is the inbox surface the brief pipeline needs. Implemented by the
// Gmail client.
type Mail interface {
	FetchLabeled(ctx context.Context, label string, lookback time.Duration) ([]gmail.Email, error)
}

// PushBrief fetches labeled newsletter mail, summarizes each message, and
// delivers the digest to chat. The brief is chat-only; nothing is written
// to the document sinks.
func (p *Pipeline) PushBrief(ctx context.Context) error {
	if p.mail == nil {
		return fmt.Errorf("push: no mail source configured")
	}

	emails, err := p.mail.FetchLabeled(ctx, p.briefLabel, p.briefLookback)
	if err != nil {
		pushTotal.WithLabelValues(CategoryBrief, "fetch_error").Inc()
		p.notify(ctx, "❌ Gmail brief fetch failed")
		return fmt.Errorf("brief fetch: %w", err)
	}

	limit := len(emails)
	if limit > 10 {
		limit = 10
	}
	items := make([]report.BriefEmail, 0, limit)
	lines := make([]string, 0, limit)
	for _, e := range emails[:limit] {
		summary := p.analyst.SummarizeEmail(ctx, e.Subject, e.Sender, e.Body, e.Snippet)
		items = append(items, report.BriefEmail{
			Subject: e.Subject,
			Sender:  e.Sender,
			Summary: summary,
			Link:    e.Link,
		})
		lines = append(lines, fmt.Sprintf("- [%s] %s", e.Subject, summary))
	}

	var overview string
	if len(emails) > 0 {
		overview = p.analyst.BriefOverview(ctx, lines, len(emails))
	}

	p.notify(ctx, report.GmailBriefMessage(items, overview, len(emails), p.now()))
	pushTotal.WithLabelValues(CategoryBrief, "success").Inc()
	p.logger.Info("gmail brief pushed", zap.Int("emails", len(emails)))
	return nil
}
