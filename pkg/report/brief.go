package report

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/antigravity-ai/antigravity/pkg/analyzer"
)

// BriefEmail is one summarized newsletter item for the chat brief.
type BriefEmail struct {
	Subject string
	Sender  string
	Summary string
	Link    string
}

// SummarizeEmail condenses one newsletter email into a few sentences. When
// no provider is available it falls back to the message snippet.
func (a *Analyst) SummarizeEmail(ctx context.Context, subject, sender, body, snippet string) string {
	res := a.router.Analyze(ctx, analyzer.Request{Prompt: EmailSummaryPrompt(subject, sender, body)})
	if res.Available {
		return res.Text
	}
	if snippet == "" {
		return "(no summary available)"
	}
	return truncate(snippet, 200)
}

// BriefOverview condenses the per-email summary lines into a short overall
// take. With no provider available it reports the mail count instead.
func (a *Analyst) BriefOverview(ctx context.Context, lines []string, total int) string {
	res := a.router.Analyze(ctx, analyzer.Request{Prompt: BriefOverviewPrompt(lines)})
	if res.Available {
		return res.Text
	}
	return fmt.Sprintf("%d newsletters arrived today", total)
}

// EmailSummaryPrompt asks for a short summary of one email.
func EmailSummaryPrompt(subject, sender, body string) string {
	if len(body) > 3000 {
		body = body[:3000]
	}
	return fmt.Sprintf(`Summarize this email in 2-3 sentences, keeping the key facts and figures:

Subject: %s
From: %s
Content:
%s

Output the summary directly, no preamble.`, subject, sender, body)
}

// BriefOverviewPrompt asks for an overall take across the day's summaries.
func BriefOverviewPrompt(lines []string) string {
	if len(lines) > 10 {
		lines = lines[:10]
	}
	return fmt.Sprintf(`Based on these email summaries, state today's main themes in three sentences (output directly, no preamble):

%s`, strings.Join(lines, "\n"))
}

// GmailBriefMessage renders the chat message for the newsletter brief.
// items is at most the ten newest emails; total is the full count.
func GmailBriefMessage(items []BriefEmail, overview string, total int, now time.Time) string {
	if total == 0 {
		return "📭 *Gmail Brief*\n\nNo new mail today"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📬 *Gmail Brief %s*\n\n", now.Format("2006-01-02"))
	fmt.Fprintf(&b, "📊 *Overview*\n%s\n\n", truncate(overview, 400))

	if len(items) > 10 {
		items = items[:10]
	}
	for i, item := range items {
		sender := item.Sender
		if at := strings.Index(sender, "<"); at > 0 {
			sender = strings.Trim(strings.TrimSpace(sender[:at]), `"`)
		}
		fmt.Fprintf(&b, "*%d. %s*\n📤 %s\n%s\n🔗 [Open](%s)\n\n",
			i+1, truncate(item.Subject, 50), truncate(sender, 20),
			truncate(item.Summary, 150), item.Link)
	}

	if total > len(items) {
		fmt.Fprintf(&b, "_...%d more emails_", total-len(items))
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}
