package push

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/antigravity-ai/antigravity/pkg/analyzer"
	"github.com/antigravity-ai/antigravity/pkg/gmail"
	"github.com/antigravity-ai/antigravity/pkg/provider"
	"github.com/antigravity-ai/antigravity/pkg/report"
	"github.com/antigravity-ai/antigravity/pkg/scrape"
)

type fakeFetcher struct {
	mm    *scrape.MarketMonitor
	mo    *scrape.Momentum
	mmErr error
	moErr error
}

func (f *fakeFetcher) FetchMarketMonitor(ctx context.Context) (*scrape.MarketMonitor, error) {
	return f.mm, f.mmErr
}

func (f *fakeFetcher) FetchMomentum(ctx context.Context) (*scrape.Momentum, error) {
	return f.mo, f.moErr
}

type fakeDocs struct {
	categories []string
	contents   []string
	err        error
}

func (f *fakeDocs) Publish(ctx context.Context, category, content string, date time.Time) error {
	f.categories = append(f.categories, category)
	f.contents = append(f.contents, content)
	return f.err
}

type fakeMessenger struct {
	chatIDs  []int64
	messages []string
}

func (f *fakeMessenger) SendMarkdown(ctx context.Context, chatID int64, text string) error {
	f.chatIDs = append(f.chatIDs, chatID)
	f.messages = append(f.messages, text)
	return nil
}

func noSleep(ctx context.Context, d time.Duration) error { return ctx.Err() }

func testAnalyst(providers ...provider.Provider) *report.Analyst {
	r := analyzer.NewRouter(providers, nil,
		analyzer.WithClock(time.Now, noSleep),
		analyzer.WithRetry(analyzer.RetryConfig{MaxAttempts: 1, Base: 0}))
	return report.NewAnalyst(r, nil)
}

func testData() *fakeFetcher {
	return &fakeFetcher{
		mm: &scrape.MarketMonitor{
			Rows:   []scrape.BreadthRow{{Date: "2/3/2026", Up4Pct: 300, Down4Pct: 150, Ratio5D: 1.3, Ratio10D: 1.1, Up25Qtr: 900, Down25Qtr: 300}},
			Latest: &scrape.BreadthRow{Date: "2/3/2026", Up4Pct: 300, Down4Pct: 150, Ratio5D: 1.3, Ratio10D: 1.1, Up25Qtr: 900, Down25Qtr: 300},
		},
		mo: &scrape.Momentum{
			Date:       "2/3/2026",
			Tickers:    []string{"NVDA", "IONQ"},
			NewEntries: []string{"IONQ"},
		},
	}
}

func TestPushMarketMonitor(t *testing.T) {
	docs := &fakeDocs{}
	msgs := &fakeMessenger{}
	p, err := NewPipeline(Config{
		Fetcher:   testData(),
		Analyst:   testAnalyst(provider.NewMockProvider("zhipu", provider.MockStep{Text: "ai verdict"})),
		Docs:      docs,
		Messenger: msgs,
		ChatID:    77,
		Now:       func() time.Time { return time.Date(2026, 2, 3, 18, 0, 0, 0, time.UTC) },
	})
	require.NoError(t, err)

	require.NoError(t, p.PushMarketMonitor(context.Background()))

	require.Equal(t, []string{CategoryMarketMonitor}, docs.categories)
	assert.Contains(t, docs.contents[0], "ai verdict")
	assert.Contains(t, docs.contents[0], "title: Market Monitor 2026-02-03")

	require.Len(t, msgs.messages, 1)
	assert.Equal(t, int64(77), msgs.chatIDs[0])
	assert.Contains(t, msgs.messages[0], "Market Monitor 2026-02-03")
	assert.Contains(t, msgs.messages[0], "obsidian://open?vault=Antigravity&file=10_DailyPush/MarketMonitor/2026-02-03")
}

func TestPushMarketMonitorFetchFailure(t *testing.T) {
	msgs := &fakeMessenger{}
	p, err := NewPipeline(Config{
		Fetcher:   &fakeFetcher{mmErr: errors.New("csv down")},
		Analyst:   testAnalyst(),
		Messenger: msgs,
	})
	require.NoError(t, err)

	err = p.PushMarketMonitor(context.Background())
	require.Error(t, err)
	require.Len(t, msgs.messages, 1)
	assert.Contains(t, msgs.messages[0], "❌")
}

func TestPushMomentumFetchesBlurbsForNewEntries(t *testing.T) {
	// First call answers the blurb prompt, second the analysis prompt.
	p := provider.NewMockProvider("zhipu",
		provider.MockStep{Text: "IONQ: trapped-ion quantum computing"},
		provider.MockStep{Text: "quantum names rotating in"},
	)
	docs := &fakeDocs{}
	pipe, err := NewPipeline(Config{
		Fetcher: testData(),
		Analyst: testAnalyst(p),
		Docs:    docs,
	})
	require.NoError(t, err)

	require.NoError(t, pipe.PushMomentum(context.Background()))
	require.Len(t, docs.contents, 1)
	assert.Contains(t, docs.contents[0], "IONQ 🆕 | trapped-ion quantum computing")
	assert.Contains(t, docs.contents[0], "quantum names rotating in")
	assert.Equal(t, 2, p.Calls())
}

func TestPushMomentumRuleFallback(t *testing.T) {
	docs := &fakeDocs{}
	pipe, err := NewPipeline(Config{
		Fetcher: testData(),
		Analyst: testAnalyst(),
		Docs:    docs,
	})
	require.NoError(t, err)

	require.NoError(t, pipe.PushMomentum(context.Background()))
	require.Len(t, docs.contents, 1)
	assert.Contains(t, docs.contents[0], "IONQ: needs research")
	assert.Contains(t, docs.contents[0], "unknown", "blurbs fall back to unknown with no provider")
}

func TestPushAllTally(t *testing.T) {
	msgs := &fakeMessenger{}
	pipe, err := NewPipeline(Config{
		Fetcher:   &fakeFetcher{mmErr: errors.New("down"), mo: testData().mo},
		Analyst:   testAnalyst(),
		Messenger: msgs,
	})
	require.NoError(t, err)

	err = pipe.PushAll(context.Background())
	require.Error(t, err, "the failing step's error must surface")

	last := msgs.messages[len(msgs.messages)-1]
	assert.Contains(t, last, "1/2 succeeded")
}

func TestPushDeliveryFailureIsNotFatal(t *testing.T) {
	docs := &fakeDocs{err: errors.New("github 500")}
	pipe, err := NewPipeline(Config{
		Fetcher: testData(),
		Analyst: testAnalyst(),
		Docs:    docs,
	})
	require.NoError(t, err)

	assert.NoError(t, pipe.PushMarketMonitor(context.Background()),
		"a failing document sink must not fail the push")
}

func TestNewPipelineRequiresCore(t *testing.T) {
	_, err := NewPipeline(Config{})
	assert.Error(t, err)
}

type fakeMail struct {
	emails []gmail.Email
	err    error
	labels []string
}

func (f *fakeMail) FetchLabeled(ctx context.Context, label string, lookback time.Duration) ([]gmail.Email, error) {
	f.labels = append(f.labels, label)
	return f.emails, f.err
}

func TestPushBrief(t *testing.T) {
	msgs := &fakeMessenger{}
	mail := &fakeMail{emails: []gmail.Email{
		{Subject: "AI weekly", Sender: `"The Batch" <n@x.com>`, Body: "model news", Link: "https://mail.google.com/mail/u/0/#inbox/a"},
		{Subject: "Macro recap", Sender: "desk@x.com", Body: "rates news", Link: "https://mail.google.com/mail/u/0/#inbox/b"},
	}}
	pipe, err := NewPipeline(Config{
		Fetcher: testData(),
		Analyst: testAnalyst(provider.NewMockProvider("zhipu",
			provider.MockStep{Text: "summary one"},
			provider.MockStep{Text: "summary two"},
			provider.MockStep{Text: "overall take"})),
		Messenger: msgs,
		Mail:      mail,
		ChatID:    77,
		Now:       func() time.Time { return time.Date(2026, 2, 3, 8, 0, 0, 0, time.UTC) },
	})
	require.NoError(t, err)

	require.NoError(t, pipe.PushBrief(context.Background()))
	require.Equal(t, []string{"Newsletter"}, mail.labels, "default label applies")

	require.Len(t, msgs.messages, 1)
	msg := msgs.messages[0]
	assert.Contains(t, msg, "Gmail Brief 2026-02-03")
	assert.Contains(t, msg, "overall take")
	assert.Contains(t, msg, "1. AI weekly")
	assert.Contains(t, msg, "📤 The Batch")
	assert.Contains(t, msg, "summary two")
}

func TestPushBriefEmptyInbox(t *testing.T) {
	msgs := &fakeMessenger{}
	pipe, err := NewPipeline(Config{
		Fetcher:   testData(),
		Analyst:   testAnalyst(),
		Messenger: msgs,
		Mail:      &fakeMail{},
	})
	require.NoError(t, err)

	require.NoError(t, pipe.PushBrief(context.Background()))
	require.Len(t, msgs.messages, 1)
	assert.Contains(t, msgs.messages[0], "No new mail today")
}

func TestPushBriefFetchFailure(t *testing.T) {
	msgs := &fakeMessenger{}
	pipe, err := NewPipeline(Config{
		Fetcher:   testData(),
		Analyst:   testAnalyst(),
		Messenger: msgs,
		Mail:      &fakeMail{err: errors.New("oauth expired")},
	})
	require.NoError(t, err)

	require.Error(t, pipe.PushBrief(context.Background()))
	require.Len(t, msgs.messages, 1)
	assert.Contains(t, msgs.messages[0], "❌")
}

func TestPushBriefWithoutMailSource(t *testing.T) {
	pipe, err := NewPipeline(Config{Fetcher: testData(), Analyst: testAnalyst()})
	require.NoError(t, err)
	assert.Error(t, pipe.PushBrief(context.Background()))
}
