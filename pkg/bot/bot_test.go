package bot

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/antigravity-ai/antigravity/pkg/analyzer"
	"github.com/antigravity-ai/antigravity/pkg/provider"
	"github.com/antigravity-ai/antigravity/pkg/report"
	"github.com/antigravity-ai/antigravity/pkg/scrape"
	"github.com/antigravity-ai/antigravity/pkg/store"
	"github.com/antigravity-ai/antigravity/pkg/telegram"
)

type fakeChat struct {
	mu      sync.Mutex
	sent    []string
	chatIDs []int64
	updates [][]telegram.Update
}

func (f *fakeChat) SendMarkdown(ctx context.Context, chatID int64, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chatIDs = append(f.chatIDs, chatID)
	f.sent = append(f.sent, text)
	return nil
}

func (f *fakeChat) GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]telegram.Update, error) {
	f.mu.Lock()
	if len(f.updates) > 0 {
		batch := f.updates[0]
		f.updates = f.updates[1:]
		f.mu.Unlock()
		return batch, nil
	}
	f.mu.Unlock()
	<-ctx.Done()
	return nil, ctx.Err()
}

func (f *fakeChat) messages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.sent))
	copy(out, f.sent)
	return out
}

func noSleep(ctx context.Context, d time.Duration) error { return ctx.Err() }

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.NewStore(filepath.Join(t.TempDir(), "bot.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func newTestBot(t *testing.T, providers ...provider.Provider) (*Bot, *store.Store) {
	t.Helper()
	router := analyzer.NewRouter(providers,
		[]analyzer.ProviderConfig{{Name: "zhipu", RequestsPerMinute: 30}},
		analyzer.WithClock(time.Now, noSleep),
		analyzer.WithRetry(analyzer.RetryConfig{MaxAttempts: 1, Base: 0}))
	st := newTestStore(t)
	b := New(Config{
		Chat:    &fakeChat{},
		Router:  router,
		Analyst: report.NewAnalyst(router, nil),
		Store:   st,
		Now:     func() time.Time { return time.Date(2026, 2, 3, 9, 30, 0, 0, time.UTC) },
	})
	return b, st
}

func TestDispatchPing(t *testing.T) {
	b, _ := newTestBot(t)
	got := b.Dispatch(context.Background(), "/ping")
	assert.Contains(t, got, "Pong")
	assert.Contains(t, got, "2026-02-03 09:30:00")
}

func TestDispatchUnknownCommand(t *testing.T) {
	b, _ := newTestBot(t)
	got := b.Dispatch(context.Background(), "/frobnicate")
	assert.Contains(t, got, "Unknown command")
}

func TestDispatchStripsBotMention(t *testing.T) {
	b, _ := newTestBot(t)
	got := b.Dispatch(context.Background(), "/ping@antigravity_bot")
	assert.Contains(t, got, "Pong")
}

func TestDispatchFreeTextNudge(t *testing.T) {
	b, _ := newTestBot(t)
	got := b.Dispatch(context.Background(), "how is NVDA doing")
	assert.Contains(t, got, "/status")
}

func TestTrackAndPosition(t *testing.T) {
	b, _ := newTestBot(t)
	ctx := context.Background()

	got := b.Dispatch(ctx, "/track shop entry near 90")
	assert.Contains(t, got, "`SHOP`")

	got = b.Dispatch(ctx, "/position")
	assert.Contains(t, got, "`SHOP`")
	assert.Contains(t, got, "entry near 90")

	got = b.Dispatch(ctx, "/untrack SHOP")
	assert.Contains(t, got, "Stopped tracking")

	got = b.Dispatch(ctx, "/position")
	assert.Contains(t, got, "Nothing tracked")
}

func TestIdeaCapture(t *testing.T) {
	b, st := newTestBot(t)
	ctx := context.Background()

	got := b.Dispatch(ctx, "/idea IONQ breakout watch over 60")
	assert.Contains(t, got, "✅ Logged for IONQ")

	ideas, err := st.RecentIdeas(ctx, 5)
	require.NoError(t, err)
	require.Len(t, ideas, 1)
	assert.Equal(t, "IONQ: breakout watch over 60", ideas[0].Text)

	got = b.Dispatch(ctx, "/idea IONQ")
	assert.Contains(t, got, "Format:")
}

func TestStatusProviders(t *testing.T) {
	p := provider.NewMockProvider("zhipu", provider.MockStep{Text: "ok"})
	b, _ := newTestBot(t, p)

	// Spend one request so the counters show.
	b.router.Analyze(context.Background(), analyzer.Request{Prompt: "q"})

	got := b.Dispatch(context.Background(), "/status")
	assert.Contains(t, got, "*zhipu*")
	assert.Contains(t, got, "minute: 1/30")
}

func TestStatusTicker(t *testing.T) {
	b, st := newTestBot(t)
	ctx := context.Background()

	day := time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC)
	require.NoError(t, st.SaveSnapshot(ctx, store.SnapshotMomentum, day, scrape.Momentum{
		Date:       "2/3/2026",
		Tickers:    []string{"NVDA", "IONQ"},
		NewEntries: []string{"IONQ"},
	}))
	require.NoError(t, st.TrackTicker(ctx, "IONQ", "quantum"))

	got := b.Dispatch(ctx, "/status ionq")
	assert.Contains(t, got, "rank 2")
	assert.Contains(t, got, "🆕")
	assert.Contains(t, got, "📌 Tracked: quantum")

	got = b.Dispatch(ctx, "/status TSLA")
	assert.Contains(t, got, "Not on the Momentum 50 list")
}

func TestResearchUsesProvider(t *testing.T) {
	p := provider.NewMockProvider("zhipu", provider.MockStep{Text: "1. Business: quantum computing"})
	b, _ := newTestBot(t, p)

	got := b.Dispatch(context.Background(), "/research ionq")
	assert.Contains(t, got, "*IONQ*")
	assert.Contains(t, got, "quantum computing")
}

func TestResearchUnavailable(t *testing.T) {
	b, _ := newTestBot(t)
	got := b.Dispatch(context.Background(), "/research IONQ")
	assert.Contains(t, got, "No AI provider is available")
}

func TestRunDispatchesAndAdvancesOffset(t *testing.T) {
	chat := &fakeChat{
		updates: [][]telegram.Update{{
			{UpdateID: 10, Message: &telegram.Message{Chat: telegram.Chat{ID: 5}, Text: "/ping"}},
		}},
	}
	b := New(Config{Chat: chat})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- b.Run(ctx) }()

	require.Eventually(t, func() bool { return len(chat.messages()) == 1 }, time.Second, 10*time.Millisecond)
	assert.Contains(t, chat.messages()[0], "Pong")

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestRunIgnoresForeignChat(t *testing.T) {
	chat := &fakeChat{
		updates: [][]telegram.Update{{
			{UpdateID: 1, Message: &telegram.Message{Chat: telegram.Chat{ID: 999}, Text: "/ping"}},
			{UpdateID: 2, Message: &telegram.Message{Chat: telegram.Chat{ID: 5}, Text: "/ping"}},
		}},
	}
	b := New(Config{Chat: chat, ChatID: 5})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	go b.Run(ctx)

	require.Eventually(t, func() bool { return len(chat.messages()) == 1 }, time.Second, 10*time.Millisecond)
	chat.mu.Lock()
	defer chat.mu.Unlock()
	assert.Equal(t, []int64{5}, chat.chatIDs, "only the configured chat gets replies")
}
