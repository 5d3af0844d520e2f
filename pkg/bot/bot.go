// Package bot runs the Telegram command loop: long-poll for updates,
// dispatch commands, reply. Commands cover queries (status, brief, week),
// actions (research, preview, push), and quick capture (track, idea).
package bot

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/antigravity-ai/antigravity/pkg/analyzer"
	"github.com/antigravity-ai/antigravity/pkg/report"
	"github.com/antigravity-ai/antigravity/pkg/scrape"
	"github.com/antigravity-ai/antigravity/pkg/store"
	"github.com/antigravity-ai/antigravity/pkg/telegram"
)

const pollTimeout = 30 * time.Second

// Chat is the Telegram surface the bot needs. Satisfied by telegram.Client.
type Chat interface {
	SendMarkdown(ctx context.Context, chatID int64, text string) error
	GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]telegram.Update, error)
}

// Pusher triggers the daily pipelines on demand.
type Pusher interface {
	PushAll(ctx context.Context) error
}

// Handler answers one command. args is the text after the command word.
type Handler func(ctx context.Context, args string) string

// Bot dispatches chat commands against the assistant's collaborators.
type Bot struct {
	chat    Chat
	router  *analyzer.Router
	analyst *report.Analyst
	scraper *scrape.Client
	store   *store.Store
	pusher  Pusher
	logger  *zap.Logger
	chatID  int64
	now     func() time.Time

	handlers map[string]Handler
}

// Config collects the bot collaborators. ChatID, when set, restricts the
// bot to that single conversation; other chats are ignored.
type Config struct {
	Chat    Chat
	Router  *analyzer.Router
	Analyst *report.Analyst
	Scraper *scrape.Client
	Store   *store.Store
	Pusher  Pusher
	Logger  *zap.Logger
	ChatID  int64
	Now     func() time.Time
}

// New builds the bot and registers its command table.
func New(cfg Config) *Bot {
	b := &Bot{
		chat:    cfg.Chat,
		router:  cfg.Router,
		analyst: cfg.Analyst,
		scraper: cfg.Scraper,
		store:   cfg.Store,
		pusher:  cfg.Pusher,
		logger:  cfg.Logger,
		chatID:  cfg.ChatID,
		now:     cfg.Now,
	}
	if b.logger == nil {
		b.logger = zap.NewNop()
	}
	if b.now == nil {
		b.now = time.Now
	}
	b.handlers = map[string]Handler{
		"start":    b.handleStart,
		"help":     b.handleHelp,
		"ping":     b.handlePing,
		"status":   b.handleStatus,
		"brief":    b.handleBrief,
		"week":     b.handleWeek,
		"position": b.handlePosition,
		"research": b.handleResearch,
		"preview":  b.handlePreview,
		"track":    b.handleTrack,
		"untrack":  b.handleUntrack,
		"idea":     b.handleIdea,
		"push":     b.handlePush,
	}
	return b
}

// Run long-polls until the context is cancelled. Poll errors back off and
// retry; the loop only exits on cancellation.
func (b *Bot) Run(ctx context.Context) error {
	b.logger.Info("bot loop starting")
	var offset int64
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		updates, err := b.chat.GetUpdates(ctx, offset, pollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			b.logger.Warn("poll failed, backing off", zap.Error(err))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(5 * time.Second):
			}
			continue
		}

		for _, u := range updates {
			if u.UpdateID >= offset {
				offset = u.UpdateID + 1
			}
			b.handleUpdate(ctx, u)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, u telegram.Update) {
	if u.Message == nil || u.Message.Text == "" {
		return
	}
	msg := u.Message
	if b.chatID != 0 && msg.Chat.ID != b.chatID {
		b.logger.Warn("ignoring message from unknown chat", zap.Int64("chat_id", msg.Chat.ID))
		return
	}

	reply := b.Dispatch(ctx, msg.Text)
	if reply == "" {
		return
	}
	if err := b.chat.SendMarkdown(ctx, msg.Chat.ID, reply); err != nil {
		b.logger.Error("reply failed", zap.Error(err))
	}
}

// Dispatch resolves one message to its reply text. Non-command messages get
// the intent nudge.
func (b *Bot) Dispatch(ctx context.Context, text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return b.handleFreeText(text)
	}

	cmd, args, _ := strings.Cut(text[1:], " ")
	// Group chats address commands as /cmd@botname.
	cmd, _, _ = strings.Cut(strings.ToLower(cmd), "@")

	handler, ok := b.handlers[cmd]
	if !ok {
		return "Unknown command. Use /help to see what I can do."
	}

	b.logger.Info("command", zap.String("cmd", cmd))
	return handler(ctx, strings.TrimSpace(args))
}

// handleFreeText is the minimal intent fallback: spot a likely ticker and
// point at /status, otherwise point at /help.
func (b *Bot) handleFreeText(text string) string {
	for _, word := range strings.Fields(strings.ToUpper(text)) {
		if len(word) >= 2 && len(word) <= 5 && isAllLetters(word) {
			return "Did you want to check " + word + "?\nTry: /status " + word
		}
	}
	return "🤔 I don't understand that yet.\nUse /help to see the available commands."
}

func isAllLetters(s string) bool {
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
