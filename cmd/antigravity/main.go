// The antigravity daemon: scheduled market data pushes, a Telegram command
// bot, and an HTTP API over a rate-limited multi-provider AI router.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/antigravity-ai/antigravity/pkg/analyzer"
	"github.com/antigravity-ai/antigravity/pkg/api"
	"github.com/antigravity-ai/antigravity/pkg/bot"
	"github.com/antigravity-ai/antigravity/pkg/gmail"
	"github.com/antigravity-ai/antigravity/pkg/provider"
	"github.com/antigravity-ai/antigravity/pkg/provider/claude"
	"github.com/antigravity-ai/antigravity/pkg/provider/gemini"
	"github.com/antigravity-ai/antigravity/pkg/provider/zhipu"
	"github.com/antigravity-ai/antigravity/pkg/publish"
	"github.com/antigravity-ai/antigravity/pkg/push"
	"github.com/antigravity-ai/antigravity/pkg/report"
	"github.com/antigravity-ai/antigravity/pkg/sched"
	"github.com/antigravity-ai/antigravity/pkg/scrape"
	"github.com/antigravity-ai/antigravity/pkg/store"
	"github.com/antigravity-ai/antigravity/pkg/telegram"
)

func main() {
	cfg, err := LoadConfig(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "antigravity: %v\n", err)
		os.Exit(2)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "antigravity: logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("daemon failed", zap.Error(err))
	}
}

func run(cfg Config, logger *zap.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := store.NewStore(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()
	logger.Info("store initialized", zap.String("path", cfg.DBPath))

	providers, configs, err := buildProviders(ctx, cfg)
	if err != nil {
		return err
	}
	if len(providers) == 0 {
		logger.Warn("no AI provider keys configured, analysis falls back to rules")
	}
	for _, pc := range configs {
		logger.Info("provider configured",
			zap.String("provider", string(pc.Name)),
			zap.Int("rpm", pc.RequestsPerMinute),
			zap.Int("rpd", pc.RequestsPerDay),
			zap.Duration("cooldown", pc.Cooldown))
	}

	router := analyzer.NewRouter(providers, configs,
		analyzer.WithLogger(logger),
		analyzer.WithAudit(st))

	scraper := scrape.NewClient(scrape.WithLogger(logger))
	analyst := report.NewAnalyst(router, logger)

	pipelineCfg := push.Config{
		Fetcher: scraper,
		Analyst: analyst,
		Store:   st,
		Archive: publish.NewLocal(cfg.DataDir, logger),
		ChatID:  cfg.TelegramChatID,
		Vault:   cfg.Vault,
		Logger:  logger,
	}

	if cfg.GitHubToken != "" && cfg.GitHubRepo != "" {
		gh, err := publish.NewGitHub(cfg.GitHubToken, cfg.GitHubRepo, cfg.GitHubBranch)
		if err != nil {
			return fmt.Errorf("github publisher: %w", err)
		}
		pipelineCfg.Docs = gh
		logger.Info("github publisher enabled", zap.String("repo", cfg.GitHubRepo))
	} else {
		logger.Warn("github publishing disabled, documents stay local")
	}

	if cfg.GmailTokenJSON != "" {
		mail, err := gmail.NewClient(ctx, cfg.GmailTokenJSON, gmail.WithLogger(logger))
		if err != nil {
			return fmt.Errorf("gmail client: %w", err)
		}
		pipelineCfg.Mail = mail
		pipelineCfg.BriefLabel = cfg.GmailLabel
		pipelineCfg.BriefLookback = cfg.GmailLookback
		logger.Info("gmail brief enabled", zap.String("label", cfg.GmailLabel))
	} else {
		logger.Warn("gmail brief disabled, no token configured")
	}

	var chat *telegram.Client
	if cfg.TelegramToken != "" {
		chat, err = telegram.NewClient(cfg.TelegramToken, telegram.WithLogger(logger))
		if err != nil {
			return fmt.Errorf("telegram client: %w", err)
		}
		pipelineCfg.Messenger = chat
	} else {
		logger.Warn("telegram disabled, no bot and no chat delivery")
	}

	pipeline, err := push.NewPipeline(pipelineCfg)
	if err != nil {
		return fmt.Errorf("push pipeline: %w", err)
	}

	scheduler := sched.New(time.Local, logger)
	if err := scheduler.Add(cfg.PushCron, "daily-push", pipeline.PushAll); err != nil {
		return err
	}
	if pipelineCfg.Mail != nil {
		if err := scheduler.Add(cfg.BriefCron, "gmail-brief", pipeline.PushBrief); err != nil {
			return err
		}
		logger.Info("gmail brief scheduled", zap.String("cron", cfg.BriefCron))
	}
	scheduler.Start()
	defer scheduler.Stop()
	logger.Info("daily push scheduled", zap.String("cron", cfg.PushCron))

	if chat != nil && cfg.TelegramChatID != 0 {
		b := bot.New(bot.Config{
			Chat:    chat,
			Router:  router,
			Analyst: analyst,
			Scraper: scraper,
			Store:   st,
			Pusher:  pipeline,
			Logger:  logger,
			ChatID:  cfg.TelegramChatID,
		})
		go func() {
			if err := b.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("bot loop exited", zap.Error(err))
			}
		}()
	}

	server := api.NewServer(cfg.Addr, router, st, scheduler, logger)
	server.SetAnalyzer(router)
	server.SetPusher(pipeline)
	server.SetSnapshots(st)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start()
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigs:
		logger.Info("shutdown initiated", zap.String("signal", sig.String()))
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("api server: %w", err)
		}
	}

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Stop(shutdownCtx); err != nil {
		logger.Error("api server shutdown failed", zap.Error(err))
	}
	logger.Info("shutdown complete")
	return nil
}

// buildProviders constructs every provider with a configured API key, the
// preferred one first. The slice order is the router's priority order.
func buildProviders(ctx context.Context, cfg Config) ([]provider.Provider, []analyzer.ProviderConfig, error) {
	order := []string{"zhipu", "gemini", "claude"}
	for i, name := range order {
		if name == cfg.DefaultProvider && i != 0 {
			order[0], order[i] = order[i], order[0]
			break
		}
	}

	var providers []provider.Provider
	var configs []analyzer.ProviderConfig
	for _, name := range order {
		var (
			p     provider.Provider
			limit ProviderLimit
			err   error
		)
		switch name {
		case "zhipu":
			if cfg.ZhipuAPIKey == "" {
				continue
			}
			p, err = zhipu.New(cfg.ZhipuAPIKey)
			limit = cfg.ZhipuLimit
		case "gemini":
			if cfg.GeminiAPIKey == "" {
				continue
			}
			p, err = gemini.New(ctx, cfg.GeminiAPIKey, "")
			limit = cfg.GeminiLimit
		case "claude":
			if cfg.AnthropicAPIKey == "" {
				continue
			}
			p, err = claude.New(cfg.AnthropicAPIKey, "")
			limit = cfg.ClaudeLimit
		}
		if err != nil {
			return nil, nil, fmt.Errorf("build %s provider: %w", name, err)
		}
		providers = append(providers, p)
		configs = append(configs, analyzer.ProviderConfig{
			Name:              p.ID(),
			RequestsPerMinute: limit.RPM,
			RequestsPerDay:    limit.RPD,
			Cooldown:          limit.Cooldown,
		})
	}
	return providers, configs, nil
}
