package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	defaultAddr      = "127.0.0.1:8090"
	defaultPushCron  = "30 18 * * 1-5"
	defaultBriefCron = "0 8 * * *"
	defaultVault     = "Antigravity"
)

// ProviderLimit is one provider's request budget.
type ProviderLimit struct {
	RPM      int
	RPD      int
	Cooldown time.Duration
}

type Config struct {
	DBPath   string
	DataDir  string
	Addr     string
	PushCron string
	Vault    string

	TelegramToken  string
	TelegramChatID int64

	GitHubToken  string
	GitHubRepo   string
	GitHubBranch string

	GmailTokenJSON string
	GmailLabel     string
	GmailLookback  time.Duration
	BriefCron      string

	ZhipuAPIKey     string
	GeminiAPIKey    string
	AnthropicAPIKey string
	DefaultProvider string

	ZhipuLimit  ProviderLimit
	GeminiLimit ProviderLimit
	ClaudeLimit ProviderLimit
}

func LoadConfig(args []string) (Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, fmt.Errorf("failed to get cwd: %w", err)
	}

	dbPath := envOrDefault("ANTIGRAVITY_DB_PATH", filepath.Join(cwd, "antigravity.db"))
	dataDir := envOrDefault("ANTIGRAVITY_DATA_DIR", filepath.Join(cwd, "data"))
	addr := addrFromEnv(defaultAddr)
	pushCron := envOrDefault("ANTIGRAVITY_PUSH_CRON", defaultPushCron)
	vault := envOrDefault("ANTIGRAVITY_VAULT", defaultVault)

	flagSet := flag.NewFlagSet("antigravity", flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	flagDB := flagSet.String("db", dbPath, "path to SQLite database")
	flagDataDir := flagSet.String("data-dir", dataDir, "directory for generated documents")
	flagAddr := flagSet.String("addr", addr, "HTTP listen address")
	flagPushCron := flagSet.String("push-cron", pushCron, "cron spec for the daily push")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			flagSet.SetOutput(os.Stdout)
			flagSet.PrintDefaults()
			return Config{}, err
		}
		return Config{}, err
	}

	config := Config{
		DBPath:   resolvePath(*flagDB, cwd),
		DataDir:  resolvePath(*flagDataDir, cwd),
		Addr:     strings.TrimSpace(*flagAddr),
		PushCron: strings.TrimSpace(*flagPushCron),
		Vault:    vault,

		TelegramToken: os.Getenv("TELEGRAM_TOKEN"),

		GitHubToken:  os.Getenv("GITHUB_TOKEN"),
		GitHubRepo:   os.Getenv("GITHUB_REPO"),
		GitHubBranch: envOrDefault("GITHUB_BRANCH", "main"),

		GmailTokenJSON: os.Getenv("GMAIL_TOKEN_JSON"),
		GmailLabel:     envOrDefault("GMAIL_LABEL", "Newsletter"),
		GmailLookback:  24 * time.Hour,
		BriefCron:      envOrDefault("ANTIGRAVITY_BRIEF_CRON", defaultBriefCron),

		ZhipuAPIKey:     os.Getenv("ZHIPU_API_KEY"),
		GeminiAPIKey:    os.Getenv("GEMINI_API_KEY"),
		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		DefaultProvider: envOrDefault("AI_PROVIDER", "zhipu"),
	}

	if config.Addr == "" {
		return Config{}, errors.New("addr cannot be empty")
	}
	if config.PushCron == "" {
		return Config{}, errors.New("push-cron cannot be empty")
	}

	if raw := os.Getenv("GMAIL_HOURS_BACK"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return Config{}, fmt.Errorf("invalid GMAIL_HOURS_BACK: %q", raw)
		}
		config.GmailLookback = time.Duration(n) * time.Hour
	}

	if raw := os.Getenv("TELEGRAM_CHAT_ID"); raw != "" {
		chatID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return Config{}, fmt.Errorf("invalid TELEGRAM_CHAT_ID: %w", err)
		}
		config.TelegramChatID = chatID
	}

	config.ZhipuLimit, err = limitFromEnv("ZHIPU", ProviderLimit{RPM: 30, Cooldown: 2 * time.Second})
	if err != nil {
		return Config{}, err
	}
	config.GeminiLimit, err = limitFromEnv("GEMINI", ProviderLimit{RPM: 10, Cooldown: 6 * time.Second})
	if err != nil {
		return Config{}, err
	}
	config.ClaudeLimit, err = limitFromEnv("CLAUDE", ProviderLimit{RPM: 5, Cooldown: 10 * time.Second})
	if err != nil {
		return Config{}, err
	}

	switch config.DefaultProvider {
	case "zhipu", "gemini", "claude":
	default:
		return Config{}, fmt.Errorf("unsupported AI_PROVIDER: %s", config.DefaultProvider)
	}

	return config, nil
}

// limitFromEnv reads <PREFIX>_RPM, <PREFIX>_RPD and <PREFIX>_COOLDOWN on top
// of the built-in defaults.
func limitFromEnv(prefix string, def ProviderLimit) (ProviderLimit, error) {
	limit := def
	if raw := os.Getenv(prefix + "_RPM"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return ProviderLimit{}, fmt.Errorf("invalid %s_RPM: %q", prefix, raw)
		}
		limit.RPM = n
	}
	if raw := os.Getenv(prefix + "_RPD"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return ProviderLimit{}, fmt.Errorf("invalid %s_RPD: %q", prefix, raw)
		}
		limit.RPD = n
	}
	if raw := os.Getenv(prefix + "_COOLDOWN"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d < 0 {
			return ProviderLimit{}, fmt.Errorf("invalid %s_COOLDOWN: %q", prefix, raw)
		}
		limit.Cooldown = d
	}
	return limit, nil
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func addrFromEnv(fallback string) string {
	if value := os.Getenv("ANTIGRAVITY_ADDR"); value != "" {
		return value
	}
	if port := os.Getenv("ANTIGRAVITY_PORT"); port != "" {
		return fmt.Sprintf("127.0.0.1:%s", port)
	}
	return fallback
}

func resolvePath(path string, cwd string) string {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return trimmed
	}
	if filepath.IsAbs(trimmed) {
		return trimmed
	}
	return filepath.Join(cwd, trimmed)
}
