package main

import (
	"strings"
	"testing"
	"time"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(nil)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Addr != defaultAddr {
		t.Errorf("Addr = %q, want %q", cfg.Addr, defaultAddr)
	}
	if cfg.PushCron != defaultPushCron {
		t.Errorf("PushCron = %q, want %q", cfg.PushCron, defaultPushCron)
	}
	if cfg.Vault != defaultVault {
		t.Errorf("Vault = %q, want %q", cfg.Vault, defaultVault)
	}
	if cfg.DefaultProvider != "zhipu" {
		t.Errorf("DefaultProvider = %q, want zhipu", cfg.DefaultProvider)
	}
	if !strings.HasSuffix(cfg.DBPath, "antigravity.db") {
		t.Errorf("DBPath = %q", cfg.DBPath)
	}

	if cfg.ZhipuLimit.RPM != 30 || cfg.ZhipuLimit.Cooldown != 2*time.Second {
		t.Errorf("ZhipuLimit = %+v", cfg.ZhipuLimit)
	}
	if cfg.GeminiLimit.RPM != 10 || cfg.GeminiLimit.Cooldown != 6*time.Second {
		t.Errorf("GeminiLimit = %+v", cfg.GeminiLimit)
	}

	if cfg.GmailLabel != "Newsletter" {
		t.Errorf("GmailLabel = %q, want Newsletter", cfg.GmailLabel)
	}
	if cfg.GmailLookback != 24*time.Hour {
		t.Errorf("GmailLookback = %v, want 24h", cfg.GmailLookback)
	}
	if cfg.BriefCron != defaultBriefCron {
		t.Errorf("BriefCron = %q, want %q", cfg.BriefCron, defaultBriefCron)
	}
}

func TestLoadConfig_GmailLookback(t *testing.T) {
	t.Setenv("GMAIL_HOURS_BACK", "48")

	cfg, err := LoadConfig(nil)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.GmailLookback != 48*time.Hour {
		t.Errorf("GmailLookback = %v, want 48h", cfg.GmailLookback)
	}
}

func TestLoadConfig_FlagsOverrideEnv(t *testing.T) {
	t.Setenv("ANTIGRAVITY_PUSH_CRON", "0 9 * * *")
	t.Setenv("ANTIGRAVITY_ADDR", "127.0.0.1:9999")

	cfg, err := LoadConfig([]string{"-push-cron", "15 10 * * 1-5", "-addr", "0.0.0.0:8000"})
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.PushCron != "15 10 * * 1-5" {
		t.Errorf("PushCron = %q", cfg.PushCron)
	}
	if cfg.Addr != "0.0.0.0:8000" {
		t.Errorf("Addr = %q", cfg.Addr)
	}
}

func TestLoadConfig_PortEnv(t *testing.T) {
	t.Setenv("ANTIGRAVITY_PORT", "7070")

	cfg, err := LoadConfig(nil)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Addr != "127.0.0.1:7070" {
		t.Errorf("Addr = %q", cfg.Addr)
	}
}

func TestLoadConfig_ProviderLimits(t *testing.T) {
	t.Setenv("ZHIPU_RPM", "5")
	t.Setenv("ZHIPU_RPD", "100")
	t.Setenv("ZHIPU_COOLDOWN", "4s")

	cfg, err := LoadConfig(nil)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	want := ProviderLimit{RPM: 5, RPD: 100, Cooldown: 4 * time.Second}
	if cfg.ZhipuLimit != want {
		t.Errorf("ZhipuLimit = %+v, want %+v", cfg.ZhipuLimit, want)
	}
}

func TestLoadConfig_Validation(t *testing.T) {
	tests := []struct {
		name        string
		envVars     map[string]string
		errorSubstr string
	}{
		{
			name:        "bad chat id",
			envVars:     map[string]string{"TELEGRAM_CHAT_ID": "not-a-number"},
			errorSubstr: "invalid TELEGRAM_CHAT_ID",
		},
		{
			name:        "bad rpm",
			envVars:     map[string]string{"GEMINI_RPM": "-1"},
			errorSubstr: "invalid GEMINI_RPM",
		},
		{
			name:        "bad cooldown",
			envVars:     map[string]string{"CLAUDE_COOLDOWN": "soon"},
			errorSubstr: "invalid CLAUDE_COOLDOWN",
		},
		{
			name:        "bad gmail lookback",
			envVars:     map[string]string{"GMAIL_HOURS_BACK": "0"},
			errorSubstr: "invalid GMAIL_HOURS_BACK",
		},
		{
			name:        "unknown provider",
			envVars:     map[string]string{"AI_PROVIDER": "skynet"},
			errorSubstr: "unsupported AI_PROVIDER",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			_, err := LoadConfig(nil)
			if err == nil {
				t.Fatalf("expected error containing %q, got nil", tt.errorSubstr)
			}
			if !strings.Contains(err.Error(), tt.errorSubstr) {
				t.Errorf("expected error containing %q, got %q", tt.errorSubstr, err.Error())
			}
		})
	}
}
