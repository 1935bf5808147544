package config

import (
	"strings"
	"testing"
)

func baseConfig() *Config {
	return &Config{
		Telegram: TelegramConfig{Token: "token", RunMode: "longpoll"},
		Bitrix:   BitrixConfig{WebhookURL: "https://portal.example/rest/1/secret", EntityTypeID: 128},
	}
}

func TestNormalizeDefaults(t *testing.T) {
	cfg := baseConfig()
	if err := Normalize(cfg); err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if cfg.Bitrix.TimeoutSeconds != 10 {
		t.Errorf("timeout default = %d, want 10", cfg.Bitrix.TimeoutSeconds)
	}
	if !strings.HasSuffix(cfg.Bitrix.WebhookURL, "/") {
		t.Errorf("webhook url %q missing trailing slash", cfg.Bitrix.WebhookURL)
	}
	if cfg.Tickets.TitlePrefix == "" {
		t.Error("title prefix default not applied")
	}
}

func TestNormalizeRunModeAlias(t *testing.T) {
	cfg := baseConfig()
	cfg.Telegram.RunMode = "polling"
	if err := Normalize(cfg); err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if cfg.Telegram.RunMode != RunModeLongpoll {
		t.Errorf("run mode = %q, want %q", cfg.Telegram.RunMode, RunModeLongpoll)
	}
}

func TestNormalizeRejectsInvalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing token", func(c *Config) { c.Telegram.Token = "" }},
		{"bad run mode", func(c *Config) { c.Telegram.RunMode = "grpc" }},
		{"missing bitrix url", func(c *Config) { c.Bitrix.WebhookURL = "" }},
		{"zero entity type", func(c *Config) { c.Bitrix.EntityTypeID = 0 }},
		{"webhook without url", func(c *Config) { c.Telegram.RunMode = "webhook" }},
		{"db enabled without host", func(c *Config) { c.Database.Enabled = true }},
		{"bad rate limit exclude", func(c *Config) { c.RateLimit.ExcludeUpdates = []string{"inline"} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := baseConfig()
			tt.mutate(cfg)
			if err := Normalize(cfg); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}
