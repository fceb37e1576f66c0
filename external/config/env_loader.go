package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	internalconfig "github.com/jannisdufft-wq/shift-bot-ej/internal/config"
)

type envConfig struct {
	Env             string `env:"ENV" envDefault:"production"`
	DiscordToken    string `env:"DISCORD_TOKEN,required"`
	DiscordGuildID  string `env:"DISCORD_GUILD_ID"`
	DatabaseURL     string `env:"DATABASE_URL,required"`
	AdminRoleID     string `env:"ADMIN_ROLE_ID"`
	ShiftRoleID     string `env:"SHIFT_ROLE_ID"`
	LogChannelID    string `env:"LOG_CHANNEL_ID"`
	AuditWebhookURL string `env:"AUDIT_WEBHOOK_URL"`
}

func Load() (*internalconfig.Config, error) {
	var raw envConfig
	if err := env.Parse(&raw); err != nil {
		return nil, fmt.Errorf("environment variables are invalid or missing: %w", err)
	}

	cfg := &internalconfig.Config{
		Env:             raw.Env,
		DiscordToken:    raw.DiscordToken,
		DiscordGuildID:  raw.DiscordGuildID,
		DatabaseURL:     raw.DatabaseURL,
		AdminRoleID:     raw.AdminRoleID,
		ShiftRoleID:     raw.ShiftRoleID,
		LogChannelID:    raw.LogChannelID,
		AuditWebhookURL: raw.AuditWebhookURL,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
