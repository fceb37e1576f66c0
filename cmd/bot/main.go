package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	configloader "github.com/jannisdufft-wq/shift-bot-ej/external/config"
	discordimpl "github.com/jannisdufft-wq/shift-bot-ej/external/discord"
	repositoryimpl "github.com/jannisdufft-wq/shift-bot-ej/external/repository"
	webhookimpl "github.com/jannisdufft-wq/shift-bot-ej/external/webhook"
	"github.com/jannisdufft-wq/shift-bot-ej/internal/audit"
	"github.com/jannisdufft-wq/shift-bot-ej/internal/clock"
	"github.com/jannisdufft-wq/shift-bot-ej/internal/command"
	"github.com/jannisdufft-wq/shift-bot-ej/internal/config"
	discordpkg "github.com/jannisdufft-wq/shift-bot-ej/internal/discord"
	"github.com/jannisdufft-wq/shift-bot-ej/internal/loa"
	"github.com/jannisdufft-wq/shift-bot-ej/internal/shift"
	"github.com/samber/do/v2"
)

const discordConnectTimeout = 20 * time.Second

func main() {
	slog.Info("startup: loading configuration")
	cfg := mustLoadConfig()
	initLogger(cfg)
	slog.Info("startup: configuration loaded", "env", cfg.Env)

	slog.Info("startup: building dependency graph")
	injector := setupDI(cfg)

	slog.Info("startup: launching discord bot")
	runBot(cfg, injector)
}

func mustLoadConfig() *config.Config {
	cfg, err := configloader.Load()
	if err != nil {
		slog.Error("config validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

func initLogger(cfg *config.Config) {
	logLevel := slog.LevelInfo
	if cfg.IsDevelopment() {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))
}

func setupDI(cfg *config.Config) do.Injector {
	injector := do.New()

	do.ProvideValue(injector, cfg)
	clock.RegisterDI(injector)
	repositoryimpl.RegisterDI(injector)
	webhookimpl.RegisterDI(injector)
	discordimpl.RegisterDI(injector)
	audit.RegisterDI(injector)
	shift.RegisterDI(injector)
	loa.RegisterDI(injector)
	command.RegisterDI(injector)

	return injector
}

func runBot(cfg *config.Config, injector do.Injector) {
	dc, err := do.Invoke[discordpkg.Client](injector)
	if err != nil {
		slog.Error("failed to resolve discord client", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), discordConnectTimeout)
	defer cancel()

	slog.Info("startup: connecting to discord gateway")
	if err := dc.Connect(ctx); err != nil {
		slog.Error("discord connect failed", "error", err)
		os.Exit(1)
	}
	slog.Info("startup: discord connected")

	facade, err := do.Invoke[*command.Facade](injector)
	if err != nil {
		slog.Error("failed to resolve command facade", "error", err)
		os.Exit(1)
	}

	if err := dc.UpsertSlashCommands(cfg.DiscordGuildID); err != nil {
		slog.Error("failed to upsert slash commands", "error", err, "guild_id", cfg.DiscordGuildID)
		os.Exit(1)
	}

	dc.RegisterActionHandler(facade.Handle)
	slog.Info("discord handlers registered", "guild_id", cfg.DiscordGuildID, "commands", []string{"shift", "shift-manage", "loa", "loa-manage"})
	defer func() {
		if err := dc.Close(); err != nil {
			slog.Error("discord close failed", "error", err)
		}
	}()

	done := make(chan struct{})
	go func() {
		slog.Info("startup: entering discord run loop")
		if err := dc.Run(); err != nil {
			slog.Error("discord run failed", "error", err)
		}
		close(done)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
		slog.Info("shutting down")
	case <-done:
	}
}
