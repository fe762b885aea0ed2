// cmd/bot/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"tesoreria/internal/auth"
	"tesoreria/internal/bot"
	"tesoreria/internal/config"
	"tesoreria/internal/service"
	"tesoreria/internal/storage/backend"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	cfg := config.MustLoad()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel})))

	if err := run(cfg); err != nil {
		slog.Error("bot exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config) error {
	if cfg.TelegramBotToken == "" {
		return errors.New("TELEGRAM_BOT_TOKEN not set")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := backend.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer store.Close()

	api, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return fmt.Errorf("init telegram bot: %w", err)
	}
	// a webhook left by the API process blocks getUpdates
	if _, err := api.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		slog.Warn("failed to delete webhook", "error", err)
	}

	svc := service.New(store, auth.NewTokenService(cfg), nil, nil, cfg.StrictPaymentMonths)

	slog.Info("bot started", "username", api.Self.UserName)
	bot.New(svc, api).Run(ctx, api)
	slog.Info("bot stopped")
	return nil
}
