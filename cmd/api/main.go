// cmd/api/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tesoreria/internal/auth"
	"tesoreria/internal/bot"
	"tesoreria/internal/config"
	"tesoreria/internal/events"
	"tesoreria/internal/handler"
	"tesoreria/internal/imagestore"
	"tesoreria/internal/middleware"
	"tesoreria/internal/service"
	"tesoreria/internal/storage/backend"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	cfg := config.MustLoad()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	if err := run(cfg); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := backend.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer store.Close()

	var publisher events.Publisher = events.Nop{}
	if cfg.AMQPURL != "" {
		p, err := events.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			return fmt.Errorf("connect to AMQP: %w", err)
		}
		defer p.Close()
		publisher = p
		slog.Info("publishing ledger events", "exchange", cfg.AMQPExchange)
	}

	var images imagestore.Store = imagestore.DataURLStore{}
	if cfg.UploadDir != "" {
		disk, err := imagestore.NewDiskStore(cfg.UploadDir, cfg.PublicURL+"/uploads")
		if err != nil {
			return fmt.Errorf("prepare upload dir: %w", err)
		}
		images = disk
	}

	tokenService := auth.NewTokenService(cfg)
	svc := service.New(store, tokenService, publisher, images, cfg.StrictPaymentMonths)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(middleware.RequestLog(), gin.Recovery(), corsMiddleware(cfg.CORSOrigins))
	router.MaxMultipartMemory = cfg.MaxUploadBytes

	if cfg.UploadDir != "" {
		router.Static("/uploads", cfg.UploadDir)
	}

	authMiddleware := middleware.NewAuthMiddleware(tokenService)
	handler.New(svc, cfg.MaxUploadBytes).Routes(router, authMiddleware.RequireAuth())

	// Telegram webhook
	if cfg.TelegramBotToken != "" && cfg.PublicURL != "" {
		if err := registerWebhook(router, cfg, svc); err != nil {
			return err
		}
	}

	srv := &http.Server{
		Addr:              cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("server started", "addr", cfg.ServerPort, "backend", cfg.DBBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
	}
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}

// registerWebhook points Telegram at PUBLIC_URL/telegram. Without a
// configured secret a random one is used for this process.
func registerWebhook(router gin.IRouter, cfg config.Config, svc *service.Service) error {
	api, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return fmt.Errorf("init telegram bot: %w", err)
	}

	secret := cfg.TelegramWebhookSecret
	if secret == "" {
		secret = uuid.NewString()
	}

	webhookURL := cfg.PublicURL + "/telegram"
	params := tgbotapi.Params{"url": webhookURL, "secret_token": secret}
	if _, err := api.MakeRequest("setWebhook", params); err != nil {
		return fmt.Errorf("set telegram webhook: %w", err)
	}
	router.POST("/telegram", bot.New(svc, api).Webhook(secret))
	slog.Info("telegram webhook set", "url", webhookURL)
	return nil
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cc := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders: []string{"X-Request-ID"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cc.AllowAllOrigins = true
	} else {
		cc.AllowOrigins = origins
		cc.AllowCredentials = true
	}
	return cors.New(cc)
}
