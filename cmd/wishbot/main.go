package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/Kerhoff/wishbot/internal/api"
	"github.com/Kerhoff/wishbot/internal/config"
	"github.com/Kerhoff/wishbot/internal/handlers"
	"github.com/Kerhoff/wishbot/internal/repository"
	"github.com/Kerhoff/wishbot/internal/repository/memory"
	"github.com/Kerhoff/wishbot/internal/repository/postgres"
	"github.com/Kerhoff/wishbot/internal/service"
	"github.com/Kerhoff/wishbot/internal/telegram"
	"github.com/Kerhoff/wishbot/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	l := logger.New(cfg.LogLevel)
	l.Info("Starting wishbot...")

	// Session store: Postgres when configured, otherwise in memory
	var (
		store repository.SessionStore
		db    *config.Database
	)
	if cfg.DatabaseURL != "" {
		db, err = config.NewDatabase(cfg.DatabaseURL, l)
		if err != nil {
			l.Fatalf("Failed to connect to database: %v", err)
		}
		if err := db.Migrate(cfg.MigrationsPath); err != nil {
			l.Fatalf("Failed to run migrations: %v", err)
		}
		store = postgres.NewSessionRepository(db.DB)
	} else {
		l.Warn("DATABASE_URL not set, chat sessions will not survive a restart")
		store = memory.NewSessionStore()
	}

	// Service layer
	svc := service.New(cfg.APIBaseURL, store, l)
	l.WithField("api_base_url", cfg.APIBaseURL).Info("Using Wishlist API")

	// Telegram bot
	bot, err := telegram.NewBot(cfg.TelegramToken, l)
	if err != nil {
		l.Fatalf("Failed to create Telegram bot: %v", err)
	}
	handlers.Register(bot, svc, l)
	if err := bot.SetCommands(handlers.Commands...); err != nil {
		l.WithError(err).Warn("Failed to publish command menu")
	}

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		l.Info("Received shutdown signal...")
		cancel()
	}()

	// Ops HTTP server: health, metrics and the webhook when enabled
	var updates api.UpdateHandler
	if cfg.UseWebhook() {
		updates = bot
	}
	opsServer := api.NewServer(l, bot, updates, cfg.WebhookSecret)
	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           opsServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		l.Infof("HTTP server listening on :%s", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Errorf("HTTP server error: %v", err)
			cancel()
		}
	}()

	if cfg.UseWebhook() {
		if err := bot.SetWebhook(cfg.WebhookEndpoint()); err != nil {
			l.Fatalf("Failed to set webhook: %v", err)
		}
	} else {
		go func() {
			if err := bot.Start(ctx); err != nil {
				l.Errorf("Bot error: %v", err)
				cancel()
			}
		}()
	}

	l.Info("wishbot started successfully")

	<-ctx.Done()

	if err := shutdown(httpServer, db); err != nil {
		l.WithError(err).Error("Unclean shutdown")
		os.Exit(1)
	}
	l.WithField("sessions", svc.SessionCount()).Info("wishbot stopped")
}

// shutdown stops the HTTP server and closes the database, collecting every
// failure instead of stopping at the first.
func shutdown(httpServer *http.Server, db *config.Database) error {
	var result *multierror.Error

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		result = multierror.Append(result, err)
	}
	if db != nil {
		if err := db.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}
