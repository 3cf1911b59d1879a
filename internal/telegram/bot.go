package telegram

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
	"go.uber.org/atomic"
)

// Bot wraps the Telegram bot API
type Bot struct {
	api     *tgbotapi.BotAPI
	logger  *logrus.Logger
	router  *Router
	handled *atomic.Int64
}

// NewBot creates a new Telegram bot instance
func NewBot(token string, logger *logrus.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot API: %w", err)
	}

	logger.Infof("Authorized on account %s", api.Self.UserName)

	return &Bot{
		api:     api,
		logger:  logger,
		router:  NewRouter(logger),
		handled: atomic.NewInt64(0),
	}, nil
}

// SetWebhook sets up webhook for the bot
func (b *Bot) SetWebhook(webhookURL string) error {
	wh, err := tgbotapi.NewWebhook(webhookURL)
	if err != nil {
		return fmt.Errorf("failed to create webhook: %w", err)
	}

	_, err = b.api.Request(wh)
	if err != nil {
		return fmt.Errorf("failed to set webhook: %w", err)
	}

	b.logger.Info("Webhook set")
	return nil
}

// Start starts the bot with long polling and blocks until ctx is done
func (b *Bot) Start(ctx context.Context) error {
	// Delete webhook if exists and use polling
	_, err := b.api.Request(tgbotapi.DeleteWebhookConfig{})
	if err != nil {
		return fmt.Errorf("failed to delete webhook: %w", err)
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	b.logger.Info("Bot started with long polling")

	for {
		select {
		case <-ctx.Done():
			b.logger.Info("Stopping bot...")
			b.api.StopReceivingUpdates()
			return nil
		case update := <-updates:
			go b.handleUpdate(update)
		}
	}
}

// HandleWebhook handles an update delivered to the webhook endpoint
func (b *Bot) HandleWebhook(update tgbotapi.Update) {
	go b.handleUpdate(update)
}

// Handled returns how many updates have been dispatched
func (b *Bot) Handled() int64 {
	return b.handled.Load()
}

// handleUpdate processes incoming updates
func (b *Bot) handleUpdate(update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.WithField("update_id", update.UpdateID).Errorf("Panic in update handler: %v", r)
		}
	}()

	switch {
	case update.Message != nil:
		b.router.HandleMessage(b.api, update.Message)
	case update.CallbackQuery != nil:
		b.router.HandleCallbackQuery(b.api, update.CallbackQuery)
	default:
		return
	}
	b.handled.Inc()
}

// RegisterCommand registers a command handler on the router
func (b *Bot) RegisterCommand(command string, handler CommandHandler) {
	b.router.RegisterCommand(command, handler)
}

// RegisterCallback registers a callback handler on the router
func (b *Bot) RegisterCallback(scope string, handler CallbackHandler) {
	b.router.RegisterCallback(scope, handler)
}

// SetTextHandler sets the router's plain text handler
func (b *Bot) SetTextHandler(handler TextHandler) {
	b.router.SetTextHandler(handler)
}

// SetCommands publishes the command menu shown by Telegram clients
func (b *Bot) SetCommands(commands ...tgbotapi.BotCommand) error {
	if _, err := b.api.Request(tgbotapi.NewSetMyCommands(commands...)); err != nil {
		return fmt.Errorf("failed to set commands: %w", err)
	}
	return nil
}
