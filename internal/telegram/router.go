package telegram

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/wishbot/internal/metrics"
	"github.com/Kerhoff/wishbot/internal/view"
	"github.com/Kerhoff/wishbot/pkg/logger"
)

// Sender is the part of the Telegram API the handlers use. *tgbotapi.BotAPI
// implements it.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// CommandHandler handles a slash command
type CommandHandler interface {
	Handle(bot Sender, message *tgbotapi.Message, args []string) error
}

// CallbackHandler handles inline keyboard presses for one callback scope.
// It must answer the query.
type CallbackHandler interface {
	HandleCallback(bot Sender, query *tgbotapi.CallbackQuery, action string, args []string) error
}

// TextHandler handles plain (non-command) text messages
type TextHandler interface {
	HandleText(bot Sender, message *tgbotapi.Message) error
}

const errorReply = "❌ An error occurred while processing your request. Please try again."

// Router handles message routing and command parsing
type Router struct {
	logger    *logrus.Logger
	handlers  map[string]CommandHandler
	callbacks map[string]CallbackHandler
	text      TextHandler
}

// NewRouter creates a new message router
func NewRouter(logger *logrus.Logger) *Router {
	return &Router{
		logger:    logger,
		handlers:  make(map[string]CommandHandler),
		callbacks: make(map[string]CallbackHandler),
	}
}

// RegisterCommand registers a command handler
func (r *Router) RegisterCommand(command string, handler CommandHandler) {
	r.handlers[command] = handler
	r.logger.Debugf("Registered command: %s", command)
}

// RegisterCallback registers the handler for a callback data scope
func (r *Router) RegisterCallback(scope string, handler CallbackHandler) {
	r.callbacks[scope] = handler
	r.logger.Debugf("Registered callback scope: %s", scope)
}

// SetTextHandler sets the handler for plain text messages
func (r *Router) SetTextHandler(handler TextHandler) {
	r.text = handler
}

// HandleMessage handles incoming messages
func (r *Router) HandleMessage(bot Sender, message *tgbotapi.Message) {
	fields := logrus.Fields{
		"chat_id":    message.Chat.ID,
		"message_id": message.MessageID,
	}
	if message.From != nil {
		fields["user_id"] = message.From.ID
		fields["username"] = message.From.UserName
	}
	log := r.logger.WithFields(fields)

	// Only process text messages
	if message.Text == "" {
		return
	}

	if !message.IsCommand() {
		metrics.ObserveUpdate("text")
		// Text may be a password answer, so it is never logged
		log.Debug("Received text message")
		if r.text == nil {
			return
		}
		if err := r.text.HandleText(bot, message); err != nil {
			log.WithError(err).Error("Text handler failed")
			r.reply(bot, message.Chat.ID, errorReply)
		}
		return
	}

	metrics.ObserveUpdate("command")
	command := message.Command()
	args := strings.Fields(message.CommandArguments())
	log = log.WithField("command", command)
	log.Info("Received command")

	handler, exists := r.handlers[command]
	if !exists {
		log.Warn("Unknown command")
		r.reply(bot, message.Chat.ID, "❓ Unknown command. Use /help to see available commands.")
		return
	}

	if err := handler.Handle(bot, message, args); err != nil {
		log.WithError(err).Error("Command handler failed")
		r.reply(bot, message.Chat.ID, errorReply)
	}
}

// HandleCallbackQuery routes an inline keyboard press by its data scope
func (r *Router) HandleCallbackQuery(bot Sender, query *tgbotapi.CallbackQuery) {
	metrics.ObserveUpdate("callback")
	scope, action, args := view.ParseData(query.Data)

	var chatID int64
	if query.Message != nil {
		chatID = query.Message.Chat.ID
	}
	log := logger.ForChat(r.logger, chatID, query.From.ID).WithFields(logrus.Fields{
		"callback_id": query.ID,
		"data":        query.Data,
	})
	log.Info("Received callback query")

	if scope == view.ScopeNoop {
		r.answer(bot, query.ID, "")
		return
	}

	handler, exists := r.callbacks[scope]
	if !exists {
		log.Warn("Unknown callback scope")
		r.answer(bot, query.ID, "Unknown action")
		return
	}

	if err := handler.HandleCallback(bot, query, action, args); err != nil {
		log.WithError(err).Error("Callback handler failed")
		if query.Message != nil {
			r.reply(bot, query.Message.Chat.ID, errorReply)
		}
	}
}

func (r *Router) reply(bot Sender, chatID int64, text string) {
	if _, err := bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		r.logger.WithError(err).WithField("chat_id", chatID).Error("Failed to send reply")
	}
}

func (r *Router) answer(bot Sender, queryID, text string) {
	if _, err := bot.Request(tgbotapi.NewCallback(queryID, text)); err != nil {
		r.logger.WithError(err).Warn("Failed to answer callback query")
	}
}
