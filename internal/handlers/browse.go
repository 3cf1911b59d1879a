package handlers

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/wishbot/internal/service"
	"github.com/Kerhoff/wishbot/internal/telegram"
	"github.com/Kerhoff/wishbot/internal/view"
)

// BrowseHandler handles the /browse command.
type BrowseHandler struct {
	pages
}

// NewBrowseHandler creates a new BrowseHandler.
func NewBrowseHandler(svc *service.Service, logger *logrus.Logger) *BrowseHandler {
	return &BrowseHandler{pages{svc: svc, logger: logger}}
}

// Handle processes the /browse command.
func (h *BrowseHandler) Handle(bot telegram.Sender, message *tgbotapi.Message, args []string) error {
	ctx := context.Background()
	sess, err := h.session(ctx, message.Chat.ID)
	if err != nil {
		return err
	}
	return h.openBrowse(ctx, bot, sess)
}

// UserHandler handles /user <id>.
type UserHandler struct {
	pages
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(svc *service.Service, logger *logrus.Logger) *UserHandler {
	return &UserHandler{pages{svc: svc, logger: logger}}
}

// Handle processes the /user command.
func (h *UserHandler) Handle(bot telegram.Sender, message *tgbotapi.Message, args []string) error {
	id, ok := parseID(args)
	if !ok {
		msg := tgbotapi.NewMessage(message.Chat.ID, "❌ Usage: <code>/user &lt;id&gt;</code>\nUse /browse to pick someone from the list.")
		msg.ParseMode = view.ParseMode
		_, err := bot.Send(msg)
		return err
	}

	ctx := context.Background()
	sess, err := h.session(ctx, message.Chat.ID)
	if err != nil {
		return err
	}
	return h.openUser(ctx, bot, sess, id)
}

// UserCallbacks handles user:open:<id> from the browse page.
type UserCallbacks struct {
	pages
}

// NewUserCallbacks creates a new UserCallbacks.
func NewUserCallbacks(svc *service.Service, logger *logrus.Logger) *UserCallbacks {
	return &UserCallbacks{pages{svc: svc, logger: logger}}
}

// HandleCallback processes a browse page button press.
func (h *UserCallbacks) HandleCallback(bot telegram.Sender, query *tgbotapi.CallbackQuery, action string, args []string) error {
	id, ok := parseID(args)
	if action != "open" || !ok || query.Message == nil {
		h.answer(bot, query.ID, "Unknown action")
		return nil
	}

	ctx := context.Background()
	sess, err := h.session(ctx, query.Message.Chat.ID)
	if err != nil {
		return err
	}
	h.answer(bot, query.ID, "")
	return h.openUser(ctx, bot, sess, id)
}
