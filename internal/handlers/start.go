package handlers

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/wishbot/internal/service"
	"github.com/Kerhoff/wishbot/internal/telegram"
	"github.com/Kerhoff/wishbot/internal/view"
)

// StartHandler handles the /start command. Signed-out chats get the home
// page; signed-in chats go straight to their profile.
type StartHandler struct {
	pages
}

// NewStartHandler creates a new start command handler
func NewStartHandler(svc *service.Service, logger *logrus.Logger) *StartHandler {
	return &StartHandler{pages{svc: svc, logger: logger}}
}

// Handle processes the /start command
func (h *StartHandler) Handle(bot telegram.Sender, message *tgbotapi.Message, args []string) error {
	ctx := context.Background()

	sess, err := h.session(ctx, message.Chat.ID)
	if err != nil {
		return err
	}
	if sess.Authenticated() {
		return h.openProfile(ctx, bot, sess)
	}

	if _, err := h.send(bot, message.Chat.ID, view.Card{Text: view.Welcome}); err != nil {
		return err
	}

	h.logger.WithField("chat_id", message.Chat.ID).Info("Sent start message")
	return nil
}

const helpText = `📚 <b>Wishlist Santa Help</b>

<b>Account:</b>
• /login &lt;username&gt; &lt;password&gt; - Sign in
• /register - Create an account
• /logout - Sign out
• /editprofile - Change name, age or about

<b>Your events:</b>
• /profile - Your calendar and events
Tap a day in the calendar to create an event on it.

<b>Friends:</b>
• /browse - Everyone else's wishlists
• /user &lt;id&gt; - Open one user's wishlist
• /reservations - Gifts you reserved

• /cancel - Abort the current form`

// HelpHandler handles the /help command
type HelpHandler struct {
	logger *logrus.Logger
}

func NewHelpHandler(logger *logrus.Logger) *HelpHandler {
	return &HelpHandler{logger: logger}
}

func (h *HelpHandler) Handle(bot telegram.Sender, message *tgbotapi.Message, args []string) error {
	msg := tgbotapi.NewMessage(message.Chat.ID, helpText)
	msg.ParseMode = view.ParseMode

	if _, err := bot.Send(msg); err != nil {
		return fmt.Errorf("failed to send help message: %w", err)
	}

	h.logger.WithField("chat_id", message.Chat.ID).Info("Sent help message")
	return nil
}
