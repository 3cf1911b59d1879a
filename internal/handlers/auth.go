package handlers

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/wishbot/internal/service"
	"github.com/Kerhoff/wishbot/internal/session"
	"github.com/Kerhoff/wishbot/internal/telegram"
	"github.com/Kerhoff/wishbot/internal/view"
	"github.com/Kerhoff/wishbot/internal/wishapi"
)

// ---------------------------------------------------------------------------
// LoginHandler – /login <username> <password>
// ---------------------------------------------------------------------------

// LoginHandler signs the chat in. The command message carries the password,
// so it is deleted as soon as it has been read.
type LoginHandler struct {
	pages
}

// NewLoginHandler creates a new LoginHandler.
func NewLoginHandler(svc *service.Service, logger *logrus.Logger) *LoginHandler {
	return &LoginHandler{pages{svc: svc, logger: logger}}
}

// Handle processes the /login command. The first word is the username and
// the rest of the line, inner spaces included, is the password.
func (h *LoginHandler) Handle(bot telegram.Sender, message *tgbotapi.Message, args []string) error {
	chatID := message.Chat.ID
	username, password, ok := splitCredentials(message.CommandArguments())
	if !ok {
		if len(args) > 0 {
			h.deleteMessage(bot, chatID, message.MessageID)
		}
		msg := tgbotapi.NewMessage(chatID, "❌ Usage: <code>/login &lt;username&gt; &lt;password&gt;</code>")
		msg.ParseMode = view.ParseMode
		_, err := bot.Send(msg)
		return err
	}
	h.deleteMessage(bot, chatID, message.MessageID)

	ctx := context.Background()
	sess, err := h.session(ctx, chatID)
	if err != nil {
		return err
	}

	user, err := h.svc.Login(ctx, sess, username, password)
	if err != nil {
		h.logger.WithFields(logrus.Fields{
			"chat_id":  chatID,
			"username": username,
			"error":    err,
		}).Info("Login failed")
		return h.sendText(bot, chatID, "❌ "+wishapi.ErrorMessage(err, "Login failed"))
	}

	if err := h.sendText(bot, chatID, fmt.Sprintf("✅ Welcome back, %s!", user.DisplayName())); err != nil {
		return err
	}
	return h.openProfile(ctx, bot, sess)
}

// splitCredentials splits "<username> <password>". The password is trimmed at
// its ends only, the same way the register form stores it.
func splitCredentials(raw string) (username, password string, ok bool) {
	raw = strings.TrimSpace(raw)
	i := strings.IndexFunc(raw, unicode.IsSpace)
	if i < 0 {
		return "", "", false
	}
	username, password = raw[:i], strings.TrimSpace(raw[i:])
	return username, password, password != ""
}

// ---------------------------------------------------------------------------
// RegisterHandler – /register
// ---------------------------------------------------------------------------

// RegisterHandler opens the registration form.
type RegisterHandler struct {
	pages
}

// NewRegisterHandler creates a new RegisterHandler.
func NewRegisterHandler(svc *service.Service, logger *logrus.Logger) *RegisterHandler {
	return &RegisterHandler{pages{svc: svc, logger: logger}}
}

// Handle processes the /register command.
func (h *RegisterHandler) Handle(bot telegram.Sender, message *tgbotapi.Message, args []string) error {
	ctx := context.Background()
	sess, err := h.session(ctx, message.Chat.ID)
	if err != nil {
		return err
	}

	if user := sess.User(); user != nil {
		return h.sendText(bot, message.Chat.ID,
			fmt.Sprintf("You are already logged in as %s. Use /logout first.", user.DisplayName()))
	}
	return h.openForm(bot, sess, view.NewRegisterForm())
}

// ---------------------------------------------------------------------------
// LogoutHandler – /logout
// ---------------------------------------------------------------------------

// LogoutHandler signs the chat out and shows the home page.
type LogoutHandler struct {
	pages
}

// NewLogoutHandler creates a new LogoutHandler.
func NewLogoutHandler(svc *service.Service, logger *logrus.Logger) *LogoutHandler {
	return &LogoutHandler{pages{svc: svc, logger: logger}}
}

// Handle processes the /logout command.
func (h *LogoutHandler) Handle(bot telegram.Sender, message *tgbotapi.Message, args []string) error {
	ctx := context.Background()
	sess, err := h.session(ctx, message.Chat.ID)
	if err != nil {
		return err
	}
	return h.logout(ctx, bot, sess)
}

// logout never fails for the user: a failed API call is only logged.
func (p pages) logout(ctx context.Context, bot telegram.Sender, sess *session.Session) error {
	if !sess.Authenticated() {
		return p.sendText(bot, sess.ChatID, "You are not logged in.")
	}

	if err := p.svc.Logout(ctx, sess); err != nil {
		p.logger.WithError(err).WithField("chat_id", sess.ChatID).Warn("Logout failed")
	}

	_, err := p.send(bot, sess.ChatID, view.Card{Text: "👋 Logged out.\n\n" + view.Welcome})
	return err
}
