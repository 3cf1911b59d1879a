package handlers

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/wishbot/internal/service"
	"github.com/Kerhoff/wishbot/internal/session"
	"github.com/Kerhoff/wishbot/internal/telegram"
	"github.com/Kerhoff/wishbot/internal/view"
	"github.com/Kerhoff/wishbot/internal/wishapi"
)

// FormHandler feeds plain text messages into the chat's pending form and
// submits the form once every field is answered.
type FormHandler struct {
	pages
}

// NewFormHandler creates a new FormHandler.
func NewFormHandler(svc *service.Service, logger *logrus.Logger) *FormHandler {
	return &FormHandler{pages{svc: svc, logger: logger}}
}

// HandleText processes a plain text message.
func (h *FormHandler) HandleText(bot telegram.Sender, message *tgbotapi.Message) error {
	ctx := context.Background()
	chatID := message.Chat.ID
	sess, err := h.session(ctx, chatID)
	if err != nil {
		return err
	}

	var (
		secret    bool
		submitErr error
		prompt    string
		done      *view.Form
	)
	pending := sess.UpdateForm(func(f *view.Form) bool {
		field, _ := f.Current()
		secret = field.Secret
		submitErr = f.Submit(message.Text)
		if f.Done() {
			done = f
			return true
		}
		prompt = f.Prompt()
		return false
	})
	if !pending {
		return h.sendText(bot, chatID, "Use /help to see available commands.")
	}

	if secret {
		h.deleteMessage(bot, chatID, message.MessageID)
	}
	if submitErr != nil {
		_, err := h.send(bot, chatID, view.Card{Text: fmt.Sprintf("⚠️ %s\n\n%s", view.Escape(submitErr.Error()), prompt)})
		return err
	}
	if done == nil {
		_, err := h.send(bot, chatID, view.Card{Text: prompt})
		return err
	}

	return h.submit(ctx, bot, sess, done)
}

// submit sends a completed form to the API. Failures are reported in the chat
// and leave the page as it was; successes refetch the page.
func (h *FormHandler) submit(ctx context.Context, bot telegram.Sender, sess *session.Session, f *view.Form) error {
	chatID := sess.ChatID
	log := h.logger.WithFields(logrus.Fields{
		"chat_id": chatID,
		"form":    f.Kind,
	})

	if f.Kind == view.FormRegister {
		user, err := h.svc.Register(ctx, sess, wishapi.RegisterRequest{
			Username: f.Value("username"),
			Email:    f.Value("email"),
			Password: f.Value("password"),
			Name:     f.Value("name"),
			Age:      f.IntValue("age"),
			About:    f.Value("about"),
		})
		if err != nil {
			log.WithError(err).Info("Registration failed")
			return h.sendText(bot, chatID, "❌ "+wishapi.ErrorMessage(err, "Registration failed")+"\nSend /register to try again.")
		}
		if err := h.sendText(bot, chatID, fmt.Sprintf("✅ Welcome, %s!", user.DisplayName())); err != nil {
			return err
		}
		return h.openProfile(ctx, bot, sess)
	}

	if !sess.Authenticated() {
		return h.sendText(bot, chatID, loginRequiredMsg)
	}

	var (
		operation string
		err       error
	)
	switch f.Kind {
	case view.FormAddEvent:
		operation = "create event"
		err = sess.Client.CreateEvent(ctx, wishapi.NewEvent{Title: f.Value("title"), Date: f.Date})
	case view.FormAddWish:
		operation = "add wish"
		err = sess.Client.AddWish(ctx, f.TargetID, wishapi.NewWish{
			Description: f.Value("description"),
			Link:        f.Value("link"),
		})
	case view.FormEditEvent:
		operation = "update event"
		title := f.Value("title")
		err = sess.Client.UpdateEvent(ctx, f.TargetID, wishapi.EventUpdate{Title: &title})
	case view.FormEditWish:
		operation = "update wish"
		description, link := f.Value("description"), f.Value("link")
		err = sess.Client.UpdateWish(ctx, f.TargetID, wishapi.WishUpdate{Description: &description, Link: &link})
	case view.FormEditProfile:
		operation = "update profile"
		err = sess.Client.UpdateProfile(ctx, wishapi.ProfileUpdate{
			Name:  f.Value("name"),
			Age:   f.IntValue("age"),
			About: f.Value("about"),
		})
	default:
		return fmt.Errorf("unknown form kind %q", f.Kind)
	}

	if err != nil {
		log.WithError(err).Warn("Form submission failed")
		if h.expire(ctx, sess, err) {
			return h.sendText(bot, chatID, sessionExpiredMsg)
		}
		return h.sendText(bot, chatID, "❌ "+failureText(operation, err))
	}
	log.Info("Form submitted")

	if f.Kind == view.FormEditProfile {
		h.refreshUser(ctx, sess)
		if err := h.sendText(bot, chatID, "✅ Profile updated."); err != nil {
			return err
		}
	}
	return h.openProfile(ctx, bot, sess)
}

// refreshUser reloads the signed-in user after a profile change. On failure
// the old profile stays on screen.
func (h *FormHandler) refreshUser(ctx context.Context, sess *session.Session) {
	user, err := sess.Client.Me(ctx)
	if err != nil {
		h.logger.WithError(err).WithField("chat_id", sess.ChatID).Warn("Failed to reload profile")
		return
	}
	sess.SetUser(user)
}

// CancelHandler handles /cancel, dropping the pending form.
type CancelHandler struct {
	pages
}

// NewCancelHandler creates a new CancelHandler.
func NewCancelHandler(svc *service.Service, logger *logrus.Logger) *CancelHandler {
	return &CancelHandler{pages{svc: svc, logger: logger}}
}

// Handle processes the /cancel command.
func (h *CancelHandler) Handle(bot telegram.Sender, message *tgbotapi.Message, args []string) error {
	ctx := context.Background()
	sess, err := h.session(ctx, message.Chat.ID)
	if err != nil {
		return err
	}

	if !sess.UpdateForm(func(*view.Form) bool { return true }) {
		return h.sendText(bot, message.Chat.ID, "Nothing to cancel.")
	}
	return h.sendText(bot, message.Chat.ID, "✖️ Cancelled.")
}
