package handlers

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/wishbot/internal/service"
	"github.com/Kerhoff/wishbot/internal/telegram"
	"github.com/Kerhoff/wishbot/internal/view"
)

// NavCallbacks handles the navigation row: nav:<page>.
type NavCallbacks struct {
	pages
}

// NewNavCallbacks creates a new NavCallbacks.
func NewNavCallbacks(svc *service.Service, logger *logrus.Logger) *NavCallbacks {
	return &NavCallbacks{pages{svc: svc, logger: logger}}
}

// HandleCallback opens the page named by action.
func (h *NavCallbacks) HandleCallback(bot telegram.Sender, query *tgbotapi.CallbackQuery, action string, args []string) error {
	if query.Message == nil {
		h.answer(bot, query.ID, "")
		return nil
	}
	ctx := context.Background()
	sess, err := h.session(ctx, query.Message.Chat.ID)
	if err != nil {
		return err
	}

	switch action {
	case "profile":
		h.answer(bot, query.ID, "")
		return h.openProfile(ctx, bot, sess)
	case "browse":
		h.answer(bot, query.ID, "")
		return h.openBrowse(ctx, bot, sess)
	case "reservations":
		h.answer(bot, query.ID, "")
		return h.openReservations(ctx, bot, sess)
	case "editprofile":
		user := sess.User()
		if user == nil {
			h.alert(bot, query.ID, loginRequiredMsg)
			return nil
		}
		h.answer(bot, query.ID, "")
		return h.openForm(bot, sess, view.NewProfileForm(user))
	case "logout":
		h.answer(bot, query.ID, "")
		return h.logout(ctx, bot, sess)
	default:
		h.answer(bot, query.ID, "Unknown action")
		return nil
	}
}
