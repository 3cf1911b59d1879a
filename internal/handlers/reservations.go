package handlers

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/wishbot/internal/service"
	"github.com/Kerhoff/wishbot/internal/telegram"
)

// ReservationsHandler handles the /reservations command.
type ReservationsHandler struct {
	pages
}

// NewReservationsHandler creates a new ReservationsHandler.
func NewReservationsHandler(svc *service.Service, logger *logrus.Logger) *ReservationsHandler {
	return &ReservationsHandler{pages{svc: svc, logger: logger}}
}

// Handle processes the /reservations command.
func (h *ReservationsHandler) Handle(bot telegram.Sender, message *tgbotapi.Message, args []string) error {
	ctx := context.Background()
	sess, err := h.session(ctx, message.Chat.ID)
	if err != nil {
		return err
	}
	return h.openReservations(ctx, bot, sess)
}

// ReservationCallbacks handles res:undo:<wish id>.
type ReservationCallbacks struct {
	pages
}

// NewReservationCallbacks creates a new ReservationCallbacks.
func NewReservationCallbacks(svc *service.Service, logger *logrus.Logger) *ReservationCallbacks {
	return &ReservationCallbacks{pages{svc: svc, logger: logger}}
}

// HandleCallback unreserves a wish and refetches the reservations page.
func (h *ReservationCallbacks) HandleCallback(bot telegram.Sender, query *tgbotapi.CallbackQuery, action string, args []string) error {
	id, ok := parseID(args)
	if action != "undo" || !ok || query.Message == nil {
		h.answer(bot, query.ID, "Unknown action")
		return nil
	}

	ctx := context.Background()
	chatID := query.Message.Chat.ID
	sess, err := h.session(ctx, chatID)
	if err != nil {
		return err
	}
	if !sess.Authenticated() {
		h.alert(bot, query.ID, loginRequiredMsg)
		return nil
	}

	if err := sess.Client.UnreserveWish(ctx, id); err != nil {
		h.writeFailed(ctx, bot, sess, query.ID, "unreserve wish", err)
		return nil
	}
	h.answer(bot, query.ID, "↩️ Unreserved")
	h.deleteMessage(bot, chatID, query.Message.MessageID)
	h.logger.WithFields(logrus.Fields{"chat_id": chatID, "wish_id": id}).Info("Wish unreserved")

	return h.openReservations(ctx, bot, sess)
}
