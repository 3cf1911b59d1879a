package handlers

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/wishbot/internal/calendar"
	"github.com/Kerhoff/wishbot/internal/service"
	"github.com/Kerhoff/wishbot/internal/telegram"
	"github.com/Kerhoff/wishbot/internal/view"
)

// ---------------------------------------------------------------------------
// ProfileHandler – /profile
// ---------------------------------------------------------------------------

// ProfileHandler shows the signed-in user's calendar and events.
type ProfileHandler struct {
	pages
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(svc *service.Service, logger *logrus.Logger) *ProfileHandler {
	return &ProfileHandler{pages{svc: svc, logger: logger}}
}

// Handle processes the /profile command.
func (h *ProfileHandler) Handle(bot telegram.Sender, message *tgbotapi.Message, args []string) error {
	ctx := context.Background()
	sess, err := h.session(ctx, message.Chat.ID)
	if err != nil {
		return err
	}
	return h.openProfile(ctx, bot, sess)
}

// ---------------------------------------------------------------------------
// EditProfileHandler – /editprofile
// ---------------------------------------------------------------------------

// EditProfileHandler opens the profile form.
type EditProfileHandler struct {
	pages
}

// NewEditProfileHandler creates a new EditProfileHandler.
func NewEditProfileHandler(svc *service.Service, logger *logrus.Logger) *EditProfileHandler {
	return &EditProfileHandler{pages{svc: svc, logger: logger}}
}

// Handle processes the /editprofile command.
func (h *EditProfileHandler) Handle(bot telegram.Sender, message *tgbotapi.Message, args []string) error {
	ctx := context.Background()
	sess, err := h.session(ctx, message.Chat.ID)
	if err != nil {
		return err
	}
	user, err := h.requireUser(bot, sess)
	if user == nil {
		return err
	}
	return h.openForm(bot, sess, view.NewProfileForm(user))
}

// ---------------------------------------------------------------------------
// CalendarCallbacks – cal:prev|next:<YYYY-MM>, cal:day:<YYYY-MM-DD>
// ---------------------------------------------------------------------------

// CalendarCallbacks handles presses on the profile calendar. Paging months
// re-renders the page message from the last fetch; it does not refetch.
type CalendarCallbacks struct {
	pages
}

// NewCalendarCallbacks creates a new CalendarCallbacks.
func NewCalendarCallbacks(svc *service.Service, logger *logrus.Logger) *CalendarCallbacks {
	return &CalendarCallbacks{pages{svc: svc, logger: logger}}
}

// HandleCallback processes a calendar button press.
func (h *CalendarCallbacks) HandleCallback(bot telegram.Sender, query *tgbotapi.CallbackQuery, action string, args []string) error {
	if query.Message == nil {
		h.answer(bot, query.ID, "")
		return nil
	}
	ctx := context.Background()
	sess, err := h.session(ctx, query.Message.Chat.ID)
	if err != nil {
		return err
	}
	user := sess.User()
	if user == nil {
		h.alert(bot, query.ID, loginRequiredMsg)
		return nil
	}

	switch action {
	case "prev", "next":
		month := sess.Month()
		if len(args) > 0 {
			if shown, err := calendar.ParseMonth(args[0]); err == nil {
				month = shown
			}
		}
		if action == "prev" {
			month = calendar.Prev(month)
		} else {
			month = calendar.Next(month)
		}
		h.svc.SetMonth(ctx, sess, month)
		h.answer(bot, query.ID, "")

		events := sess.Events()
		card := view.ProfilePage(user, view.EventGrid(month, events), len(events))
		return h.edit(bot, query.Message.Chat.ID, query.Message.MessageID, card)

	case "day":
		if len(args) == 0 {
			h.answer(bot, query.ID, "")
			return nil
		}
		h.answer(bot, query.ID, "")
		return h.openForm(bot, sess, view.NewEventForm(args[0]))

	default:
		h.answer(bot, query.ID, "Unknown action")
		return nil
	}
}

// ---------------------------------------------------------------------------
// EventCallbacks – ev:wish|edit|del|delok|keep:<event id>
// ---------------------------------------------------------------------------

// EventCallbacks handles the owner controls on an event card.
type EventCallbacks struct {
	pages
}

// NewEventCallbacks creates a new EventCallbacks.
func NewEventCallbacks(svc *service.Service, logger *logrus.Logger) *EventCallbacks {
	return &EventCallbacks{pages{svc: svc, logger: logger}}
}

// HandleCallback processes an event card button press.
func (h *EventCallbacks) HandleCallback(bot telegram.Sender, query *tgbotapi.CallbackQuery, action string, args []string) error {
	id, ok := parseID(args)
	if !ok || query.Message == nil {
		h.answer(bot, query.ID, "Unknown action")
		return nil
	}
	ctx := context.Background()
	chatID, msgID := query.Message.Chat.ID, query.Message.MessageID
	sess, err := h.session(ctx, chatID)
	if err != nil {
		return err
	}
	if !sess.Authenticated() {
		h.alert(bot, query.ID, loginRequiredMsg)
		return nil
	}

	switch action {
	case "wish":
		h.answer(bot, query.ID, "")
		return h.openForm(bot, sess, view.NewWishForm(id))

	case "edit":
		event, found := sess.FindEvent(id)
		if !found {
			h.alert(bot, query.ID, "This event is no longer on your profile. Use /profile to refresh.")
			return nil
		}
		h.answer(bot, query.ID, "")
		return h.openForm(bot, sess, view.NewEventEditForm(event))

	case "del":
		h.answer(bot, query.ID, "")
		return h.edit(bot, chatID, msgID, view.ConfirmCard(
			"Are you sure you want to delete this event?",
			view.IDData(view.ScopeEvent, "delok", id),
			view.IDData(view.ScopeEvent, "keep", id),
		))

	case "keep":
		h.answer(bot, query.ID, "")
		event, found := sess.FindEvent(id)
		if !found {
			h.deleteMessage(bot, chatID, msgID)
			return nil
		}
		return h.edit(bot, chatID, msgID, view.EventCard(event, true))

	case "delok":
		if err := sess.Client.DeleteEvent(ctx, id); err != nil {
			h.writeFailed(ctx, bot, sess, query.ID, "delete event", err)
			return nil
		}
		h.answer(bot, query.ID, "🗑 Event deleted")
		h.deleteMessage(bot, chatID, msgID)
		h.logger.WithFields(logrus.Fields{"chat_id": chatID, "event_id": id}).Info("Event deleted")
		return h.openProfile(ctx, bot, sess)

	default:
		h.answer(bot, query.ID, "Unknown action")
		return nil
	}
}

// ---------------------------------------------------------------------------
// WishCallbacks – wish:edit|del|delok|keep|res:<wish id>
// ---------------------------------------------------------------------------

// WishCallbacks handles wish buttons: edit and delete for the owner, reserve
// for everyone else.
type WishCallbacks struct {
	pages
}

// NewWishCallbacks creates a new WishCallbacks.
func NewWishCallbacks(svc *service.Service, logger *logrus.Logger) *WishCallbacks {
	return &WishCallbacks{pages{svc: svc, logger: logger}}
}

// HandleCallback processes a wish button press.
func (h *WishCallbacks) HandleCallback(bot telegram.Sender, query *tgbotapi.CallbackQuery, action string, args []string) error {
	id, ok := parseID(args)
	if !ok || query.Message == nil {
		h.answer(bot, query.ID, "Unknown action")
		return nil
	}
	ctx := context.Background()
	chatID, msgID := query.Message.Chat.ID, query.Message.MessageID
	sess, err := h.session(ctx, chatID)
	if err != nil {
		return err
	}
	if !sess.Authenticated() {
		h.alert(bot, query.ID, loginRequiredMsg)
		return nil
	}
	log := h.logger.WithFields(logrus.Fields{"chat_id": chatID, "wish_id": id})

	switch action {
	case "edit":
		wish, found := sess.FindWish(id)
		if !found {
			h.alert(bot, query.ID, "This wish is no longer on your profile. Use /profile to refresh.")
			return nil
		}
		h.answer(bot, query.ID, "")
		return h.openForm(bot, sess, view.NewWishEditForm(wish))

	case "del":
		h.answer(bot, query.ID, "")
		return h.edit(bot, chatID, msgID, view.ConfirmCard(
			"Are you sure you want to delete this wish?",
			view.IDData(view.ScopeWish, "delok", id),
			view.IDData(view.ScopeWish, "keep", id),
		))

	case "keep":
		h.answer(bot, query.ID, "")
		for _, e := range sess.Events() {
			for _, w := range e.Wishes {
				if w.ID == id {
					return h.edit(bot, chatID, msgID, view.EventCard(e, true))
				}
			}
		}
		h.deleteMessage(bot, chatID, msgID)
		return nil

	case "delok":
		if err := sess.Client.DeleteWish(ctx, id); err != nil {
			h.writeFailed(ctx, bot, sess, query.ID, "delete wish", err)
			return nil
		}
		h.answer(bot, query.ID, "🗑 Wish deleted")
		h.deleteMessage(bot, chatID, msgID)
		log.Info("Wish deleted")
		return h.openProfile(ctx, bot, sess)

	case "res":
		if err := sess.Client.ReserveWish(ctx, id); err != nil {
			h.writeFailed(ctx, bot, sess, query.ID, "reserve wish", err)
			return nil
		}
		h.answer(bot, query.ID, "🎁 Reserved!")
		log.Info("Wish reserved")

		viewing := sess.ViewingUser()
		if viewing == nil {
			return h.openReservations(ctx, bot, sess)
		}
		return h.openUser(ctx, bot, sess, viewing.ID)

	default:
		h.answer(bot, query.ID, "Unknown action")
		return nil
	}
}
