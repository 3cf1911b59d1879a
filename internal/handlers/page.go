package handlers

import (
	"context"
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/wishbot/internal/models"
	"github.com/Kerhoff/wishbot/internal/service"
	"github.com/Kerhoff/wishbot/internal/session"
	"github.com/Kerhoff/wishbot/internal/telegram"
	"github.com/Kerhoff/wishbot/internal/view"
	"github.com/Kerhoff/wishbot/internal/wishapi"
)

const (
	loadingText       = "⏳ Loading..."
	loginRequiredMsg  = "🔒 Please /login or /register first."
	sessionExpiredMsg = "🔒 Your session has expired. Please /login again."
	unknownError      = "Unknown error"
)

// pages holds what every page controller needs: the session registry and a
// logger. Opening a page always refetches; nothing is cached across pages.
type pages struct {
	svc    *service.Service
	logger *logrus.Logger
}

func (p pages) session(ctx context.Context, chatID int64) (*session.Session, error) {
	sess, err := p.svc.EnsureSession(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("ensure session: %w", err)
	}
	return sess, nil
}

// requireUser replies with a login hint when the chat is signed out.
func (p pages) requireUser(bot telegram.Sender, sess *session.Session) (*models.User, error) {
	user := sess.User()
	if user == nil {
		return nil, p.sendText(bot, sess.ChatID, loginRequiredMsg)
	}
	return user, nil
}

// openProfile shows the signed-in user's header, calendar and event cards.
func (p pages) openProfile(ctx context.Context, bot telegram.Sender, sess *session.Session) error {
	user, err := p.requireUser(bot, sess)
	if user == nil {
		return err
	}
	p.svc.Navigate(ctx, sess, session.PageProfile, nil)

	msgID, err := p.sendLoading(bot, sess.ChatID)
	if err != nil {
		return err
	}

	events, err := sess.Client.ListEvents(ctx)
	if err != nil {
		return p.loadFailed(ctx, bot, sess, msgID, "events", err)
	}
	sess.SetEvents(events)

	grid := view.EventGrid(sess.Month(), events)
	if err := p.edit(bot, sess.ChatID, msgID, view.ProfilePage(user, grid, len(events))); err != nil {
		return err
	}
	for _, e := range events {
		if _, err := p.send(bot, sess.ChatID, view.EventCard(e, true)); err != nil {
			return err
		}
	}
	return nil
}

// openBrowse lists every user except the signed-in one.
func (p pages) openBrowse(ctx context.Context, bot telegram.Sender, sess *session.Session) error {
	user, err := p.requireUser(bot, sess)
	if user == nil {
		return err
	}
	p.svc.Navigate(ctx, sess, session.PageBrowse, nil)

	msgID, err := p.sendLoading(bot, sess.ChatID)
	if err != nil {
		return err
	}

	users, err := sess.Client.ListUsers(ctx)
	if err != nil {
		return p.loadFailed(ctx, bot, sess, msgID, "users", err)
	}

	others := make([]models.User, 0, len(users))
	for _, u := range users {
		if u.ID != user.ID {
			others = append(others, u)
		}
	}
	return p.edit(bot, sess.ChatID, msgID, view.BrowsePage(others))
}

// openUser shows another user's events with Reserve buttons. Opening one's
// own id shows the profile page instead.
func (p pages) openUser(ctx context.Context, bot telegram.Sender, sess *session.Session, userID int64) error {
	user, err := p.requireUser(bot, sess)
	if user == nil {
		return err
	}
	if userID == user.ID {
		return p.openProfile(ctx, bot, sess)
	}

	msgID, err := p.sendLoading(bot, sess.ChatID)
	if err != nil {
		return err
	}

	viewed, events, err := sess.Client.GetUser(ctx, userID)
	if err != nil {
		return p.loadFailed(ctx, bot, sess, msgID, "user profile", err)
	}
	p.svc.Navigate(ctx, sess, session.PageUserProfile, viewed)

	if err := p.edit(bot, sess.ChatID, msgID, view.UserPage(viewed, events)); err != nil {
		return err
	}
	for _, e := range events {
		if _, err := p.send(bot, sess.ChatID, view.EventCard(e, false)); err != nil {
			return err
		}
	}
	return nil
}

// openReservations lists the wishes the signed-in user reserved.
func (p pages) openReservations(ctx context.Context, bot telegram.Sender, sess *session.Session) error {
	user, err := p.requireUser(bot, sess)
	if user == nil {
		return err
	}
	p.svc.Navigate(ctx, sess, session.PageReservations, nil)

	msgID, err := p.sendLoading(bot, sess.ChatID)
	if err != nil {
		return err
	}

	reservations, err := sess.Client.MyReservations(ctx)
	if err != nil {
		return p.loadFailed(ctx, bot, sess, msgID, "reservations", err)
	}

	if err := p.edit(bot, sess.ChatID, msgID, view.ReservationsPage(len(reservations))); err != nil {
		return err
	}
	for _, r := range reservations {
		if _, err := p.send(bot, sess.ChatID, view.ReservationCard(r)); err != nil {
			return err
		}
	}
	return nil
}

// openForm replaces any pending form with f and asks its first question.
func (p pages) openForm(bot telegram.Sender, sess *session.Session, f *view.Form) error {
	sess.SetForm(f)
	_, err := p.send(bot, sess.ChatID, view.Card{Text: f.Prompt()})
	return err
}

// loadFailed turns the loading message into an error banner. The page's
// previous data stays as it was.
func (p pages) loadFailed(ctx context.Context, bot telegram.Sender, sess *session.Session, msgID int, what string, err error) error {
	p.logger.WithFields(logrus.Fields{
		"chat_id": sess.ChatID,
		"error":   err,
	}).Warnf("Failed to load %s", what)

	banner := fmt.Sprintf("⚠️ Failed to load %s: %s", what, wishapi.ErrorMessage(err, unknownError))
	if p.expire(ctx, sess, err) {
		banner = sessionExpiredMsg
	}
	msg := tgbotapi.NewEditMessageText(sess.ChatID, msgID, banner)
	if _, err := bot.Send(msg); err != nil {
		return fmt.Errorf("failed to show error banner: %w", err)
	}
	return nil
}

// writeFailed reports a failed mutation as a blocking alert on the button
// that triggered it.
func (p pages) writeFailed(ctx context.Context, bot telegram.Sender, sess *session.Session, queryID, operation string, err error) {
	p.logger.WithFields(logrus.Fields{
		"chat_id":   sess.ChatID,
		"operation": operation,
		"error":     err,
	}).Warn("Mutation failed")

	if p.expire(ctx, sess, err) {
		p.alert(bot, queryID, sessionExpiredMsg)
		return
	}
	p.alert(bot, queryID, failureText(operation, err))
}

// expire signs the chat out when the API has stopped accepting its cookie.
func (p pages) expire(ctx context.Context, sess *session.Session, err error) bool {
	if !wishapi.IsUnauthorized(err) || !sess.Authenticated() {
		return false
	}
	p.svc.Expire(ctx, sess)
	return true
}

func failureText(operation string, err error) string {
	return fmt.Sprintf("Failed to %s: %s", operation, wishapi.ErrorMessage(err, unknownError))
}

func (p pages) sendLoading(bot telegram.Sender, chatID int64) (int, error) {
	sent, err := bot.Send(tgbotapi.NewMessage(chatID, loadingText))
	if err != nil {
		return 0, fmt.Errorf("failed to send loading message: %w", err)
	}
	return sent.MessageID, nil
}

func (p pages) sendText(bot telegram.Sender, chatID int64, text string) error {
	if _, err := bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

func (p pages) send(bot telegram.Sender, chatID int64, card view.Card) (int, error) {
	if err := card.Validate(); err != nil {
		return 0, err
	}
	msg := tgbotapi.NewMessage(chatID, card.Text)
	msg.ParseMode = view.ParseMode
	if card.Keyboard != nil {
		msg.ReplyMarkup = *card.Keyboard
	}
	sent, err := bot.Send(msg)
	if err != nil {
		return 0, fmt.Errorf("failed to send message: %w", err)
	}
	return sent.MessageID, nil
}

func (p pages) edit(bot telegram.Sender, chatID int64, msgID int, card view.Card) error {
	if err := card.Validate(); err != nil {
		return err
	}
	var msg tgbotapi.EditMessageTextConfig
	if card.Keyboard != nil {
		msg = tgbotapi.NewEditMessageTextAndMarkup(chatID, msgID, card.Text, *card.Keyboard)
	} else {
		msg = tgbotapi.NewEditMessageText(chatID, msgID, card.Text)
	}
	msg.ParseMode = view.ParseMode
	if _, err := bot.Send(msg); err != nil {
		return fmt.Errorf("failed to edit message: %w", err)
	}
	return nil
}

// answer acknowledges a callback query with an optional toast.
func (p pages) answer(bot telegram.Sender, queryID, text string) {
	if _, err := bot.Request(tgbotapi.NewCallback(queryID, text)); err != nil {
		p.logger.WithError(err).Warn("Failed to answer callback query")
	}
}

// alert acknowledges a callback query with a blocking alert.
func (p pages) alert(bot telegram.Sender, queryID, text string) {
	if _, err := bot.Request(tgbotapi.NewCallbackWithAlert(queryID, text)); err != nil {
		p.logger.WithError(err).Warn("Failed to show alert")
	}
}

func (p pages) deleteMessage(bot telegram.Sender, chatID int64, msgID int) {
	if _, err := bot.Request(tgbotapi.NewDeleteMessage(chatID, msgID)); err != nil {
		p.logger.WithError(err).WithField("chat_id", chatID).Warn("Failed to delete message")
	}
}

func parseID(args []string) (int64, bool) {
	if len(args) == 0 {
		return 0, false
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
