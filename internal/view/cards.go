// Package view renders pages, cards and forms as Telegram messages.
//
// Nothing here talks to the API or keeps state: renderers take the data of the
// last fetch and return text and inline keyboards. User intents come back as
// callback data built with Data.
package view

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Kerhoff/wishbot/internal/models"
)

// Wish status labels
const (
	StatusAvailable       = "Available"
	StatusReserved        = "Reserved"
	StatusAlreadyReserved = "Already reserved"
)

// ParseMode is the Telegram parse mode of every Card.
const ParseMode = tgbotapi.ModeHTML

// Card is a rendered message: HTML text plus an optional keyboard.
type Card struct {
	Text     string
	Keyboard *tgbotapi.InlineKeyboardMarkup
}

// Escape escapes user-provided text for HTML messages. Escaped text may sit
// inside <b> and <i> entities.
func Escape(s string) string {
	return tgbotapi.EscapeText(ParseMode, s)
}

// FormatDate renders an event date as "April 15, 2024". Dates that do not
// parse are shown as stored.
func FormatDate(date string) string {
	t, err := time.Parse(models.DateLayout, date)
	if err != nil {
		return date
	}
	return t.Format("January 2, 2006")
}

// EventCard renders an event with its wishes.
//
// Owners see each wish as Available or Reserved and never learn who reserved
// it; they get add/rename/delete controls. Other viewers get a Reserve button
// on every wish that is still free.
func EventCard(event models.Event, isOwner bool) Card {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🎉 <b>%s</b>\n📆 %s\n", Escape(event.Title), Escape(FormatDate(event.Date))))
	if event.Description != "" {
		sb.WriteString(fmt.Sprintf("<i>%s</i>\n", Escape(event.Description)))
	}
	sb.WriteString("\n")

	var rows [][]tgbotapi.InlineKeyboardButton

	if len(event.Wishes) == 0 {
		if isOwner {
			sb.WriteString("<i>No wishes added yet</i>")
		} else {
			sb.WriteString("<i>No wishes yet</i>")
		}
	}

	for i, wish := range event.Wishes {
		n := strconv.Itoa(i + 1)
		sb.WriteString(fmt.Sprintf("%s. %s", n, Escape(wish.Description)))
		if wish.Link != "" {
			sb.WriteString(fmt.Sprintf("\n   🔗 %s", Escape(wish.Link)))
		}
		sb.WriteString("\n   ")

		switch {
		case wish.Reserved && isOwner:
			sb.WriteString("🔒 " + StatusReserved)
		case wish.Reserved:
			sb.WriteString("🔒 " + StatusAlreadyReserved)
		case isOwner:
			sb.WriteString("✅ " + StatusAvailable)
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("✏️ Edit "+n, IDData(ScopeWish, "edit", wish.ID)),
				tgbotapi.NewInlineKeyboardButtonData("🗑 Delete "+n, IDData(ScopeWish, "del", wish.ID)),
			))
		default:
			sb.WriteString("🎁 Free")
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("🎁 Reserve "+n, IDData(ScopeWish, "res", wish.ID)),
			))
		}
		sb.WriteString("\n")
	}

	if isOwner {
		rows = append([][]tgbotapi.InlineKeyboardButton{tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("➕ Add wish", IDData(ScopeEvent, "wish", event.ID)),
			tgbotapi.NewInlineKeyboardButtonData("✏️ Rename", IDData(ScopeEvent, "edit", event.ID)),
			tgbotapi.NewInlineKeyboardButtonData("🗑 Delete event", IDData(ScopeEvent, "del", event.ID)),
		)}, rows...)
	}

	card := Card{Text: strings.TrimRight(sb.String(), "\n")}
	if len(rows) > 0 {
		kb := tgbotapi.NewInlineKeyboardMarkup(rows...)
		card.Keyboard = &kb
	}
	return card
}

// ProfileHeader renders the signed-in user's profile summary.
func ProfileHeader(user *models.User) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("👤 <b>%s</b>", Escape(user.DisplayName())))
	if user.Username != "" {
		sb.WriteString(fmt.Sprintf(" (@%s)", Escape(user.Username)))
	}
	sb.WriteString("\n")
	if user.Age != nil {
		sb.WriteString(fmt.Sprintf("Age: %d\n", *user.Age))
	}
	if user.About != "" {
		sb.WriteString(fmt.Sprintf("<i>%s</i>\n", Escape(user.About)))
	}
	return sb.String()
}

// NavKeyboardRow is the navigation row shown under every signed-in page.
func NavKeyboardRow() []tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("🏠 My profile", Data(ScopeNav, "profile")),
		tgbotapi.NewInlineKeyboardButtonData("👥 Browse", Data(ScopeNav, "browse")),
		tgbotapi.NewInlineKeyboardButtonData("🎁 Reserved", Data(ScopeNav, "reservations")),
	)
}

// BrowsePage renders the list of other users.
func BrowsePage(users []models.User) Card {
	var sb strings.Builder
	sb.WriteString("👥 <b>Browse wishlists</b>\n\n")

	var rows [][]tgbotapi.InlineKeyboardButton
	if len(users) == 0 {
		sb.WriteString("<i>No other users yet. Invite your friends to join!</i>\n")
	}
	for _, u := range users {
		sb.WriteString(fmt.Sprintf("• <b>%s</b>", Escape(u.DisplayName())))
		sb.WriteString(fmt.Sprintf(" — %s\n", eventCount(u.EventCount)))
		if u.About != "" {
			sb.WriteString(fmt.Sprintf("   <i>%s</i>\n", Escape(u.About)))
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(u.DisplayName(), IDData(ScopeUser, "open", u.ID)),
		))
	}
	rows = append(rows, NavKeyboardRow())

	kb := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return Card{Text: strings.TrimRight(sb.String(), "\n"), Keyboard: &kb}
}

func eventCount(n int) string {
	if n == 1 {
		return "1 event"
	}
	return fmt.Sprintf("%d events", n)
}

// UserPage renders the heading of another user's profile.
func UserPage(user *models.User, events []models.Event) Card {
	var sb strings.Builder
	sb.WriteString(ProfileHeader(user))
	sb.WriteString("\n")
	if len(events) == 0 {
		sb.WriteString(fmt.Sprintf("<i>%s hasn't created any events yet.</i>", Escape(user.DisplayName())))
	} else {
		sb.WriteString(fmt.Sprintf("🎁 <b>%s's events</b> (%d)", Escape(user.DisplayName()), len(events)))
	}

	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("← Back to browse", Data(ScopeNav, "browse")),
			tgbotapi.NewInlineKeyboardButtonData("🏠 My profile", Data(ScopeNav, "profile")),
		),
	)
	return Card{Text: sb.String(), Keyboard: &kb}
}

// ReservationsPage renders the heading of the "my reservations" page.
func ReservationsPage(count int) Card {
	text := "🎁 <b>My reservations</b>\n\n"
	if count == 0 {
		text += "<i>You haven't reserved any gifts yet. Browse your friends' wishlists to find one.</i>"
	} else {
		text += fmt.Sprintf("<i>%d reserved gifts</i>", count)
	}
	kb := tgbotapi.NewInlineKeyboardMarkup(NavKeyboardRow())
	return Card{Text: text, Keyboard: &kb}
}

// ReservationCard renders one of the viewer's reservations.
func ReservationCard(r models.Reservation) Card {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🎁 <b>%s</b>\n", Escape(r.Wish.Description)))
	if r.Wish.Link != "" {
		sb.WriteString(fmt.Sprintf("🔗 %s\n", Escape(r.Wish.Link)))
	}
	sb.WriteString(fmt.Sprintf("For %s — %s, %s",
		Escape(r.EventOwner.DisplayName()),
		Escape(r.Event.Title),
		Escape(FormatDate(r.Event.Date)),
	))

	kb := tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("↩️ Unreserve", IDData(ScopeReservation, "undo", r.Wish.ID)),
	))
	return Card{Text: sb.String(), Keyboard: &kb}
}

// ConfirmCard asks a yes/no question in place of the card it was asked from.
func ConfirmCard(question, yesData, noData string) Card {
	kb := tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("✅ Yes, delete", yesData),
		tgbotapi.NewInlineKeyboardButtonData("✖️ Keep it", noData),
	))
	return Card{Text: "❓ " + Escape(question), Keyboard: &kb}
}

// Welcome is the home page text for signed-out chats.
const Welcome = `🎅 <b>Wishlist Santa</b>

Create wishlists for your special days and let friends reserve gifts anonymously!

• /login &lt;username&gt; &lt;password&gt; - Sign in
• /register - Create an account
• /help - All commands`
