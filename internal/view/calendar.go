package view

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Kerhoff/wishbot/internal/calendar"
	"github.com/Kerhoff/wishbot/internal/models"
)

// EventGrid builds the calendar grid for month, keyed on the raw event dates.
func EventGrid(month time.Time, events []models.Event) calendar.Grid[models.Event] {
	return calendar.Build(month, events, func(e models.Event) string { return e.Date })
}

// CalendarKeyboard renders the month grid as an inline keyboard: a navigation
// row, the weekday header and one row per week. Days carrying events are
// marked; pressing a day sends its canonical key back unchanged.
func CalendarKeyboard(grid calendar.Grid[models.Event]) tgbotapi.InlineKeyboardMarkup {
	monthKey := calendar.MonthKey(grid.Month)

	rows := [][]tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("←", Data(ScopeCalendar, "prev", monthKey)),
			tgbotapi.NewInlineKeyboardButtonData(grid.Title(), Noop),
			tgbotapi.NewInlineKeyboardButtonData("→", Data(ScopeCalendar, "next", monthKey)),
		),
	}

	header := make([]tgbotapi.InlineKeyboardButton, 0, 7)
	for _, wd := range calendar.Weekdays {
		header = append(header, tgbotapi.NewInlineKeyboardButtonData(wd, Noop))
	}
	rows = append(rows, header)

	for _, week := range grid.Rows() {
		row := make([]tgbotapi.InlineKeyboardButton, 0, 7)
		for _, cell := range week {
			row = append(row, dayButton(cell))
		}
		// Pad the last week so the columns stay aligned.
		for len(row) < 7 {
			row = append(row, tgbotapi.NewInlineKeyboardButtonData(" ", Noop))
		}
		rows = append(rows, row)
	}

	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func dayButton(cell calendar.Cell[models.Event]) tgbotapi.InlineKeyboardButton {
	if cell.Empty() {
		return tgbotapi.NewInlineKeyboardButtonData(" ", Noop)
	}
	label := strconv.Itoa(cell.Day)
	if len(cell.Events) > 0 {
		label += "•"
	}
	return tgbotapi.NewInlineKeyboardButtonData(label, Data(ScopeCalendar, "day", cell.Key))
}

// ProfilePage renders the signed-in user's page: profile summary, the events of
// the visible month and the calendar keyboard with navigation underneath.
func ProfilePage(user *models.User, grid calendar.Grid[models.Event], total int) Card {
	var sb strings.Builder
	sb.WriteString(ProfileHeader(user))
	sb.WriteString(fmt.Sprintf("\n📅 <b>%s</b>\n", Escape(grid.Title())))

	inMonth := 0
	for _, cell := range grid.Cells {
		for _, e := range cell.Events {
			sb.WriteString(fmt.Sprintf("%d — %s (%d wishes, %d reserved)\n",
				cell.Day, Escape(e.Title), len(e.Wishes), e.ReservedCount()))
			inMonth++
		}
	}
	if inMonth == 0 {
		sb.WriteString("<i>No events this month.</i>\n")
	}

	if total == 0 {
		sb.WriteString("\n<i>No events yet. Tap a day to create one.</i>")
	} else {
		sb.WriteString(fmt.Sprintf("\n<i>%d events in total. Tap a day to add another.</i>", total))
	}

	kb := CalendarKeyboard(grid)
	kb.InlineKeyboard = append(kb.InlineKeyboard,
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⚙️ Edit profile", Data(ScopeNav, "editprofile")),
			tgbotapi.NewInlineKeyboardButtonData("🚪 Logout", Data(ScopeNav, "logout")),
		),
		NavKeyboardRow(),
	)
	return Card{Text: sb.String(), Keyboard: &kb}
}
