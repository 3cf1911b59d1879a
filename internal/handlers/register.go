package handlers

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/wishbot/internal/service"
	"github.com/Kerhoff/wishbot/internal/telegram"
	"github.com/Kerhoff/wishbot/internal/view"
)

// Registrar is where handlers get wired: *telegram.Bot or *telegram.Router.
type Registrar interface {
	RegisterCommand(command string, handler telegram.CommandHandler)
	RegisterCallback(scope string, handler telegram.CallbackHandler)
	SetTextHandler(handler telegram.TextHandler)
}

// Commands is the command menu published to Telegram.
var Commands = []tgbotapi.BotCommand{
	{Command: "start", Description: "Home"},
	{Command: "profile", Description: "Your calendar and events"},
	{Command: "browse", Description: "Everyone else's wishlists"},
	{Command: "reservations", Description: "Gifts you reserved"},
	{Command: "login", Description: "Sign in: /login <username> <password>"},
	{Command: "register", Description: "Create an account"},
	{Command: "editprofile", Description: "Edit your profile"},
	{Command: "logout", Description: "Sign out"},
	{Command: "cancel", Description: "Abort the current form"},
	{Command: "help", Description: "All commands"},
}

// Register wires every command, callback scope and the form text handler.
func Register(r Registrar, svc *service.Service, logger *logrus.Logger) {
	r.RegisterCommand("start", NewStartHandler(svc, logger))
	r.RegisterCommand("help", NewHelpHandler(logger))

	// Home
	r.RegisterCommand("login", NewLoginHandler(svc, logger))
	r.RegisterCommand("register", NewRegisterHandler(svc, logger))
	r.RegisterCommand("logout", NewLogoutHandler(svc, logger))

	// Pages
	r.RegisterCommand("profile", NewProfileHandler(svc, logger))
	r.RegisterCommand("editprofile", NewEditProfileHandler(svc, logger))
	r.RegisterCommand("browse", NewBrowseHandler(svc, logger))
	r.RegisterCommand("user", NewUserHandler(svc, logger))
	r.RegisterCommand("reservations", NewReservationsHandler(svc, logger))

	// Forms
	r.RegisterCommand("cancel", NewCancelHandler(svc, logger))
	r.SetTextHandler(NewFormHandler(svc, logger))

	// Inline keyboards
	r.RegisterCallback(view.ScopeCalendar, NewCalendarCallbacks(svc, logger))
	r.RegisterCallback(view.ScopeEvent, NewEventCallbacks(svc, logger))
	r.RegisterCallback(view.ScopeWish, NewWishCallbacks(svc, logger))
	r.RegisterCallback(view.ScopeUser, NewUserCallbacks(svc, logger))
	r.RegisterCallback(view.ScopeReservation, NewReservationCallbacks(svc, logger))
	r.RegisterCallback(view.ScopeNav, NewNavCallbacks(svc, logger))
}
