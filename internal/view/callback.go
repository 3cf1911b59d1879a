package view

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Callback scopes. The router dispatches on the scope; the handler owning a
// scope interprets the action and its arguments.
const (
	ScopeCalendar    = "cal"
	ScopeEvent       = "ev"
	ScopeWish        = "wish"
	ScopeUser        = "user"
	ScopeNav         = "nav"
	ScopeReservation = "res"
	ScopeNoop        = "noop"
)

// maxCallbackData is Telegram's limit on callback_data.
const maxCallbackData = 64

// ErrCallbackDataTooLong is returned for keyboards Telegram would reject.
var ErrCallbackDataTooLong = errors.New("callback data exceeds 64 bytes")

// Data encodes callback data as scope:action[:arg...]. Oversized data is
// returned whole and caught by Card.Validate before sending.
func Data(scope, action string, args ...string) string {
	parts := append([]string{scope, action}, args...)
	return strings.Join(parts, ":")
}

// Validate checks every button of the card's keyboard against Telegram's
// callback data limit.
func (c Card) Validate() error {
	if c.Keyboard == nil {
		return nil
	}
	for _, row := range c.Keyboard.InlineKeyboard {
		for _, b := range row {
			if b.CallbackData != nil && len(*b.CallbackData) > maxCallbackData {
				return fmt.Errorf("%w: %q", ErrCallbackDataTooLong, *b.CallbackData)
			}
		}
	}
	return nil
}

// IDData encodes callback data carrying a single numeric id.
func IDData(scope, action string, id int64) string {
	return Data(scope, action, strconv.FormatInt(id, 10))
}

// Noop is the data of buttons that only decorate (headers, blank days).
var Noop = Data(ScopeNoop, "-")

// ParseData splits callback data into scope, action and arguments.
func ParseData(data string) (scope, action string, args []string) {
	parts := strings.Split(data, ":")
	scope = parts[0]
	if len(parts) > 1 {
		action = parts[1]
	}
	if len(parts) > 2 {
		args = parts[2:]
	}
	return scope, action, args
}
