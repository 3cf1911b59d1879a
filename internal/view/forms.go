package view

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Kerhoff/wishbot/internal/models"
)

// FormKind identifies what a completed form is submitted as.
type FormKind string

const (
	FormRegister    FormKind = "register"
	FormAddEvent    FormKind = "add_event"
	FormAddWish     FormKind = "add_wish"
	FormEditEvent   FormKind = "edit_event"
	FormEditWish    FormKind = "edit_wish"
	FormEditProfile FormKind = "edit_profile"
)

const (
	skipInput = "-"
	keepInput = "="
)

var (
	ErrRequired  = errors.New("this field is required")
	ErrNotNumber = errors.New("please send a whole number")
)

// Field is one prompt of a form.
type Field struct {
	Name     string
	Prompt   string
	Optional bool
	Numeric  bool
	Secret   bool
	// Current is the value being edited, if any; "=" keeps it.
	Current string
}

// Form buffers a multi-step input collected one chat message at a time.
// Only required-field and number checks happen here; everything else is the
// API's call.
type Form struct {
	Kind     FormKind
	Title    string
	Fields   []Field
	TargetID int64
	Date     string

	step   int
	values map[string]string
}

func newForm(kind FormKind, title string, fields ...Field) *Form {
	return &Form{Kind: kind, Title: title, Fields: fields, values: make(map[string]string)}
}

// NewRegisterForm asks for the registration fields.
func NewRegisterForm() *Form {
	return newForm(FormRegister, "📝 <b>Register</b>",
		Field{Name: "username", Prompt: "Choose a username"},
		Field{Name: "email", Prompt: "Your email"},
		Field{Name: "password", Prompt: "Choose a password", Secret: true},
		Field{Name: "name", Prompt: "Your full name"},
		Field{Name: "age", Prompt: "Your age", Optional: true, Numeric: true},
		Field{Name: "about", Prompt: "Tell us about yourself", Optional: true},
	)
}

// NewEventForm asks for the title of a new event on date, a canonical key
// taken from the calendar.
func NewEventForm(date string) *Form {
	f := newForm(FormAddEvent, fmt.Sprintf("📅 <b>New event on %s</b>", Escape(FormatDate(date))),
		Field{Name: "title", Prompt: "Event title"},
	)
	f.Date = date
	return f
}

// NewWishForm asks for a wish to add to an event.
func NewWishForm(eventID int64) *Form {
	f := newForm(FormAddWish, "🎁 <b>Add wish</b>",
		Field{Name: "description", Prompt: "What do you wish for?"},
		Field{Name: "link", Prompt: "Link to the item", Optional: true},
	)
	f.TargetID = eventID
	return f
}

// NewEventEditForm asks for a new event title.
func NewEventEditForm(event models.Event) *Form {
	f := newForm(FormEditEvent, "✏️ <b>Rename event</b>",
		Field{Name: "title", Prompt: "New title", Current: event.Title},
	)
	f.TargetID = event.ID
	return f
}

// NewWishEditForm asks for a wish's new description and link.
func NewWishEditForm(wish models.Wish) *Form {
	f := newForm(FormEditWish, "✏️ <b>Edit wish</b>",
		Field{Name: "description", Prompt: "Description", Current: wish.Description},
		Field{Name: "link", Prompt: "Link", Optional: true, Current: wish.Link},
	)
	f.TargetID = wish.ID
	return f
}

// NewProfileForm asks for the editable profile fields.
func NewProfileForm(user *models.User) *Form {
	age := ""
	if user.Age != nil {
		age = strconv.Itoa(*user.Age)
	}
	return newForm(FormEditProfile, "⚙️ <b>Edit profile</b>",
		Field{Name: "name", Prompt: "Full name", Current: user.Name},
		Field{Name: "age", Prompt: "Age", Optional: true, Numeric: true, Current: age},
		Field{Name: "about", Prompt: "About you", Optional: true, Current: user.About},
	)
}

// Done reports whether every field has been answered.
func (f *Form) Done() bool {
	return f.step >= len(f.Fields)
}

// Current returns the field awaiting input.
func (f *Form) Current() (Field, bool) {
	if f.Done() {
		return Field{}, false
	}
	return f.Fields[f.step], true
}

// Prompt renders the question for the current field.
func (f *Form) Prompt() string {
	field, ok := f.Current()
	if !ok {
		return f.Title
	}

	var sb strings.Builder
	sb.WriteString(f.Title)
	sb.WriteString(fmt.Sprintf("\n\n%s", Escape(field.Prompt)))
	if field.Optional {
		sb.WriteString(" <i>(optional)</i>")
	}
	sb.WriteString(":")
	if field.Current != "" {
		sb.WriteString(fmt.Sprintf("\nCurrent: %s", Escape(field.Current)))
		sb.WriteString("\nSend <code>=</code> to keep it.")
	}
	if field.Optional {
		sb.WriteString("\nSend <code>-</code> to leave it empty.")
	}
	sb.WriteString("\n\n/cancel to abort")
	return sb.String()
}

// Submit records input as the answer to the current field and advances.
// On error the form stays on the same field.
func (f *Form) Submit(input string) error {
	field, ok := f.Current()
	if !ok {
		return nil
	}

	value := strings.TrimSpace(input)
	switch {
	case value == keepInput && field.Current != "":
		value = field.Current
	case value == skipInput && field.Optional:
		value = ""
	}

	if value == "" && !field.Optional {
		return ErrRequired
	}
	if value != "" && field.Numeric {
		if _, err := strconv.Atoi(value); err != nil {
			return ErrNotNumber
		}
	}

	f.values[field.Name] = value
	f.step++
	return nil
}

// Value returns the answer recorded for a field.
func (f *Form) Value(name string) string {
	return f.values[name]
}

// IntValue returns a numeric answer, or nil when it was left empty.
func (f *Form) IntValue(name string) *int {
	v, err := strconv.Atoi(f.values[name])
	if err != nil {
		return nil
	}
	return &v
}
