// Package session holds the per-chat application state: who is signed in,
// which page is showing, and the buffers the pages keep between updates.
//
// A Session is the chat's equivalent of a browser tab. Updates for one chat
// may be handled concurrently, so every accessor locks.
package session

import (
	"sync"
	"time"

	"github.com/Kerhoff/wishbot/internal/calendar"
	"github.com/Kerhoff/wishbot/internal/models"
	"github.com/Kerhoff/wishbot/internal/view"
	"github.com/Kerhoff/wishbot/internal/wishapi"
)

// Page is a navigation target
type Page string

const (
	PageHome         Page = "home"
	PageProfile      Page = "profile"
	PageBrowse       Page = "browse"
	PageUserProfile  Page = "userProfile"
	PageReservations Page = "reservations"
)

// ParsePage returns the page named s, or PageHome for unknown names.
func ParsePage(s string) Page {
	switch p := Page(s); p {
	case PageProfile, PageBrowse, PageUserProfile, PageReservations:
		return p
	default:
		return PageHome
	}
}

// Session is one chat's state. Client carries the chat's API cookie.
type Session struct {
	ChatID int64
	Client *wishapi.Client

	initMu    sync.Mutex
	initDone  bool
	initTries int

	mu          sync.Mutex
	user        *models.User
	page        Page
	viewingUser *models.User
	month       time.Time
	events      []models.Event
	form        *view.Form
}

// New creates a signed-out session showing the home page and the month of now.
func New(chatID int64, client *wishapi.Client, now time.Time) *Session {
	return &Session{
		ChatID: chatID,
		Client: client,
		page:   PageHome,
		month:  calendar.FirstOfMonth(now),
	}
}

// Init runs fn until it reports done; after that it is a no-op for the
// lifetime of the session. Concurrent callers wait for the running attempt.
// first is true only on the first attempt.
func (s *Session) Init(fn func(first bool) (done bool)) {
	s.initMu.Lock()
	defer s.initMu.Unlock()
	if s.initDone {
		return
	}
	s.initDone = fn(s.initTries == 0)
	s.initTries++
}

// User returns the signed-in user, or nil.
func (s *Session) User() *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

// Authenticated reports whether a user is signed in.
func (s *Session) Authenticated() bool {
	return s.User() != nil
}

// SignIn records user as signed in and shows their profile.
func (s *Session) SignIn(user *models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = user
	s.page = PageProfile
}

// SetUser replaces the signed-in user's data without navigating.
func (s *Session) SetUser(user *models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = user
}

// SignOut forgets the user and every page buffer and returns to home.
func (s *Session) SignOut() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = nil
	s.page = PageHome
	s.viewingUser = nil
	s.events = nil
	s.form = nil
}

// Page returns the current page.
func (s *Session) Page() Page {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.page
}

// Navigate switches page. viewing, when not nil, becomes the viewed user.
func (s *Session) Navigate(page Page, viewing *models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.page = page
	if viewing != nil {
		s.viewingUser = viewing
	}
}

// ViewingUser returns the user whose profile is (or was last) open.
func (s *Session) ViewingUser() *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewingUser
}

// Month returns the calendar's reference month.
func (s *Session) Month() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.month
}

// SetMonth moves the calendar to the month containing t.
func (s *Session) SetMonth(t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.month = calendar.FirstOfMonth(t)
}

// Events returns the profile page's last fetched events.
func (s *Session) Events() []models.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.events
}

// SetEvents replaces the profile page's events with a fresh fetch.
func (s *Session) SetEvents(events []models.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = events
}

// Form returns the pending form, or nil.
func (s *Session) Form() *view.Form {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.form
}

// SetForm opens a form, replacing any pending one. nil closes it.
func (s *Session) SetForm(f *view.Form) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.form = f
}

// UpdateForm runs fn on the pending form while holding the session lock and
// closes the form when fn returns true. fn must not call back into the
// session. It reports whether a form was pending.
func (s *Session) UpdateForm(fn func(f *view.Form) (closeForm bool)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.form == nil {
		return false
	}
	if fn(s.form) {
		s.form = nil
	}
	return true
}

// FindEvent looks an event up in the profile page's last fetch.
func (s *Session) FindEvent(id int64) (models.Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.events {
		if e.ID == id {
			return e, true
		}
	}
	return models.Event{}, false
}

// FindWish looks a wish up in the profile page's last fetch.
func (s *Session) FindWish(id int64) (models.Wish, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.events {
		for _, w := range e.Wishes {
			if w.ID == id {
				return w, true
			}
		}
	}
	return models.Wish{}, false
}

// Snapshot returns the persistable part of the session.
func (s *Session) Snapshot() *models.ChatSession {
	s.mu.Lock()
	page, month := s.page, s.month
	var viewingID *int64
	if s.viewingUser != nil {
		id := s.viewingUser.ID
		viewingID = &id
	}
	s.mu.Unlock()

	return &models.ChatSession{
		ChatID:        s.ChatID,
		Cookies:       s.Client.Cookies(),
		Page:          string(page),
		ViewingUserID: viewingID,
		Month:         calendar.MonthKey(month),
		UpdatedAt:     time.Now(),
	}
}

// Restore applies a persisted snapshot. The user is not restored: whether the
// cookie is still valid is for the API to say.
func (s *Session) Restore(saved *models.ChatSession) {
	s.Client.SetCookies(saved.Cookies)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.page = ParsePage(saved.Page)
	if saved.ViewingUserID != nil {
		s.viewingUser = &models.User{ID: *saved.ViewingUserID}
	}
	if m, err := calendar.ParseMonth(saved.Month); err == nil {
		s.month = m
	}
}
