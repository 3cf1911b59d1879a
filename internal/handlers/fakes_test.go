package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/wishbot/internal/repository/memory"
	"github.com/Kerhoff/wishbot/internal/service"
	"github.com/Kerhoff/wishbot/internal/telegram"
)

const testChatID int64 = 500

const (
	annJSON       = `{"id":1,"username":"ann","name":"Ann"}`
	annEventsJSON = `{"events":[{"id":4,"user_id":1,"title":"Birthday","date":"2024-04-15","wishes":[` +
		`{"id":10,"event_id":4,"description":"Lego","reserved":true},` +
		`{"id":11,"event_id":4,"description":"Book","reserved":false}]}]}`
	usersJSON    = `{"users":[` + annJSON + `,{"id":2,"username":"bob","name":"Bob","event_count":1}]}`
	bobJSON      = `{"user":{"id":2,"username":"bob","name":"Bob"},"events":[{"id":5,"user_id":2,"title":"Xmas","date":"2024-12-25","wishes":[{"id":21,"event_id":5,"description":"Socks","reserved":false}]}]}`
	reservedJSON = `{"reservations":[{"reservation":{"id":1,"wish_id":21,"reserved_by":1},` +
		`"wish":{"id":21,"description":"Socks","reserved":true},` +
		`"event":{"id":5,"title":"Xmas","date":"2024-12-25"},"event_owner":{"id":2,"name":"Bob"}}]}`
)

type apiRequest struct {
	method string
	path   string
	body   map[string]any
}

type cannedResponse struct {
	status int
	body   string
}

// fakeAPI stands in for the Wishlist API. Only ann can log in, with
// password; every other route answers from canned responses that tests may
// override.
type fakeAPI struct {
	mu        sync.Mutex
	password  string
	requests  []apiRequest
	responses map[string]cannedResponse
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{password: "secret", responses: map[string]cannedResponse{
		"GET /api/events":             {http.StatusOK, annEventsJSON},
		"GET /api/users":              {http.StatusOK, usersJSON},
		"GET /api/users/2":            {http.StatusOK, bobJSON},
		"GET /api/my-reservations":    {http.StatusOK, reservedJSON},
		"GET /api/auth/me":            {http.StatusOK, `{"user":{"id":1,"username":"ann","name":"Ann B"}}`},
		"POST /api/auth/register":     {http.StatusCreated, `{"user":{"id":3,"username":"cid","name":"Cid"}}`},
		"POST /api/wishes/21/reserve": {http.StatusOK, `{"message":"Wish reserved"}`},
	}}
}

func (f *fakeAPI) setPassword(password string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.password = password
}

func (f *fakeAPI) set(route string, status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[route] = cannedResponse{status, body}
}

func (f *fakeAPI) count(route string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, r := range f.requests {
		if r.method+" "+r.path == route {
			n++
		}
	}
	return n
}

func (f *fakeAPI) last(route string) (apiRequest, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.requests) - 1; i >= 0; i-- {
		if r := f.requests[i]; r.method+" "+r.path == route {
			return r, true
		}
	}
	return apiRequest{}, false
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	_ = json.NewDecoder(r.Body).Decode(&body)

	f.mu.Lock()
	f.requests = append(f.requests, apiRequest{method: r.Method, path: r.URL.Path, body: body})
	canned, ok := f.responses[r.Method+" "+r.URL.Path]
	password := f.password
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch r.Method + " " + r.URL.Path {
	case "GET /api/auth/check":
		if c, err := r.Cookie("session"); err == nil && c.Value == "ann" {
			_, _ = io.WriteString(w, `{"authenticated":true,"user":`+annJSON+`}`)
			return
		}
		_, _ = io.WriteString(w, `{"authenticated":false}`)
		return
	case "POST /api/auth/login":
		if body["username"] != "ann" || body["password"] != password {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"error":"Invalid username or password"}`)
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "session", Value: "ann", Path: "/"})
		_, _ = io.WriteString(w, `{"user":`+annJSON+`}`)
		return
	}

	if !ok {
		canned = cannedResponse{http.StatusOK, `{"message":"ok"}`}
	}
	w.WriteHeader(canned.status)
	_, _ = io.WriteString(w, canned.body)
}

// fakeBot records everything the handlers send to Telegram.
type fakeBot struct {
	mu       sync.Mutex
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
}

func (b *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sent = append(b.sent, c)
	return tgbotapi.Message{MessageID: 1000 + len(b.sent)}, nil
}

func (b *fakeBot) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.requests = append(b.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (b *fakeBot) reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sent, b.requests = nil, nil
}

// texts returns the text of every new message and edit, in order.
func (b *fakeBot) texts() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []string
	for _, c := range b.sent {
		switch m := c.(type) {
		case tgbotapi.MessageConfig:
			out = append(out, m.Text)
		case tgbotapi.EditMessageTextConfig:
			out = append(out, m.Text)
		}
	}
	return out
}

func (b *fakeBot) edits() []tgbotapi.EditMessageTextConfig {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []tgbotapi.EditMessageTextConfig
	for _, c := range b.sent {
		if m, ok := c.(tgbotapi.EditMessageTextConfig); ok {
			out = append(out, m)
		}
	}
	return out
}

func (b *fakeBot) callbacks() []tgbotapi.CallbackConfig {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []tgbotapi.CallbackConfig
	for _, c := range b.requests {
		if cb, ok := c.(tgbotapi.CallbackConfig); ok {
			out = append(out, cb)
		}
	}
	return out
}

func (b *fakeBot) deleted() []int {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []int
	for _, c := range b.requests {
		if d, ok := c.(tgbotapi.DeleteMessageConfig); ok {
			out = append(out, d.MessageID)
		}
	}
	return out
}

func (b *fakeBot) saw(substr string) bool {
	for _, t := range b.texts() {
		if strings.Contains(t, substr) {
			return true
		}
	}
	return false
}

type harness struct {
	api    *fakeAPI
	bot    *fakeBot
	router *telegram.Router
	svc    *service.Service
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	l := logrus.New()
	l.SetOutput(io.Discard)

	api := newFakeAPI()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	svc := service.New(srv.URL, memory.NewSessionStore(), l)
	router := telegram.NewRouter(l)
	Register(router, svc, l)

	return &harness{api: api, bot: &fakeBot{}, router: router, svc: svc}
}

func (h *harness) command(text string) {
	cmd := strings.Fields(text)[0]
	h.router.HandleMessage(h.bot, &tgbotapi.Message{
		MessageID: 77,
		Chat:      &tgbotapi.Chat{ID: testChatID},
		From:      &tgbotapi.User{ID: 9},
		Text:      text,
		Entities:  []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(cmd)}},
	})
}

func (h *harness) text(text string) {
	h.router.HandleMessage(h.bot, &tgbotapi.Message{
		MessageID: 78,
		Chat:      &tgbotapi.Chat{ID: testChatID},
		From:      &tgbotapi.User{ID: 9},
		Text:      text,
	})
}

func (h *harness) press(data string) {
	h.router.HandleCallbackQuery(h.bot, &tgbotapi.CallbackQuery{
		ID:   "q",
		From: &tgbotapi.User{ID: 9},
		Message: &tgbotapi.Message{
			MessageID: 42,
			Chat:      &tgbotapi.Chat{ID: testChatID},
		},
		Data: data,
	})
}

func (h *harness) login(t *testing.T) {
	t.Helper()
	h.command("/login ann secret")
	if !h.bot.saw("Welcome back, Ann") {
		t.Fatalf("login failed: %v", h.bot.texts())
	}
	h.bot.reset()
}
