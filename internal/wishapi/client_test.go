package wishapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/wishbot/internal/models"
)

func newTestLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

type recordedRequest struct {
	method string
	path   string
	body   map[string]any
	cookie string
}

type recorder struct {
	mu   sync.Mutex
	reqs []recordedRequest
}

func (r *recorder) all() []recordedRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]recordedRequest(nil), r.reqs...)
}

func newRecordingServer(t *testing.T, status int, response string) (*httptest.Server, *recorder) {
	t.Helper()
	got := &recorder{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recordedRequest{method: r.Method, path: r.URL.Path}
		if c, err := r.Cookie("session"); err == nil {
			rec.cookie = c.Value
		}
		if r.Body != nil {
			raw, _ := io.ReadAll(r.Body)
			if len(raw) > 0 {
				_ = json.Unmarshal(raw, &rec.body)
			}
		}
		if r.Header.Get("X-Request-ID") == "" {
			t.Errorf("%s %s: missing X-Request-ID", r.Method, r.URL.Path)
		}
		got.mu.Lock()
		got.reqs = append(got.reqs, rec)
		got.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, response)
	}))
	t.Cleanup(srv.Close)
	return srv, got
}

func TestOperationsMapToEndpoints(t *testing.T) {
	title := "Renamed"
	desc := "Lego"

	tests := []struct {
		name       string
		call       func(c *Client) error
		wantMethod string
		wantPath   string
		wantBody   map[string]any
	}{
		{"register", func(c *Client) error {
			age := 30
			_, err := c.Register(context.Background(), RegisterRequest{Username: "ann", Email: "a@x", Password: "pw", Name: "Ann", Age: &age})
			return err
		}, http.MethodPost, "/api/auth/register", map[string]any{"username": "ann", "email": "a@x", "password": "pw", "name": "Ann", "age": float64(30)}},
		{"login", func(c *Client) error {
			_, err := c.Login(context.Background(), "ann", "pw")
			return err
		}, http.MethodPost, "/api/auth/login", map[string]any{"username": "ann", "password": "pw"}},
		{"logout", func(c *Client) error { return c.Logout(context.Background()) }, http.MethodPost, "/api/auth/logout", nil},
		{"check", func(c *Client) error {
			_, err := c.CheckSession(context.Background())
			return err
		}, http.MethodGet, "/api/auth/check", nil},
		{"me", func(c *Client) error {
			_, err := c.Me(context.Background())
			return err
		}, http.MethodGet, "/api/auth/me", nil},
		{"list users", func(c *Client) error {
			_, err := c.ListUsers(context.Background())
			return err
		}, http.MethodGet, "/api/users", nil},
		{"get user", func(c *Client) error {
			_, _, err := c.GetUser(context.Background(), 7)
			return err
		}, http.MethodGet, "/api/users/7", nil},
		{"update profile", func(c *Client) error {
			return c.UpdateProfile(context.Background(), ProfileUpdate{Name: "Ann", About: "hi"})
		}, http.MethodPut, "/api/users/profile", map[string]any{"name": "Ann", "age": nil, "about": "hi"}},
		{"list events", func(c *Client) error {
			_, err := c.ListEvents(context.Background())
			return err
		}, http.MethodGet, "/api/events", nil},
		{"create event", func(c *Client) error {
			return c.CreateEvent(context.Background(), NewEvent{Title: "Birthday", Date: "2024-04-15"})
		}, http.MethodPost, "/api/events", map[string]any{"title": "Birthday", "date": "2024-04-15"}},
		{"update event", func(c *Client) error {
			return c.UpdateEvent(context.Background(), 3, EventUpdate{Title: &title})
		}, http.MethodPut, "/api/events/3", map[string]any{"title": "Renamed"}},
		{"delete event", func(c *Client) error { return c.DeleteEvent(context.Background(), 3) }, http.MethodDelete, "/api/events/3", nil},
		{"add wish", func(c *Client) error {
			return c.AddWish(context.Background(), 3, NewWish{Description: "Lego"})
		}, http.MethodPost, "/api/events/3/wishes", map[string]any{"description": "Lego"}},
		{"update wish", func(c *Client) error {
			return c.UpdateWish(context.Background(), 9, WishUpdate{Description: &desc})
		}, http.MethodPut, "/api/wishes/9", map[string]any{"description": "Lego"}},
		{"delete wish", func(c *Client) error { return c.DeleteWish(context.Background(), 9) }, http.MethodDelete, "/api/wishes/9", nil},
		{"reserve", func(c *Client) error { return c.ReserveWish(context.Background(), 9) }, http.MethodPost, "/api/wishes/9/reserve", nil},
		{"unreserve", func(c *Client) error { return c.UnreserveWish(context.Background(), 9) }, http.MethodDelete, "/api/wishes/9/unreserve", nil},
		{"reservations", func(c *Client) error {
			_, err := c.MyReservations(context.Background())
			return err
		}, http.MethodGet, "/api/my-reservations", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, got := newRecordingServer(t, http.StatusOK, `{}`)
			c, err := New(srv.URL, newTestLogger())
			if err != nil {
				t.Fatalf("New: %v", err)
			}

			if err := tt.call(c); err != nil {
				t.Fatalf("call failed: %v", err)
			}
			reqs := got.all()
			if len(reqs) != 1 {
				t.Fatalf("requests = %d, want 1", len(reqs))
			}
			req := reqs[0]
			if req.method != tt.wantMethod || req.path != tt.wantPath {
				t.Errorf("request = %s %s, want %s %s", req.method, req.path, tt.wantMethod, tt.wantPath)
			}
			if tt.wantBody != nil {
				for k, v := range tt.wantBody {
					if req.body[k] != v {
						t.Errorf("body[%q] = %#v, want %#v", k, req.body[k], v)
					}
				}
				if len(req.body) != len(tt.wantBody) {
					t.Errorf("body = %#v, want %#v", req.body, tt.wantBody)
				}
			}
		})
	}
}

func TestSessionCookieIsAttached(t *testing.T) {
	var (
		mu         sync.Mutex
		lastCookie string
	)
	sentCookie := func() string {
		mu.Lock()
		defer mu.Unlock()
		return lastCookie
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		if c, err := r.Cookie("session"); err == nil {
			lastCookie = c.Value
		} else {
			lastCookie = ""
		}
		mu.Unlock()
		if r.URL.Path == "/api/auth/login" {
			http.SetCookie(w, &http.Cookie{Name: "session", Value: "abc", Path: "/"})
			_, _ = io.WriteString(w, `{"user":{"id":1,"username":"ann","name":"Ann"}}`)
			return
		}
		_, _ = io.WriteString(w, `{"events":[{"id":1,"title":"Birthday","date":"2024-04-15","wishes":[{"id":2,"description":"Lego","link":null,"reserved":true}]}]}`)
	}))
	defer srv.Close()

	c, err := New(srv.URL, newTestLogger())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	user, err := c.Login(context.Background(), "ann", "pw")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if user.ID != 1 || user.Name != "Ann" {
		t.Errorf("user = %+v", user)
	}

	events, err := c.ListEvents(context.Background())
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if got := sentCookie(); got != "abc" {
		t.Errorf("cookie sent = %q, want abc", got)
	}
	if len(events) != 1 || events[0].Date != "2024-04-15" || !events[0].Wishes[0].Reserved {
		t.Errorf("events = %+v", events)
	}

	saved := c.Cookies()
	if len(saved) != 1 || saved[0] != (models.SessionCookie{Name: "session", Value: "abc"}) {
		t.Fatalf("Cookies() = %+v", saved)
	}

	restored, err := New(srv.URL, newTestLogger())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	restored.SetCookies(saved)
	if _, err := restored.ListEvents(context.Background()); err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if got := sentCookie(); got != "abc" {
		t.Errorf("restored cookie sent = %q, want abc", got)
	}

	restored.ClearCookies()
	if len(restored.Cookies()) != 0 {
		t.Errorf("cookies after ClearCookies = %+v", restored.Cookies())
	}
	if _, err := restored.ListEvents(context.Background()); err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if got := sentCookie(); got != "" {
		t.Errorf("cleared client sent cookie %q", got)
	}
}

func TestErrorDecoding(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantMessage string
		wantText    string
	}{
		{"json error field", http.StatusUnauthorized, `{"error":"Invalid username or password"}`, "Invalid username or password", "Invalid username or password"},
		{"other json shape", http.StatusBadRequest, `{"message":"nope"}`, "", "Login failed"},
		{"not json", http.StatusBadGateway, `<html>bad gateway</html>`, "", "Login failed"},
		{"empty body", http.StatusInternalServerError, ``, "", "Login failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newRecordingServer(t, tt.status, tt.body)
			c, err := New(srv.URL, newTestLogger())
			if err != nil {
				t.Fatalf("New: %v", err)
			}

			_, err = c.Login(context.Background(), "ann", "bad")
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("err = %v, want *APIError", err)
			}
			if apiErr.Status != tt.status || apiErr.Message != tt.wantMessage {
				t.Errorf("APIError = %+v", apiErr)
			}
			if got := ErrorMessage(err, "Login failed"); got != tt.wantText {
				t.Errorf("ErrorMessage = %q, want %q", got, tt.wantText)
			}
		})
	}
}

func TestTransportErrorFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := New(url, newTestLogger())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = c.ListEvents(context.Background())
	if err == nil {
		t.Fatal("expected error from closed server")
	}
	if got := ErrorMessage(err, "Unknown error"); got != "Unknown error" {
		t.Errorf("ErrorMessage = %q", got)
	}
}

func TestNewRejectsBadBaseURL(t *testing.T) {
	for _, raw := range []string{"", "localhost:5000", "://bad"} {
		if _, err := New(raw, newTestLogger()); err == nil {
			t.Errorf("New(%q) should fail", raw)
		}
	}
}

func TestIsUnauthorized(t *testing.T) {
	if !IsUnauthorized(&APIError{Status: http.StatusUnauthorized}) {
		t.Error("401 should be unauthorized")
	}
	if IsUnauthorized(&APIError{Status: http.StatusForbidden}) {
		t.Error("403 should not be unauthorized")
	}
	if IsUnauthorized(errors.New("boom")) {
		t.Error("plain error should not be unauthorized")
	}
}
