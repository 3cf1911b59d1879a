package service

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
	"github.com/Kerhoff/wishbot/internal/repository/memory"
	"github.com/Kerhoff/wishbot/internal/session"
	"github.com/Kerhoff/wishbot/internal/wishapi"
)

func newTestLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// fakeAPI accepts ann/secret and counts session checks. While down it drops
// every connection without answering.
type fakeAPI struct {
	mu     sync.Mutex
	checks int
	down   bool
}

func (f *fakeAPI) setDown(down bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.down = down
}

func (f *fakeAPI) checkCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.checks
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	down := f.down
	f.mu.Unlock()
	if down {
		if conn, _, err := w.(http.Hijacker).Hijack(); err == nil {
			conn.Close()
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	switch r.URL.Path {
	case "/api/auth/check":
		f.mu.Lock()
		f.checks++
		f.mu.Unlock()
		if c, err := r.Cookie("session"); err == nil && c.Value == "valid" {
			_, _ = io.WriteString(w, `{"authenticated":true,"user":{"id":1,"username":"ann","name":"Ann"}}`)
			return
		}
		_, _ = io.WriteString(w, `{"authenticated":false}`)
	case "/api/auth/login":
		var body struct{ Username, Password string }
		_ = decodeBody(r, &body)
		if body.Password != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"error":"Invalid credentials"}`)
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "session", Value: "valid", Path: "/"})
		_, _ = io.WriteString(w, `{"user":{"id":1,"username":"ann","name":"Ann"}}`)
	case "/api/auth/logout":
		http.SetCookie(w, &http.Cookie{Name: "session", Value: "", Path: "/", MaxAge: -1})
		_, _ = io.WriteString(w, `{"message":"Logged out"}`)
	default:
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"error":"not found"}`)
	}
}

func newTestService(t *testing.T) (*Service, *fakeAPI) {
	t.Helper()
	api := &fakeAPI{}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)
	return New(srv.URL, memory.NewSessionStore(), newTestLogger()), api
}

func TestEnsureSessionChecksOnce(t *testing.T) {
	svc, api := newTestService(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.EnsureSession(ctx, 7); err != nil {
				t.Errorf("EnsureSession: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := api.checkCount(); got != 1 {
		t.Errorf("session checks = %d, want 1", got)
	}
	if svc.SessionCount() != 1 {
		t.Errorf("sessions = %d, want 1", svc.SessionCount())
	}

	sess, _ := svc.EnsureSession(ctx, 7)
	if sess.Authenticated() || sess.Page() != session.PageHome {
		t.Errorf("fresh chat: auth=%v page=%q", sess.Authenticated(), sess.Page())
	}
}

func TestSessionCheckRetriesWhileAPIUnreachable(t *testing.T) {
	api := &fakeAPI{}
	srv := httptest.NewServer(api)
	defer srv.Close()
	ctx := context.Background()

	store := memory.NewSessionStore()
	if err := store.Save(ctx, &models.ChatSession{
		ChatID:  5,
		Cookies: []models.SessionCookie{{Name: "session", Value: "valid"}},
		Page:    "browse",
	}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	svc := New(srv.URL, store, newTestLogger())

	api.setDown(true)
	sess, err := svc.EnsureSession(ctx, 5)
	if err != nil {
		t.Fatalf("EnsureSession: %v", err)
	}
	if sess.Authenticated() {
		t.Fatal("unreachable API cannot confirm the session")
	}

	api.setDown(false)
	for i := 0; i < 3; i++ {
		if _, err := svc.EnsureSession(ctx, 5); err != nil {
			t.Fatalf("EnsureSession: %v", err)
		}
	}
	if !sess.Authenticated() {
		t.Fatal("restored cookie should sign in once the API is back")
	}
	if sess.Page() != session.PageBrowse {
		t.Errorf("page = %q, want browse", sess.Page())
	}
	if got := api.checkCount(); got != 1 {
		t.Errorf("answered session checks = %d, want 1", got)
	}
}

func TestExpireSignsOut(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	sess, _ := svc.EnsureSession(ctx, 4)
	if _, err := svc.Login(ctx, sess, "ann", "secret"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	svc.Expire(ctx, sess)
	if sess.Authenticated() || len(sess.Client.Cookies()) != 0 {
		t.Errorf("auth=%v cookies=%+v", sess.Authenticated(), sess.Client.Cookies())
	}
}

func TestFailedLoginLeavesSessionSignedOut(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	sess, _ := svc.EnsureSession(ctx, 1)

	_, err := svc.Login(ctx, sess, "ann", "wrong")
	if err == nil {
		t.Fatal("expected login error")
	}
	if msg := wishapi.ErrorMessage(err, "Unknown error"); msg != "Invalid credentials" {
		t.Errorf("error message = %q", msg)
	}
	if sess.Authenticated() || sess.Page() != session.PageHome {
		t.Errorf("auth=%v page=%q", sess.Authenticated(), sess.Page())
	}
}

func TestLoginPersistsAndRestores(t *testing.T) {
	api := &fakeAPI{}
	srv := httptest.NewServer(api)
	defer srv.Close()
	store := memory.NewSessionStore()
	ctx := context.Background()

	svc := New(srv.URL, store, newTestLogger())
	sess, _ := svc.EnsureSession(ctx, 3)
	user, err := svc.Login(ctx, sess, "ann", "secret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if user.Name != "Ann" || sess.Page() != session.PageProfile {
		t.Errorf("user=%+v page=%q", user, sess.Page())
	}
	svc.Navigate(ctx, sess, session.PageBrowse, nil)

	// a restarted process sees the same store
	restarted := New(srv.URL, store, newTestLogger())
	again, err := restarted.EnsureSession(ctx, 3)
	if err != nil {
		t.Fatalf("EnsureSession: %v", err)
	}
	if !again.Authenticated() {
		t.Fatal("restored session should be signed in")
	}
	if again.Page() != session.PageBrowse {
		t.Errorf("page = %q, want browse", again.Page())
	}
}

func TestLogout(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	sess, _ := svc.EnsureSession(ctx, 9)
	if _, err := svc.Login(ctx, sess, "ann", "secret"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	if err := svc.Logout(ctx, sess); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if sess.Authenticated() || sess.Page() != session.PageHome {
		t.Errorf("auth=%v page=%q", sess.Authenticated(), sess.Page())
	}
	if len(sess.Client.Cookies()) != 0 {
		t.Errorf("cookies survive logout: %+v", sess.Client.Cookies())
	}
}

type failingStore struct{}

var errStore = errors.New("store down")

func (failingStore) Get(context.Context, int64) (*models.ChatSession, error) { return nil, errStore }
func (failingStore) Save(context.Context, *models.ChatSession) error         { return errStore }
func (failingStore) Delete(context.Context, int64) error                     { return errStore }

func TestStoreFailuresDoNotBreakTheChat(t *testing.T) {
	api := &fakeAPI{}
	srv := httptest.NewServer(api)
	defer srv.Close()
	svc := New(srv.URL, failingStore{}, newTestLogger())
	ctx := context.Background()

	sess, err := svc.EnsureSession(ctx, 1)
	if err != nil {
		t.Fatalf("EnsureSession: %v", err)
	}
	if _, err := svc.Login(ctx, sess, "ann", "secret"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if !sess.Authenticated() {
		t.Error("login should succeed even when the store is down")
	}
}

func TestClientFactoryError(t *testing.T) {
	svc := NewWithClientFactory(func() (*wishapi.Client, error) {
		return nil, errors.New("no client")
	}, memory.NewSessionStore(), newTestLogger())

	if _, err := svc.EnsureSession(context.Background(), 1); err == nil {
		t.Fatal("expected an error")
	}
	if svc.SessionCount() != 0 {
		t.Error("failed sessions must not be registered")
	}
}

func decodeBody(r *http.Request, dst any) error {
	return json.NewDecoder(r.Body).Decode(dst)
}
