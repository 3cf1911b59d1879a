package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/wishbot/internal/models"
	"github.com/Kerhoff/wishbot/internal/repository"
	"github.com/Kerhoff/wishbot/internal/session"
	"github.com/Kerhoff/wishbot/internal/wishapi"
)

// ClientFactory builds a fresh API client with its own cookie jar
type ClientFactory func() (*wishapi.Client, error)

// Service owns the per-chat sessions and keeps their persisted copies in
// the session store.
type Service struct {
	logger    *logrus.Logger
	store     repository.SessionStore
	newClient ClientFactory
	now       func() time.Time

	mu       sync.Mutex
	sessions map[int64]*session.Session
}

// New creates a Service. Sessions get API clients for apiBaseURL.
func New(apiBaseURL string, store repository.SessionStore, logger *logrus.Logger) *Service {
	return NewWithClientFactory(func() (*wishapi.Client, error) {
		return wishapi.New(apiBaseURL, logger)
	}, store, logger)
}

// NewWithClientFactory creates a Service with a custom client factory
func NewWithClientFactory(newClient ClientFactory, store repository.SessionStore, logger *logrus.Logger) *Service {
	return &Service{
		logger:    logger,
		store:     store,
		newClient: newClient,
		now:       time.Now,
		sessions:  make(map[int64]*session.Session),
	}
}

// EnsureSession returns the session for chatID, creating it on first contact.
// A new session restores its persisted state and then asks the API once
// whether its cookie is still signed in. Once the API has answered, the check
// never repeats for the lifetime of the process. When the API cannot be
// reached the session stays signed out and the check runs again on the next
// update.
func (s *Service) EnsureSession(ctx context.Context, chatID int64) (*session.Session, error) {
	s.mu.Lock()
	sess, ok := s.sessions[chatID]
	if !ok {
		client, err := s.newClient()
		if err != nil {
			s.mu.Unlock()
			return nil, fmt.Errorf("failed to create API client for chat %d: %w", chatID, err)
		}
		sess = session.New(chatID, client, s.now())
		s.sessions[chatID] = sess
	}
	s.mu.Unlock()

	sess.Init(func(first bool) bool { return s.initSession(ctx, sess, first) })
	return sess, nil
}

// initSession reports whether the session check got an answer from the API.
func (s *Service) initSession(ctx context.Context, sess *session.Session, first bool) bool {
	log := s.logger.WithField("chat_id", sess.ChatID)

	if first {
		saved, err := s.store.Get(ctx, sess.ChatID)
		if err != nil {
			log.WithError(err).Warn("Failed to load stored session")
		}
		if saved != nil {
			sess.Restore(saved)
		}
	} else if sess.Authenticated() {
		// signed in with /login since the last attempt
		return true
	}

	status, err := sess.Client.CheckSession(ctx)
	if err != nil {
		var apiErr *wishapi.APIError
		if !errors.As(err, &apiErr) {
			log.WithError(err).Warn("Session check failed, retrying on next update")
			return false
		}
		log.WithError(err).Warn("Session check failed")
		sess.Navigate(session.PageHome, nil)
		return true
	}
	if !status.Authenticated || status.User == nil {
		sess.SignOut()
		return true
	}

	sess.SetUser(status.User)
	if sess.Page() == session.PageHome {
		sess.Navigate(session.PageProfile, nil)
	}
	log.WithField("user_id", status.User.ID).Info("Session is signed in")
	return true
}

// Login signs the session in. On failure the session is left as it was.
func (s *Service) Login(ctx context.Context, sess *session.Session, username, password string) (*models.User, error) {
	user, err := sess.Client.Login(ctx, username, password)
	if err != nil {
		return nil, fmt.Errorf("failed to log in %q: %w", username, err)
	}

	sess.SignIn(user)
	s.Persist(ctx, sess)
	s.logger.WithFields(logrus.Fields{
		"chat_id": sess.ChatID,
		"user_id": user.ID,
	}).Info("User logged in")
	return user, nil
}

// Register creates an account and signs the session in
func (s *Service) Register(ctx context.Context, sess *session.Session, req wishapi.RegisterRequest) (*models.User, error) {
	user, err := sess.Client.Register(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to register %q: %w", req.Username, err)
	}

	sess.SignIn(user)
	s.Persist(ctx, sess)
	s.logger.WithFields(logrus.Fields{
		"chat_id": sess.ChatID,
		"user_id": user.ID,
	}).Info("User registered")
	return user, nil
}

// Logout signs the session out locally even when the API call fails; the
// returned error is only for logging.
func (s *Service) Logout(ctx context.Context, sess *session.Session) error {
	err := sess.Client.Logout(ctx)
	sess.SignOut()
	sess.Client.ClearCookies()

	if delErr := s.store.Delete(ctx, sess.ChatID); delErr != nil {
		s.logger.WithError(delErr).WithField("chat_id", sess.ChatID).Warn("Failed to delete stored session")
	}
	if err != nil {
		return fmt.Errorf("failed to log out: %w", err)
	}
	return nil
}

// Expire signs the session out after the API rejected its cookie. Unlike
// Logout it does not call the API.
func (s *Service) Expire(ctx context.Context, sess *session.Session) {
	sess.SignOut()
	sess.Client.ClearCookies()
	if err := s.store.Delete(ctx, sess.ChatID); err != nil {
		s.logger.WithError(err).WithField("chat_id", sess.ChatID).Warn("Failed to delete stored session")
	}
	s.logger.WithField("chat_id", sess.ChatID).Info("Session expired")
}

// Navigate switches the session's page and persists it
func (s *Service) Navigate(ctx context.Context, sess *session.Session, page session.Page, viewing *models.User) {
	sess.Navigate(page, viewing)
	s.Persist(ctx, sess)
}

// SetMonth moves the session's calendar and persists it
func (s *Service) SetMonth(ctx context.Context, sess *session.Session, month time.Time) {
	sess.SetMonth(month)
	s.Persist(ctx, sess)
}

// Persist saves the session snapshot. Store failures are logged and otherwise
// ignored: the chat keeps working, it just will not survive a restart.
func (s *Service) Persist(ctx context.Context, sess *session.Session) {
	if err := s.store.Save(ctx, sess.Snapshot()); err != nil {
		s.logger.WithError(err).WithField("chat_id", sess.ChatID).Warn("Failed to persist session")
	}
}

// SessionCount returns how many chats have a live session
func (s *Service) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
