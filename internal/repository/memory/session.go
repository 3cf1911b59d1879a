// Package memory keeps chat sessions in process memory. Sessions are lost on
// restart.
package memory

import (
	"context"
	"sync"

	"github.com/Kerhoff/wishbot/internal/models"
	"github.com/Kerhoff/wishbot/internal/repository"
)

type sessionStore struct {
	mu       sync.RWMutex
	sessions map[int64]models.ChatSession
}

// NewSessionStore creates an empty in-memory session store
func NewSessionStore() repository.SessionStore {
	return &sessionStore{sessions: make(map[int64]models.ChatSession)}
}

func (s *sessionStore) Get(_ context.Context, chatID int64) (*models.ChatSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	saved, ok := s.sessions[chatID]
	if !ok {
		return nil, nil
	}
	return clone(saved), nil
}

func (s *sessionStore) Save(_ context.Context, session *models.ChatSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[session.ChatID] = *clone(*session)
	return nil
}

func (s *sessionStore) Delete(_ context.Context, chatID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, chatID)
	return nil
}

// clone copies the slices and pointers so callers cannot mutate stored state.
func clone(cs models.ChatSession) *models.ChatSession {
	out := cs
	out.Cookies = append([]models.SessionCookie(nil), cs.Cookies...)
	if cs.ViewingUserID != nil {
		id := *cs.ViewingUserID
		out.ViewingUserID = &id
	}
	return &out
}
