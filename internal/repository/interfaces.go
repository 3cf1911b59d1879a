package repository

import (
	"context"

	"github.com/Kerhoff/wishbot/internal/models"
)

// SessionStore persists chat sessions across restarts.
type SessionStore interface {
	// Get returns the stored session for chatID, or nil when there is none.
	Get(ctx context.Context, chatID int64) (*models.ChatSession, error)
	Save(ctx context.Context, session *models.ChatSession) error
	Delete(ctx context.Context, chatID int64) error
}
