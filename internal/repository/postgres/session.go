package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Kerhoff/wishbot/internal/models"
	"github.com/Kerhoff/wishbot/internal/repository"
)

type sessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a new session store backed by Postgres
func NewSessionRepository(db *sql.DB) repository.SessionStore {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) Get(ctx context.Context, chatID int64) (*models.ChatSession, error) {
	query := `
		SELECT chat_id, cookies, page, viewing_user_id, month, updated_at
		FROM chat_sessions
		WHERE chat_id = $1`

	var (
		cs      models.ChatSession
		cookies []byte
		viewing sql.NullInt64
	)
	err := r.db.QueryRowContext(ctx, query, chatID).Scan(
		&cs.ChatID,
		&cookies,
		&cs.Page,
		&viewing,
		&cs.Month,
		&cs.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get session for chat %d: %w", chatID, err)
	}

	if err := json.Unmarshal(cookies, &cs.Cookies); err != nil {
		return nil, fmt.Errorf("failed to decode cookies for chat %d: %w", chatID, err)
	}
	if viewing.Valid {
		id := viewing.Int64
		cs.ViewingUserID = &id
	}

	return &cs, nil
}

func (r *sessionRepository) Save(ctx context.Context, session *models.ChatSession) error {
	query := `
		INSERT INTO chat_sessions (chat_id, cookies, page, viewing_user_id, month, updated_at)
		VALUES ($1, $2::jsonb, $3, $4, $5, $6)
		ON CONFLICT (chat_id) DO UPDATE SET
			cookies = EXCLUDED.cookies,
			page = EXCLUDED.page,
			viewing_user_id = EXCLUDED.viewing_user_id,
			month = EXCLUDED.month,
			updated_at = EXCLUDED.updated_at`

	cookies := session.Cookies
	if cookies == nil {
		cookies = []models.SessionCookie{}
	}
	raw, err := json.Marshal(cookies)
	if err != nil {
		return fmt.Errorf("failed to encode cookies: %w", err)
	}

	var viewing sql.NullInt64
	if session.ViewingUserID != nil {
		viewing = sql.NullInt64{Int64: *session.ViewingUserID, Valid: true}
	}

	if session.UpdatedAt.IsZero() {
		session.UpdatedAt = time.Now()
	}

	_, err = r.db.ExecContext(ctx, query,
		session.ChatID,
		string(raw),
		session.Page,
		viewing,
		session.Month,
		session.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save session for chat %d: %w", session.ChatID, err)
	}

	return nil
}

func (r *sessionRepository) Delete(ctx context.Context, chatID int64) error {
	query := `DELETE FROM chat_sessions WHERE chat_id = $1`

	if _, err := r.db.ExecContext(ctx, query, chatID); err != nil {
		return fmt.Errorf("failed to delete session for chat %d: %w", chatID, err)
	}

	return nil
}
