package models

import "time"

// SessionCookie is a persisted API session cookie
type SessionCookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// ChatSession is the persisted part of a chat's session: the credentials and
// where the user was. API data (events, wishes) is never stored.
type ChatSession struct {
	ChatID        int64           `json:"chat_id" db:"chat_id"`
	Cookies       []SessionCookie `json:"cookies" db:"cookies"`
	Page          string          `json:"page" db:"page"`
	ViewingUserID *int64          `json:"viewing_user_id" db:"viewing_user_id"`
	Month         string          `json:"month" db:"month"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`
}
