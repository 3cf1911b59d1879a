package wishapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Kerhoff/wishbot/internal/models"
)

// RegisterRequest is the registration form
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Age      *int   `json:"age,omitempty"`
	About    string `json:"about,omitempty"`
}

// ProfileUpdate replaces the editable profile fields
type ProfileUpdate struct {
	Name  string `json:"name"`
	Age   *int   `json:"age"`
	About string `json:"about"`
}

// NewEvent is the create-event payload. Date must be a canonical YYYY-MM-DD key.
type NewEvent struct {
	Title       string `json:"title"`
	Date        string `json:"date"`
	Description string `json:"description,omitempty"`
}

// EventUpdate is a partial event update; nil fields are left unchanged.
type EventUpdate struct {
	Title       *string `json:"title,omitempty"`
	Date        *string `json:"date,omitempty"`
	Description *string `json:"description,omitempty"`
}

// NewWish is the add-wish payload
type NewWish struct {
	Description string `json:"description"`
	Link        string `json:"link,omitempty"`
}

// WishUpdate is a partial wish update; nil fields are left unchanged.
type WishUpdate struct {
	Description *string `json:"description,omitempty"`
	Link        *string `json:"link,omitempty"`
}

// SessionStatus is the result of a session check
type SessionStatus struct {
	Authenticated bool         `json:"authenticated"`
	User          *models.User `json:"user,omitempty"`
}

type userPayload struct {
	User *models.User `json:"user"`
}

// Register creates an account and signs the session in.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*models.User, error) {
	var out userPayload
	if err := c.do(ctx, "register", http.MethodPost, "/auth/register", req, &out); err != nil {
		return nil, err
	}
	return out.User, nil
}

// Login signs the session in.
func (c *Client) Login(ctx context.Context, username, password string) (*models.User, error) {
	body := map[string]string{"username": username, "password": password}
	var out userPayload
	if err := c.do(ctx, "login", http.MethodPost, "/auth/login", body, &out); err != nil {
		return nil, err
	}
	return out.User, nil
}

// Logout ends the server-side session.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, "logout", http.MethodPost, "/auth/logout", nil, nil)
}

// CheckSession reports whether the held cookie belongs to a signed-in user.
func (c *Client) CheckSession(ctx context.Context) (*SessionStatus, error) {
	var out SessionStatus
	if err := c.do(ctx, "check session", http.MethodGet, "/auth/check", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Me returns the signed-in user.
func (c *Client) Me(ctx context.Context) (*models.User, error) {
	var out userPayload
	if err := c.do(ctx, "current user", http.MethodGet, "/auth/me", nil, &out); err != nil {
		return nil, err
	}
	return out.User, nil
}

// ListUsers returns every registered user with their event counts.
func (c *Client) ListUsers(ctx context.Context) ([]models.User, error) {
	var out struct {
		Users []models.User `json:"users"`
	}
	if err := c.do(ctx, "list users", http.MethodGet, "/users", nil, &out); err != nil {
		return nil, err
	}
	return out.Users, nil
}

// GetUser returns a user and their events, wishes included.
func (c *Client) GetUser(ctx context.Context, id int64) (*models.User, []models.Event, error) {
	var out struct {
		User   *models.User   `json:"user"`
		Events []models.Event `json:"events"`
	}
	if err := c.do(ctx, "get user", http.MethodGet, fmt.Sprintf("/users/%d", id), nil, &out); err != nil {
		return nil, nil, err
	}
	return out.User, out.Events, nil
}

// UpdateProfile updates the signed-in user's profile.
func (c *Client) UpdateProfile(ctx context.Context, update ProfileUpdate) error {
	return c.do(ctx, "update profile", http.MethodPut, "/users/profile", update, nil)
}

// ListEvents returns the signed-in user's events, wishes included.
func (c *Client) ListEvents(ctx context.Context) ([]models.Event, error) {
	var out struct {
		Events []models.Event `json:"events"`
	}
	if err := c.do(ctx, "list events", http.MethodGet, "/events", nil, &out); err != nil {
		return nil, err
	}
	return out.Events, nil
}

// CreateEvent creates an event owned by the signed-in user.
func (c *Client) CreateEvent(ctx context.Context, event NewEvent) error {
	return c.do(ctx, "create event", http.MethodPost, "/events", event, nil)
}

// UpdateEvent applies a partial update to an event.
func (c *Client) UpdateEvent(ctx context.Context, id int64, update EventUpdate) error {
	return c.do(ctx, "update event", http.MethodPut, fmt.Sprintf("/events/%d", id), update, nil)
}

// DeleteEvent deletes an event and its wishes.
func (c *Client) DeleteEvent(ctx context.Context, id int64) error {
	return c.do(ctx, "delete event", http.MethodDelete, fmt.Sprintf("/events/%d", id), nil, nil)
}

// AddWish attaches a wish to an event.
func (c *Client) AddWish(ctx context.Context, eventID int64, wish NewWish) error {
	return c.do(ctx, "add wish", http.MethodPost, fmt.Sprintf("/events/%d/wishes", eventID), wish, nil)
}

// UpdateWish applies a partial update to a wish.
func (c *Client) UpdateWish(ctx context.Context, id int64, update WishUpdate) error {
	return c.do(ctx, "update wish", http.MethodPut, fmt.Sprintf("/wishes/%d", id), update, nil)
}

// DeleteWish deletes a wish.
func (c *Client) DeleteWish(ctx context.Context, id int64) error {
	return c.do(ctx, "delete wish", http.MethodDelete, fmt.Sprintf("/wishes/%d", id), nil, nil)
}

// ReserveWish reserves someone else's wish for the signed-in user.
func (c *Client) ReserveWish(ctx context.Context, id int64) error {
	return c.do(ctx, "reserve wish", http.MethodPost, fmt.Sprintf("/wishes/%d/reserve", id), nil, nil)
}

// UnreserveWish drops the signed-in user's reservation.
func (c *Client) UnreserveWish(ctx context.Context, id int64) error {
	return c.do(ctx, "unreserve wish", http.MethodDelete, fmt.Sprintf("/wishes/%d/unreserve", id), nil, nil)
}

// MyReservations lists the wishes the signed-in user has reserved.
func (c *Client) MyReservations(ctx context.Context) ([]models.Reservation, error) {
	var out struct {
		Reservations []models.Reservation `json:"reservations"`
	}
	if err := c.do(ctx, "my reservations", http.MethodGet, "/my-reservations", nil, &out); err != nil {
		return nil, err
	}
	return out.Reservations, nil
}
