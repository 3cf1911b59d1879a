package models

// User represents a Wishlist Santa account as returned by the API
type User struct {
	ID         int64  `json:"id"`
	Username   string `json:"username"`
	Email      string `json:"email,omitempty"`
	Name       string `json:"name"`
	Age        *int   `json:"age"`
	About      string `json:"about"`
	EventCount int    `json:"event_count"`
	CreatedAt  string `json:"created_at"`
}

// DisplayName returns the best display name for the user
func (u *User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	if u.Username != "" {
		return "@" + u.Username
	}
	return "Unknown user"
}
