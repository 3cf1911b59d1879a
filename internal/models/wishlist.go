package models

// Wish represents a requested gift attached to an event.
// The API only exposes whether a wish is reserved, never by whom.
type Wish struct {
	ID          int64  `json:"id"`
	EventID     int64  `json:"event_id"`
	Description string `json:"description"`
	Link        string `json:"link"`
	Reserved    bool   `json:"reserved"`
	CreatedAt   string `json:"created_at"`
}

// ReservationInfo is the reservation record itself
type ReservationInfo struct {
	ID         int64  `json:"id"`
	WishID     int64  `json:"wish_id"`
	ReservedBy int64  `json:"reserved_by"`
	ReservedAt string `json:"reserved_at"`
}

// Reservation is one entry of the "my reservations" listing
type Reservation struct {
	Reservation ReservationInfo `json:"reservation"`
	Wish        Wish            `json:"wish"`
	Event       Event           `json:"event"`
	EventOwner  User            `json:"event_owner"`
}
