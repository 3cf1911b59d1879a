package models

// DateLayout is the layout of Event.Date, which doubles as the calendar key.
const DateLayout = "2006-01-02"

// Event represents a dated occasion owned by one user.
//
// Date is kept as the raw string the API sent: the calendar joins on it by
// exact string equality, so it must never be reformatted on the way in.
type Event struct {
	ID          int64  `json:"id"`
	UserID      int64  `json:"user_id"`
	Title       string `json:"title"`
	Date        string `json:"date"`
	Description string `json:"description"`
	CreatedAt   string `json:"created_at"`
	Wishes      []Wish `json:"wishes,omitempty"`
}

// ReservedCount returns how many of the event's wishes are reserved
func (e *Event) ReservedCount() int {
	n := 0
	for _, w := range e.Wishes {
		if w.Reserved {
			n++
		}
	}
	return n
}
