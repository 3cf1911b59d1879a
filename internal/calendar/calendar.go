// Package calendar builds the month grid shown on the profile page and
// buckets events under their days.
//
// Days are joined with events by their canonical key, YYYY-MM-DD. The join is
// plain string equality: an event whose stored date is spelled differently
// (a time component, no zero padding) lands on no day at all.
package calendar

import (
	"fmt"
	"time"
)

const (
	monthKeyLayout = "2006-01"
	titleLayout    = "January 2006"
)

// Weekdays are the column headers, Sunday first.
var Weekdays = []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// Cell is one slot of the grid. Day is zero for the leading placeholders.
type Cell[E any] struct {
	Day    int
	Key    string
	Events []E
}

// Empty reports whether the cell is a placeholder before day 1.
func (c Cell[E]) Empty() bool {
	return c.Day == 0
}

// Grid is a computed month view.
type Grid[E any] struct {
	Month  time.Time
	Offset int
	Days   int
	Cells  []Cell[E]
}

// Build computes the grid for the month containing ref and places every event
// whose date (as returned by dateOf) equals a day's key into that day.
func Build[E any](ref time.Time, events []E, dateOf func(E) string) Grid[E] {
	first := FirstOfMonth(ref)
	offset := Offset(first)
	days := DaysIn(first)

	cells := make([]Cell[E], 0, offset+days)
	for i := 0; i < offset; i++ {
		cells = append(cells, Cell[E]{})
	}
	for day := 1; day <= days; day++ {
		key := Key(first.Year(), first.Month(), day)
		cells = append(cells, Cell[E]{
			Day:    day,
			Key:    key,
			Events: eventsOn(key, events, dateOf),
		})
	}

	return Grid[E]{Month: first, Offset: offset, Days: days, Cells: cells}
}

func eventsOn[E any](key string, events []E, dateOf func(E) string) []E {
	var matched []E
	for _, e := range events {
		if dateOf(e) == key {
			matched = append(matched, e)
		}
	}
	return matched
}

// Rows splits the cells into weeks of seven. The last week may be short.
func (g Grid[E]) Rows() [][]Cell[E] {
	var rows [][]Cell[E]
	for start := 0; start < len(g.Cells); start += 7 {
		end := min(start+7, len(g.Cells))
		rows = append(rows, g.Cells[start:end])
	}
	return rows
}

// Title returns the month heading, e.g. "April 2024".
func (g Grid[E]) Title() string {
	return g.Month.Format(titleLayout)
}

// Key formats the canonical date key for a day.
func Key(year int, month time.Month, day int) string {
	return fmt.Sprintf("%04d-%02d-%02d", year, int(month), day)
}

// FirstOfMonth returns midnight on day 1 of t's month, in t's location.
func FirstOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// DaysIn returns the number of days in t's month.
func DaysIn(t time.Time) int {
	// Day 0 of the next month is the last day of this one.
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day()
}

// Offset returns the weekday of day 1 of t's month, 0 for Sunday.
func Offset(t time.Time) int {
	return int(FirstOfMonth(t).Weekday())
}

// Prev returns day 1 of the month before t.
func Prev(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month()-1, 1, 0, 0, 0, 0, t.Location())
}

// Next returns day 1 of the month after t.
func Next(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month()+1, 1, 0, 0, 0, 0, t.Location())
}

// MonthKey formats t's month as YYYY-MM.
func MonthKey(t time.Time) string {
	return t.Format(monthKeyLayout)
}

// ParseMonth parses a YYYY-MM month key.
func ParseMonth(s string) (time.Time, error) {
	t, err := time.Parse(monthKeyLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid month %q: %w", s, err)
	}
	return t, nil
}
