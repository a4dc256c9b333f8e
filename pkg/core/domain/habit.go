package domain

import (
	"slices"
	"strings"
	"time"
	"unicode/utf8"
)

// MaxTitleLength bounds a habit title, counted in runes.
const MaxTitleLength = 200

// Habit is something the user wants to do on a fixed set of weekdays.
type Habit struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	CreatedOn Date      `json:"created_on"` // CreatedAt truncated to its calendar day
	WeekDays  []WeekDay `json:"weekDays"`
}

// AppliesTo reports whether the habit is possible on d: it must exist by that
// day and be scheduled for d's weekday.
func (h Habit) AppliesTo(d Date) bool {
	if h.CreatedOn.After(d.Time) {
		return false
	}
	return slices.Contains(h.WeekDays, d.WeekDay())
}

// NormalizeHabit validates a habit title and weekday list and returns them
// trimmed, de-duplicated and sorted.
func NormalizeHabit(title string, weekDays []int) (string, []WeekDay, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", nil, NewValidationError("title", "is required")
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return "", nil, NewValidationError("title", "must be at most 200 characters")
	}
	if len(weekDays) == 0 {
		return "", nil, NewValidationError("weekDays", "must contain at least one weekday")
	}

	days := make([]WeekDay, 0, len(weekDays))
	for _, n := range weekDays {
		wd := WeekDay(n)
		if !wd.Valid() {
			return "", nil, NewValidationError("weekDays", "values must be between 0 (Sunday) and 6 (Saturday)")
		}
		if !slices.Contains(days, wd) {
			days = append(days, wd)
		}
	}
	slices.Sort(days)
	return title, days, nil
}
