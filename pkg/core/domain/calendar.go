package domain

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire and storage format of a calendar date.
const DateLayout = "2006-01-02"

// WeekDay numbers the days of the week starting at Sunday = 0, the same
// numbering as time.Weekday and SQLite's strftime('%w').
type WeekDay int

const (
	Sunday WeekDay = iota
	Monday
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
)

// Valid reports whether w is within Sunday..Saturday.
func (w WeekDay) Valid() bool {
	return w >= Sunday && w <= Saturday
}

func (w WeekDay) String() string {
	if !w.Valid() {
		return fmt.Sprintf("WeekDay(%d)", int(w))
	}
	return time.Weekday(w).String()
}

// Date is a calendar day without a time-of-day component.
// The wrapped time is always midnight UTC, so Weekday and formatting do not
// depend on the zone the date was derived in.
type Date struct {
	time.Time
}

// NewDate builds a Date from its civil components.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// StartOfDay truncates t to the calendar day it falls on in loc.
// A nil loc uses t's own location.
func StartOfDay(t time.Time, loc *time.Location) Date {
	if loc != nil {
		t = t.In(loc)
	}
	y, m, d := t.Date()
	return NewDate(y, m, d)
}

// ParseDate accepts a bare YYYY-MM-DD date or an RFC 3339 timestamp. Timestamps
// are normalized to the start of their day in loc.
func ParseDate(s string, loc *time.Location) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, fmt.Errorf("empty date")
	}
	if t, err := time.Parse(DateLayout, s); err == nil {
		return Date{Time: t}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD or RFC 3339", s)
	}
	return StartOfDay(t, loc), nil
}

// WeekDay returns the day of the week of d.
func (d Date) WeekDay() WeekDay {
	return WeekDay(d.Time.Weekday())
}

// AddDays returns the date n days after d.
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	parsed, err := ParseDate(s, time.UTC)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
