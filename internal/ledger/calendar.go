package ledger

import (
	"fmt"
	"time"
)

// DayLayout is the wire and storage format of a ledger day.
const DayLayout = "2006-01-02"

// DefaultTimezone is the zone the shop reports its days in.
const DefaultTimezone = "Asia/Kolkata"

// Calendar pins every day-boundary computation to a single location so query
// and storage never disagree about which day a timestamp belongs to.
type Calendar struct {
	loc *time.Location
}

// NewCalendar builds a Calendar for loc. A nil loc means UTC.
func NewCalendar(loc *time.Location) Calendar {
	if loc == nil {
		loc = time.UTC
	}
	return Calendar{loc: loc}
}

// LoadCalendar resolves an IANA zone name into a Calendar.
func LoadCalendar(name string) (Calendar, error) {
	if name == "" {
		name = DefaultTimezone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return Calendar{}, fmt.Errorf("ledger: load timezone %q: %w", name, err)
	}
	return NewCalendar(loc), nil
}

// Location returns the pinned location.
func (c Calendar) Location() *time.Location {
	if c.loc == nil {
		return time.UTC
	}
	return c.loc
}

// DayKey formats the calendar day t falls on.
func (c Calendar) DayKey(t time.Time) string {
	return t.In(c.Location()).Format(DayLayout)
}

// StartOfDay returns midnight of the day t falls on.
func (c Calendar) StartOfDay(t time.Time) time.Time {
	t = t.In(c.Location())
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, c.Location())
}

// ParseDay parses a YYYY-MM-DD string as midnight in the pinned location.
func (c Calendar) ParseDay(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DayLayout, s, c.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("ledger: parse day %q: %w", s, err)
	}
	return t, nil
}
