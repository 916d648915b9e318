package domain

import (
	"fmt"
	"time"
)

const (
	monthLayout = "2006-01"
	// DateLayout is the canonical calendar date format for event dates.
	DateLayout = "2006-01-02"
)

// Month identifies a calendar month independent of time zone.
type Month struct {
	Year  int
	Month time.Month
}

// MonthOf returns the calendar month t falls in, read in t's own location.
func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

// ParseMonth parses a "YYYY-MM" key.
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse(monthLayout, s)
	if err != nil {
		return Month{}, fmt.Errorf("parse month %q: %w", s, err)
	}
	return MonthOf(t), nil
}

// String returns the "YYYY-MM" key used by cost records.
func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// First returns midnight UTC of the first day of the month.
func (m Month) First() time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
}

// AddMonths shifts the month by n, normalising across years.
func (m Month) AddMonths(n int) Month {
	return MonthOf(m.First().AddDate(0, n, 0))
}

// Contains reports whether the calendar date d falls in the month.
func (m Month) Contains(d time.Time) bool {
	return !d.IsZero() && d.Year() == m.Year && d.Month() == m.Month
}

// DaysIn returns the number of days in the month.
func (m Month) DaysIn() int {
	return m.First().AddDate(0, 1, -1).Day()
}

// ParseDate parses a "YYYY-MM-DD" event date. An empty string yields the zero time.
func ParseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t, nil
}

// FormatDate renders a calendar date as "YYYY-MM-DD", or "" for the zero time.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}
