// Package dates holds the calendar-date value carried through processing runs
// and the format detection used to parse uploaded date columns.
package dates

import (
	"encoding/json"
	"time"
)

// ISOLayout is the layout used whenever a Date is written out
const ISOLayout = "2006-01-02"

// Date is a calendar date that may be absent. The zero value is absent.
// Present dates are always stored at midnight UTC so arithmetic and
// comparisons never see time-of-day or zone offsets.
type Date struct {
	Time  time.Time
	Valid bool
}

// Of returns the calendar date of t, read in t's own location
func Of(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC), Valid: true}
}

// New builds a present Date from its parts
func New(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC), Valid: true}
}

// AddDays shifts a present date by n calendar days. Absent dates stay absent.
func (d Date) AddDays(n int) Date {
	if !d.Valid {
		return d
	}
	return Date{Time: d.Time.AddDate(0, 0, n), Valid: true}
}

// Weekday of a present date. Callers must check Valid first.
func (d Date) Weekday() time.Weekday {
	return d.Time.Weekday()
}

// Equal reports whether both dates are absent or both fall on the same day
func (d Date) Equal(other Date) bool {
	if d.Valid != other.Valid {
		return false
	}
	return !d.Valid || d.Time.Equal(other.Time)
}

// Format renders the date with layout, or "" when absent
func (d Date) Format(layout string) string {
	if !d.Valid {
		return ""
	}
	return d.Time.Format(layout)
}

// String renders YYYY-MM-DD, or "" when absent
func (d Date) String() string {
	return d.Format(ISOLayout)
}

// MarshalJSON writes "YYYY-MM-DD" or null
func (d Date) MarshalJSON() ([]byte, error) {
	if !d.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}
