// Package hours models the weekly opening table of the donation centers and
// fetches it from the hosted JSON feed.
package hours

import (
	"strings"
	"time"

	"github.com/harvestingmedia/dataprocessor/facility"
)

// closedMarker marks a day as unavailable when found anywhere in a status
const closedMarker = "CLOSED"

// WeeklyHours maps a location to its weekday statuses ("Monday" -> "9AM - 5PM").
// A location missing from the map has unknown hours.
type WeeklyHours map[facility.LocationID]map[string]string

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// ParseWeekday converts a full English weekday name, in any case, to a
// time.Weekday
func ParseWeekday(name string) (time.Weekday, bool) {
	wd, ok := weekdays[strings.ToLower(strings.TrimSpace(name))]
	return wd, ok
}

// IsOpenStatus reports whether a status string means the center is open
func IsOpenStatus(status string) bool {
	return !strings.Contains(strings.ToUpper(status), closedMarker)
}

// Known reports whether hours are listed for a location
func (w WeeklyHours) Known(loc facility.LocationID) bool {
	_, ok := w[loc]
	return ok
}

// OpenDays returns the weekdays a location is open. The second result is
// false when the location has no entry. Day names that are not weekdays are
// ignored.
func (w WeeklyHours) OpenDays(loc facility.LocationID) (map[time.Weekday]bool, bool) {
	days, ok := w[loc]
	if !ok {
		return nil, false
	}

	open := make(map[time.Weekday]bool, len(days))
	for name, status := range days {
		wd, ok := ParseWeekday(name)
		if !ok {
			continue
		}
		if IsOpenStatus(status) {
			open[wd] = true
		}
	}
	return open, true
}

// Locations returns how many locations have hours
func (w WeeklyHours) Locations() int {
	return len(w)
}
