// Package schedule computes the next date a donor can be contacted about
// donating again.
package schedule

import (
	"github.com/harvestingmedia/dataprocessor/dates"
	"github.com/harvestingmedia/dataprocessor/facility"
	"github.com/harvestingmedia/dataprocessor/hours"
)

// FallbackOffsetDays is the minimum gap after a donation. It is also the whole
// answer whenever a location's hours are unknown.
const FallbackOffsetDays = 2

// NextAvailable returns the first date at least FallbackOffsetDays after base
// on which the facility's location is open.
//
// An absent base yields an absent result. Unknown facilities, locations
// missing from the hours table and locations with no open weekday all get
// base + FallbackOffsetDays.
func NextAvailable(base dates.Date, facilityCode string, weekly hours.WeeklyHours) dates.Date {
	if !base.Valid {
		return dates.Date{}
	}

	earliest := base.AddDays(FallbackOffsetDays)

	open, known := weekly.OpenDays(facility.Resolve(facilityCode))
	if !known || len(open) == 0 {
		return earliest
	}

	// open is non-empty, so one of the next seven days matches
	check := earliest
	for i := 0; i < 7; i++ {
		if open[check.Weekday()] {
			return check
		}
		check = check.AddDays(1)
	}
	return earliest
}
