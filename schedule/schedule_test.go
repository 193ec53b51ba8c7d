package schedule

import (
	"testing"
	"time"

	"github.com/harvestingmedia/dataprocessor/dates"
	"github.com/harvestingmedia/dataprocessor/facility"
	"github.com/harvestingmedia/dataprocessor/hours"
)

var allWeek = map[string]string{
	"Monday":    "9-5",
	"Tuesday":   "9-5",
	"Wednesday": "9-5",
	"Thursday":  "9-5",
	"Friday":    "9-5",
	"Saturday":  "10-2",
	"Sunday":    "10-2",
}

func TestNextAvailable_AllDaysOpen(t *testing.T) {
	weekly := hours.WeeklyHours{facility.Bronx: allWeek}

	// Every start weekday over two weeks
	base := dates.New(2024, time.April, 28)
	for i := 0; i < 14; i++ {
		d := base.AddDays(i)
		got := NextAvailable(d, "OLX", weekly)
		if want := d.AddDays(2); !got.Equal(want) {
			t.Errorf("NextAvailable(%s) = %s, want %s", d, got, want)
		}
	}
}

func TestNextAvailable_MondayOnly(t *testing.T) {
	weekly := hours.WeeklyHours{
		facility.Bronx: {
			"Monday":    "9-5",
			"Tuesday":   "Closed",
			"Wednesday": "CLOSED",
			"Thursday":  "closed",
			"Friday":    "Closed",
			"Saturday":  "Closed",
			"Sunday":    "Closed",
		},
	}

	// 2024-05-05 is a Sunday, so +2 lands on Tuesday 2024-05-07
	base := dates.New(2024, time.May, 5)
	got := NextAvailable(base, "olx ", weekly)

	want := dates.New(2024, time.May, 13)
	if !got.Equal(want) {
		t.Fatalf("NextAvailable = %s, want %s", got, want)
	}
	if got.Weekday() != time.Monday {
		t.Errorf("result falls on %s", got.Weekday())
	}
	if diff := got.Time.Sub(base.AddDays(2).Time); diff != 6*24*time.Hour {
		t.Errorf("expected 6 days after base+2, got %v", diff)
	}
}

func TestNextAvailable_LandsOnOpenDay(t *testing.T) {
	weekly := hours.WeeklyHours{
		facility.Jamaica: {
			"Monday":    "Closed",
			"Tuesday":   "Closed",
			"Wednesday": "Closed",
			"Thursday":  "Closed",
			"Friday":    "8-4",
			"Saturday":  "8-12",
			"Sunday":    "Closed",
		},
	}

	// Wednesday + 2 = Friday, already open
	got := NextAvailable(dates.New(2024, time.May, 1), "OLJ", weekly)
	if want := dates.New(2024, time.May, 3); !got.Equal(want) {
		t.Errorf("NextAvailable = %s, want %s", got, want)
	}
}

func TestNextAvailable_AbsentBase(t *testing.T) {
	weekly := hours.WeeklyHours{facility.Bronx: allWeek}
	for _, code := range []string{"OLX", "ZZZ", ""} {
		if got := NextAvailable(dates.Date{}, code, weekly); got.Valid {
			t.Errorf("NextAvailable(absent, %q) = %s, want absent", code, got)
		}
	}
	if got := NextAvailable(dates.Date{}, "OLX", nil); got.Valid {
		t.Error("absent base with nil hours should stay absent")
	}
}

func TestNextAvailable_Fallbacks(t *testing.T) {
	base := dates.New(2024, time.May, 1)
	want := base.AddDays(2)

	tests := []struct {
		name   string
		code   string
		weekly hours.WeeklyHours
	}{
		{"unknown code", "ZZZ", hours.WeeklyHours{facility.Bronx: allWeek}},
		{"blank code", "", hours.WeeklyHours{facility.Bronx: allWeek}},
		{"location missing from hours", "OLB", hours.WeeklyHours{facility.Bronx: allWeek}},
		{"degraded feed", "OLX", hours.WeeklyHours{}},
		{"nil hours", "OLX", nil},
		{"every day closed", "OLX", hours.WeeklyHours{facility.Bronx: {
			"Monday": "Closed", "Tuesday": "Closed", "Wednesday": "Closed", "Thursday": "Closed",
			"Friday": "Closed", "Saturday": "Closed", "Sunday": "Closed",
		}}},
		{"no weekday entries", "OLX", hours.WeeklyHours{facility.Bronx: {}}},
		{"only unknown day names", "OLX", hours.WeeklyHours{facility.Bronx: {"Holiday": "Open"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NextAvailable(base, tt.code, tt.weekly); !got.Equal(want) {
				t.Errorf("NextAvailable = %s, want %s", got, want)
			}
		})
	}
}
