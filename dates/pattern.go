package dates

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// Pattern is a recognised date format: a regexp describing the shape of the
// raw string plus the layouts tried once the shape matches.
type Pattern struct {
	Name        string
	Description string
	Strftime    string
	shape       *regexp.Regexp
	layouts     []string
}

// Recognised patterns
var (
	ISODate = Pattern{
		Name:        "YYYY-MM-DD",
		Description: "YYYY-MM-DD (e.g., 2023-01-31)",
		Strftime:    "%Y-%m-%d",
		shape:       regexp.MustCompile(`^\d{4}-\d{1,2}-\d{1,2}$`),
		layouts:     []string{"2006-1-2"},
	}
	ISODateTime = Pattern{
		Name:        "YYYY-MM-DD HH:MM:SS",
		Description: "YYYY-MM-DD HH:MM:SS (e.g., 2023-01-31 14:30:00)",
		Strftime:    "%Y-%m-%d %H:%M:%S",
		shape:       regexp.MustCompile(`^\d{4}-\d{1,2}-\d{1,2}[T ]\d{1,2}:\d{2}(:\d{2}(\.\d+)?)?(Z|[+-]\d{2}:?\d{2})?$`),
		layouts: []string{
			"2006-1-2T15:04:05Z07:00",
			"2006-1-2T15:04:05Z0700",
			"2006-1-2T15:04:05",
			"2006-1-2 15:04:05Z07:00",
			"2006-1-2 15:04:05",
			"2006-1-2T15:04",
			"2006-1-2 15:04",
		},
	}
	MonthDayYear = Pattern{
		Name:        "MM/DD/YYYY",
		Description: "MM/DD/YYYY (e.g., 01/31/2023)",
		Strftime:    "%m/%d/%Y",
		shape:       regexp.MustCompile(`^\d{1,2}/\d{1,2}/\d{4}$`),
		layouts:     []string{"1/2/2006"},
	}
	DayMonthYear = Pattern{
		Name:        "DD/MM/YYYY",
		Description: "DD/MM/YYYY (e.g., 31/01/2023)",
		Strftime:    "%d/%m/%Y",
		shape:       regexp.MustCompile(`^\d{1,2}/\d{1,2}/\d{4}$`),
		layouts:     []string{"2/1/2006"},
	}
	MonthDayYearDash = Pattern{
		Name:        "MM-DD-YYYY",
		Description: "MM-DD-YYYY (e.g., 01-31-2023)",
		Strftime:    "%m-%d-%Y",
		shape:       regexp.MustCompile(`^\d{1,2}-\d{1,2}-\d{4}$`),
		layouts:     []string{"1-2-2006"},
	}
	DayMonthYearDash = Pattern{
		Name:        "DD-MM-YYYY",
		Description: "DD-MM-YYYY (e.g., 31-01-2023)",
		Strftime:    "%d-%m-%Y",
		shape:       regexp.MustCompile(`^\d{1,2}-\d{1,2}-\d{4}$`),
		layouts:     []string{"2-1-2006"},
	}
	YearMonthDay = Pattern{
		Name:        "YYYY/MM/DD",
		Description: "YYYY/MM/DD (e.g., 2023/01/31)",
		Strftime:    "%Y/%m/%d",
		shape:       regexp.MustCompile(`^\d{4}/\d{1,2}/\d{1,2}$`),
		layouts:     []string{"2006/1/2"},
	}
)

// detectionOrder is the order Detect tries patterns in. MM/DD/YYYY and
// DD/MM/YYYY share a shape, so a DD/MM column is only detected when its first
// value has a day above 12. DD-MM-YYYY is never detected; it can only be
// chosen explicitly.
var detectionOrder = []Pattern{
	ISODate,
	ISODateTime,
	MonthDayYear,
	DayMonthYear,
	MonthDayYearDash,
	YearMonthDay,
}

// selectable lists every pattern a caller may choose explicitly
var selectable = []Pattern{
	MonthDayYear,
	DayMonthYear,
	ISODate,
	MonthDayYearDash,
	DayMonthYearDash,
	YearMonthDay,
	ISODateTime,
}

// DetectionOrder returns the patterns in the order Detect tries them
func DetectionOrder() []Pattern {
	out := make([]Pattern, len(detectionOrder))
	copy(out, detectionOrder)
	return out
}

// Selectable returns the patterns a caller can pick explicitly
func Selectable() []Pattern {
	out := make([]Pattern, len(selectable))
	copy(out, selectable)
	return out
}

// Lookup finds a selectable pattern by name ("MM/DD/YYYY"), strftime string
// ("%m/%d/%Y") or description.
func Lookup(name string) (Pattern, error) {
	name = strings.TrimSpace(name)
	for _, p := range selectable {
		if strings.EqualFold(name, p.Name) || name == p.Strftime || name == p.Description {
			return p, nil
		}
	}
	return Pattern{}, fmt.Errorf("unknown date format %q", name)
}

// Matches reports whether raw has this pattern's shape
func (p Pattern) Matches(raw string) bool {
	return p.shape != nil && p.shape.MatchString(strings.TrimSpace(raw))
}

// Parse parses raw with this pattern. Values with the wrong shape or an
// impossible calendar date (month 13, February 30) do not parse.
func (p Pattern) Parse(raw string) (Date, bool) {
	raw = strings.TrimSpace(raw)
	if !p.Matches(raw) {
		return Date{}, false
	}
	for _, layout := range p.layouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return Of(t), true
		}
	}
	return Date{}, false
}

// String returns the pattern name
func (p Pattern) String() string {
	return p.Name
}

// Detect picks the first pattern, in detection order, whose shape matches the
// sample and whose trial parse succeeds.
func Detect(sample string) (Pattern, bool) {
	for _, p := range detectionOrder {
		if _, ok := p.Parse(sample); ok {
			return p, true
		}
	}
	return Pattern{}, false
}

// ParsePermissive is the best-effort parser used when no pattern is detected
func ParsePermissive(raw string) (d Date, ok bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || allDigits(raw) {
		return Date{}, false
	}

	// dateparse panics on a handful of malformed inputs
	defer func() {
		if r := recover(); r != nil {
			slog.Debug("Permissive date parse panicked", "value", raw, "panic", r)
			d, ok = Date{}, false
		}
	}()

	t, err := dateparse.ParseIn(raw, time.UTC)
	if err != nil {
		return Date{}, false
	}
	return Of(t), true
}

// allDigits reports whether s is a bare number. dateparse reads those as
// Unix timestamps or years, which turns phone and account numbers into dates.
func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
