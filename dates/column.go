package dates

import "strings"

// ColumnResult is the outcome of parsing one raw date column
type ColumnResult struct {
	Dates []Date
	// Pattern is the format applied to the column. It is the zero Pattern
	// when Permissive is set.
	Pattern    Pattern
	Detected   bool
	Permissive bool
	Unparsed   int
}

// AllUnparsed reports whether no value in the column produced a date
func (r ColumnResult) AllUnparsed() bool {
	return r.Unparsed == len(r.Dates)
}

// FirstSample returns the first non-empty value of a column
func FirstSample(values []string) (string, bool) {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s, true
		}
	}
	return "", false
}

// ParseColumn parses a whole column with a single format. When override is
// nil the format is detected from the first non-empty value only and then
// applied to every row; values that do not fit it are left unparsed rather
// than re-detected. A column whose sample matches no pattern is parsed
// permissively, value by value.
func ParseColumn(values []string, override *Pattern) ColumnResult {
	result := ColumnResult{Dates: make([]Date, len(values))}

	switch {
	case override != nil:
		result.Pattern = *override
	default:
		if sample, ok := FirstSample(values); ok {
			result.Pattern, result.Detected = Detect(sample)
		}
		result.Permissive = !result.Detected
	}

	for i, raw := range values {
		var (
			d  Date
			ok bool
		)
		if result.Permissive {
			d, ok = ParsePermissive(raw)
		} else {
			d, ok = result.Pattern.Parse(raw)
		}
		if !ok {
			result.Unparsed++
			continue
		}
		result.Dates[i] = d
	}

	return result
}
