// Package facility maps the facility codes found in donation exports to
// donation center locations.
package facility

import (
	"sort"
	"strings"
)

// LocationID is the normalized internal name of a donation center. It matches
// the keys of the weekly hours feed (uppercase, words joined by underscores).
type LocationID string

// Unknown is returned for blank or unrecognized facility codes
const Unknown LocationID = "UNKNOWN"

// Known donation centers
const (
	Bronx       LocationID = "BRONX"
	Parkchester LocationID = "PARKCHESTER"
	HowardBeach LocationID = "HOWARD_BEACH"
	Brownsville LocationID = "BROWNSVILLE"
	Jamaica     LocationID = "JAMAICA"
	Flatbush    LocationID = "FLATBUSH"
	Brooklyn    LocationID = "BROOKLYN"
	FtPierce    LocationID = "FT_PIERCE"
	EastHarlem  LocationID = "EASTHARLEM"
	Fordham     LocationID = "FORDHAM"
)

// directory is read-only after package init
var directory = map[string]LocationID{
	"OLX": Bronx,
	"OLW": Parkchester,
	"OLL": HowardBeach,
	"OLK": Brownsville,
	"OLJ": Jamaica,
	"OLF": Flatbush,
	"OLB": Brooklyn,
	"HPF": FtPierce,
	"OLG": EastHarlem,
	"OLH": Fordham,
}

// Resolve returns the location for a facility code. Codes are matched
// case-insensitively with surrounding whitespace ignored; anything not in the
// directory resolves to Unknown.
func Resolve(code string) LocationID {
	if loc, ok := directory[strings.ToUpper(strings.TrimSpace(code))]; ok {
		return loc
	}
	return Unknown
}

// Label is the value written to the "Center Name" column
func (l LocationID) Label() string {
	if l == "" {
		return string(Unknown)
	}
	return string(l)
}

// IsKnown reports whether the location came from the directory
func (l LocationID) IsKnown() bool {
	return l != "" && l != Unknown
}

// Codes returns the known facility codes in sorted order
func Codes() []string {
	codes := make([]string, 0, len(directory))
	for code := range directory {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// NormalizeName converts a free-form center name into a LocationID the way the
// hours feed keys its entries ("Howard Beach" -> "HOWARD_BEACH").
func NormalizeName(name string) LocationID {
	fields := strings.Fields(strings.ToUpper(name))
	return LocationID(strings.Join(fields, "_"))
}
