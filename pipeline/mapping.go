package pipeline

import (
	"fmt"
	"strings"

	"github.com/harvestingmedia/dataprocessor/table"
)

// Field is one input a process asks the caller to map to a column
type Field struct {
	Key      string   `json:"key"`
	Label    string   `json:"label"`
	Required bool     `json:"required"`
	Patterns []string `json:"-"` // header patterns used for suggestions
}

// Mapping maps field keys to column names of the uploaded table
type Mapping map[string]string

// Column returns the column mapped to a field, if any
func (m Mapping) Column(key string) (string, bool) {
	col, ok := m[key]
	col = strings.TrimSpace(col)
	return col, ok && col != ""
}

// Validate checks that every required field is mapped and that every mapped
// column exists in the table
func (m Mapping) Validate(fields []Field, in *table.Table) error {
	for _, f := range fields {
		col, ok := m.Column(f.Key)
		if !ok {
			if f.Required {
				return fmt.Errorf("%w: %s is required", ErrMissingColumn, f.Label)
			}
			continue
		}
		if !in.HasColumn(col) {
			return fmt.Errorf("%w: column %q for %s is not in the file", ErrMissingColumn, col, f.Label)
		}
	}
	return nil
}

// SuggestMapping guesses a column for every field that has header patterns
func SuggestMapping(fields []Field, columns []string) Mapping {
	m := make(Mapping)
	if len(columns) == 0 {
		return m
	}
	for _, f := range fields {
		if len(f.Patterns) == 0 {
			continue
		}
		m[f.Key] = columns[table.FindColumn(columns, f.Patterns)]
	}
	return m
}
