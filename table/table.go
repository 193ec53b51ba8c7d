// Package table holds the in-memory tables that flow through a processing
// run: the uploaded input and the normalized output handed to a sink.
package table

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrColumnNotFound is returned when a mapped column is not in the table
	ErrColumnNotFound = errors.New("column not found")
	// ErrEmpty is returned for uploads with no header or data rows
	ErrEmpty = errors.New("table is empty")
)

// Table is an ordered set of named string columns
type Table struct {
	columns []string
	index   map[string]int
	rows    [][]string
}

// New builds a table. Short rows are padded with empty values; long rows are
// an error.
func New(columns []string, rows [][]string) (*Table, error) {
	index := make(map[string]int, len(columns))
	for i, c := range columns {
		if _, dup := index[c]; dup {
			return nil, fmt.Errorf("duplicate column %q", c)
		}
		index[c] = i
	}

	out := make([][]string, len(rows))
	for i, row := range rows {
		if len(row) > len(columns) {
			return nil, fmt.Errorf("row %d has %d values for %d columns", i+1, len(row), len(columns))
		}
		padded := make([]string, len(columns))
		copy(padded, row)
		out[i] = padded
	}

	return &Table{columns: append([]string(nil), columns...), index: index, rows: out}, nil
}

// Columns returns the column names in order
func (t *Table) Columns() []string {
	return append([]string(nil), t.columns...)
}

// Len returns the number of data rows
func (t *Table) Len() int {
	return len(t.rows)
}

// HasColumn reports whether the table has a column
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Column returns a copy of a column's values in row order
func (t *Table) Column(name string) ([]string, error) {
	i, ok := t.index[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrColumnNotFound, name)
	}
	values := make([]string, len(t.rows))
	for r, row := range t.rows {
		values[r] = row[i]
	}
	return values, nil
}

// Row returns a copy of one row
func (t *Table) Row(i int) []string {
	return append([]string(nil), t.rows[i]...)
}

// Head returns a table with at most the first n rows
func (t *Table) Head(n int) *Table {
	if n > len(t.rows) {
		n = len(t.rows)
	}
	head, _ := New(t.columns, t.rows[:n])
	return head
}

// CountUnique returns the number of distinct values in a column
func (t *Table) CountUnique(name string) int {
	values, err := t.Column(name)
	if err != nil {
		return 0
	}
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		seen[v] = struct{}{}
	}
	return len(seen)
}

// Records returns the rows as maps keyed by column name
func (t *Table) Records() []map[string]string {
	out := make([]map[string]string, len(t.rows))
	for r, row := range t.rows {
		rec := make(map[string]string, len(t.columns))
		for i, c := range t.columns {
			rec[c] = row[i]
		}
		out[r] = rec
	}
	return out
}

// Values returns the data rows in the shape the Sheets API expects
func (t *Table) Values() [][]interface{} {
	out := make([][]interface{}, len(t.rows))
	for r, row := range t.rows {
		vals := make([]interface{}, len(row))
		for i, v := range row {
			vals[i] = v
		}
		out[r] = vals
	}
	return out
}

// HeaderValues returns the column names as a Sheets row
func (t *Table) HeaderValues() []interface{} {
	out := make([]interface{}, len(t.columns))
	for i, c := range t.columns {
		out[i] = c
	}
	return out
}

// FindColumn suggests a column for a field. Patterns are tried in order,
// first as exact case-insensitive matches, then as substrings of the column
// names. Falls back to the first column.
func FindColumn(columns []string, patterns []string) int {
	for _, p := range patterns {
		for i, c := range columns {
			if strings.ToLower(strings.TrimSpace(c)) == p {
				return i
			}
		}
	}
	for _, p := range patterns {
		for i, c := range columns {
			if strings.Contains(strings.ToLower(c), p) {
				return i
			}
		}
	}
	return 0
}
