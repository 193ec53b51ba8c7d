// Package contacts implements the schema-mapping processes: each one picks a
// few columns out of an uploaded customer list, cleans them up and writes
// them to a fixed tab.
package contacts

import (
	"context"
	"fmt"

	"github.com/harvestingmedia/dataprocessor/dates"
	"github.com/harvestingmedia/dataprocessor/normalize"
	"github.com/harvestingmedia/dataprocessor/pipeline"
	"github.com/harvestingmedia/dataprocessor/table"
)

// ValueType defines how a column value is transformed
type ValueType int

const (
	TypeText ValueType = iota
	TypeEmail
	TypeName
	// TypeDate values are written as YYYY-MM-DD; values that cannot be read
	// as a date are written empty
	TypeDate
)

// ColumnConfig maps one input field to one output column
type ColumnConfig struct {
	Field  pipeline.Field
	Header string
	Type   ValueType
}

// Stats keys
const (
	StatTotalRecords = "total_records"
	StatUniqueEmails = "unique_emails"
)

// Process is a schema-mapping process
type Process struct {
	name       string
	title      string
	extensions []string
	columns    []ColumnConfig
	sink       pipeline.Sink
	dest       pipeline.Destination
}

// Name returns the registry name
func (p *Process) Name() string { return p.name }

// Title returns the display name
func (p *Process) Title() string { return p.title }

// Extensions returns the accepted upload types
func (p *Process) Extensions() []string { return p.extensions }

// Destination returns where the output is written
func (p *Process) Destination() pipeline.Destination { return p.dest }

// Fields returns one required field per output column
func (p *Process) Fields() []pipeline.Field {
	fields := make([]pipeline.Field, len(p.columns))
	for i, c := range p.columns {
		fields[i] = c.Field
	}
	return fields
}

// Columns returns the output column configuration
func (p *Process) Columns() []ColumnConfig { return p.columns }

// Run builds the output table and hands it to the sink
func (p *Process) Run(ctx context.Context, in *table.Table, mapping pipeline.Mapping, opts pipeline.Options) pipeline.Outcome {
	outcome := pipeline.NewOutcome(p.name, p.dest)
	outcome.Diagnostics.Rows = in.Len()

	if err := mapping.Validate(p.Fields(), in); err != nil {
		outcome.Fail(pipeline.FailureStructural, err.Error())
		return outcome
	}
	if in.Len() == 0 {
		outcome.Fail(pipeline.FailureStructural, "the file has no data rows")
		return outcome
	}

	var override *dates.Pattern
	if opts.DateFormat != "" {
		pattern, err := dates.Lookup(opts.DateFormat)
		if err != nil {
			outcome.Fail(pipeline.FailureStructural, err.Error())
			return outcome
		}
		override = &pattern
		outcome.Diagnostics.DateFormat = pattern.Name
	}

	out, err := p.transform(in, mapping, override, &outcome.Diagnostics)
	if err != nil {
		outcome.Fail(pipeline.FailureStructural, err.Error())
		return outcome
	}

	outcome.Stats = map[string]int{StatTotalRecords: out.Len()}
	if out.HasColumn(HeaderEmail) {
		outcome.Stats[StatUniqueEmails] = out.CountUnique(HeaderEmail)
	}

	outcome.Logger().Info("Contacts processed", "rows", out.Len(), "destination", p.dest.SheetName)
	pipeline.Deliver(ctx, p.sink, p.dest, out, &outcome)
	return outcome
}

func (p *Process) transform(in *table.Table, mapping pipeline.Mapping, override *dates.Pattern, diag *pipeline.Diagnostics) (*table.Table, error) {
	headers := make([]string, len(p.columns))
	rows := make([][]string, in.Len())
	for r := range rows {
		rows[r] = make([]string, len(p.columns))
	}

	for i, col := range p.columns {
		headers[i] = col.Header
		name, _ := mapping.Column(col.Field.Key)
		values, err := in.Column(name)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", col.Field.Label, err)
		}

		unparsed := 0
		for r, raw := range values {
			v, ok := resolveValue(raw, col.Type, override)
			if !ok {
				unparsed++
			}
			rows[r][i] = v
		}
		if unparsed > 0 {
			diag.UnparsedDates += unparsed
			diag.Warn("%d values in column %q could not be read as dates", unparsed, name)
		}
	}

	return table.New(headers, rows)
}

// resolveValue transforms a raw value based on its type. ok is false only
// for a non-empty date that could not be parsed.
func resolveValue(raw string, typ ValueType, override *dates.Pattern) (string, bool) {
	switch typ {
	case TypeEmail:
		return normalize.Email(raw), true
	case TypeName:
		return normalize.FormatName(raw), true
	case TypeDate:
		if normalize.Text(raw) == "" {
			return "", true
		}
		var (
			d  dates.Date
			ok bool
		)
		if override != nil {
			d, ok = override.Parse(raw)
		} else {
			d, ok = dates.ParsePermissive(raw)
		}
		return d.String(), ok
	default:
		return normalize.Text(raw), true
	}
}
