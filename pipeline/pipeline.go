// Package pipeline defines what every process shares: the column mapping a
// caller supplies, the outcome a run reports and the sink it writes to.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/harvestingmedia/dataprocessor/table"
)

var (
	// ErrUnknownProcess is returned when a process name is not registered
	ErrUnknownProcess = errors.New("unknown process")
	// ErrMissingColumn is returned when a required field is not mapped to a
	// column of the input table
	ErrMissingColumn = errors.New("missing column mapping")
)

// FailureKind says why a run did not succeed
type FailureKind string

const (
	FailureNone FailureKind = ""
	// FailureStructural means the input cannot be processed at all (a mapped
	// column is missing, or the date column has no parseable value). No
	// output is produced.
	FailureStructural FailureKind = "structural"
	// FailurePersistence means the sink rejected the write. The computed
	// output is still returned.
	FailurePersistence FailureKind = "persistence"
)

// WriteMode controls how a sink writes to its destination
type WriteMode int

const (
	// ModeAppend adds rows after the existing ones
	ModeAppend WriteMode = iota
	// ModeReplace clears the destination before writing
	ModeReplace
)

// Destination names where a process writes its output
type Destination struct {
	SpreadsheetID string    `json:"-"`
	SheetName     string    `json:"sheet_name"`
	Mode          WriteMode `json:"-"`
}

func (d Destination) String() string {
	return d.SheetName
}

// Sink is the persistence collaborator. Write is called at most once per run.
type Sink interface {
	Write(ctx context.Context, dest Destination, out *table.Table) error
}

// Options is the per-run configuration a caller can pass besides the mapping
type Options struct {
	// DateFormat names a date pattern to use instead of detecting one
	DateFormat string
}

// Diagnostics describes how a run went, including the problems it recovered
// from
type Diagnostics struct {
	Rows                 int            `json:"rows"`
	UnparsedDates        int            `json:"unparsed_dates"`
	DateFormat           string         `json:"date_format,omitempty"`
	PermissiveDates      bool           `json:"permissive_dates"`
	HoursDegraded        bool           `json:"hours_degraded"`
	HoursReason          string         `json:"hours_reason,omitempty"`
	FacilitySummary      map[string]int `json:"facility_summary,omitempty"`
	UnknownFacilityCodes []string       `json:"unknown_facility_codes,omitempty"`
	Warnings             []string       `json:"warnings,omitempty"`
}

// Warn records a recovered problem
func (d *Diagnostics) Warn(format string, args ...any) {
	d.Warnings = append(d.Warnings, fmt.Sprintf(format, args...))
}

// Outcome is the result of one processing run
type Outcome struct {
	RunID       string         `json:"run_id"`
	Process     string         `json:"process"`
	Destination string         `json:"destination"`
	Success     bool           `json:"success"`
	Failure     FailureKind    `json:"failure,omitempty"`
	Reason      string         `json:"reason,omitempty"`
	Output      *table.Table   `json:"-"`
	Diagnostics Diagnostics    `json:"diagnostics"`
	Stats       map[string]int `json:"stats,omitempty"`
}

// NewOutcome starts the outcome of a run for a process
func NewOutcome(process string, dest Destination) Outcome {
	return Outcome{
		RunID:       uuid.NewString(),
		Process:     process,
		Destination: dest.String(),
	}
}

// Fail marks a run as failed before any output was produced
func (o *Outcome) Fail(kind FailureKind, reason string) {
	o.Success = false
	o.Failure = kind
	o.Reason = reason
	o.Output = nil
}

// Logger returns a logger tagged with the run
func (o *Outcome) Logger() *slog.Logger {
	return slog.With("run_id", o.RunID, "process", o.Process)
}

// Deliver hands a computed output to the sink and records the result. The
// output stays on the outcome whether or not the write succeeds.
func Deliver(ctx context.Context, sink Sink, dest Destination, out *table.Table, o *Outcome) {
	o.Output = out
	log := o.Logger()

	if err := sink.Write(ctx, dest, out); err != nil {
		log.Error("Failed to save output", "destination", dest.SheetName, "error", err)
		o.Success = false
		o.Failure = FailurePersistence
		o.Reason = fmt.Sprintf("saving to %s: %v", dest.SheetName, err)
		return
	}

	log.Info("Output saved", "destination", dest.SheetName, "rows", out.Len())
	o.Success = true
	o.Failure = FailureNone
	o.Reason = ""
}
