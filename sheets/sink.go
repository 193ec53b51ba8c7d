package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/harvestingmedia/dataprocessor/pipeline"
	"github.com/harvestingmedia/dataprocessor/ratelimit"
	"github.com/harvestingmedia/dataprocessor/table"
)

// ErrNoSpreadsheet is returned when a destination has no spreadsheet id
var ErrNoSpreadsheet = errors.New("destination has no spreadsheet id")

// Sink writes output tables to Google Sheets. Every API call goes through
// the rate limiter.
type Sink struct {
	writer  Writer
	limiter *ratelimit.Limiter
}

// NewSink creates a sink over writer
func NewSink(writer Writer, limiter *ratelimit.Limiter) *Sink {
	if limiter == nil {
		limiter = ratelimit.New(ratelimit.DefaultConfig())
	}
	return &Sink{writer: writer, limiter: limiter}
}

// Write saves out to the destination tab. A tab that does not exist yet is
// created and given the header row. In replace mode the tab is cleared and
// the header rewritten before the rows.
func (s *Sink) Write(ctx context.Context, dest pipeline.Destination, out *table.Table) error {
	if dest.SpreadsheetID == "" {
		return ErrNoSpreadsheet
	}
	id, tab := dest.SpreadsheetID, dest.SheetName

	var created bool
	err := s.limiter.Do(ctx, "ensure sheet", func(ctx context.Context) error {
		var err error
		created, err = s.writer.EnsureSheet(ctx, id, tab)
		return err
	})
	if err != nil {
		return fmt.Errorf("ensuring sheet %s: %w", tab, err)
	}

	rows := out.Values()
	if created || dest.Mode == pipeline.ModeReplace {
		rows = append([][]interface{}{out.HeaderValues()}, rows...)
	}

	if dest.Mode == pipeline.ModeReplace && !created {
		err := s.limiter.Do(ctx, "clear sheet", func(ctx context.Context) error {
			return s.writer.ClearSheet(ctx, id, tab)
		})
		if err != nil {
			return fmt.Errorf("clearing sheet %s: %w", tab, err)
		}
	}

	if len(rows) == 0 {
		return nil
	}
	err = s.limiter.Do(ctx, "append rows", func(ctx context.Context) error {
		return s.writer.AppendRows(ctx, id, tab, rows)
	})
	if err != nil {
		return fmt.Errorf("writing to sheet %s: %w", tab, err)
	}

	slog.Debug("Rows written to sheet", "tab", tab, "rows", len(rows), "created", created)
	return nil
}

// LogSink stands in for Google Sheets when it is disabled. It accepts every
// write and only logs it.
type LogSink struct{}

// Write logs the write and succeeds
func (LogSink) Write(_ context.Context, dest pipeline.Destination, out *table.Table) error {
	slog.Info("Google Sheets disabled, output not saved", "tab", dest.SheetName, "rows", out.Len())
	return nil
}
