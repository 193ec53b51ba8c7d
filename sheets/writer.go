// Package sheets writes process output to Google Sheets tabs.
package sheets

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/api/sheets/v4"
)

// Writer is the subset of the Sheets API the sink needs (enables mocking)
type Writer interface {
	// EnsureSheet creates the tab when it does not exist and reports
	// whether it did
	EnsureSheet(ctx context.Context, spreadsheetID, sheetTab string) (created bool, err error)
	// AppendRows adds rows after the last non-empty row of the tab
	AppendRows(ctx context.Context, spreadsheetID, sheetTab string, rows [][]interface{}) error
	// ClearSheet removes every value from the tab
	ClearSheet(ctx context.Context, spreadsheetID, sheetTab string) error
}

// RealWriter implements Writer using the Google Sheets API
type RealWriter struct {
	service *sheets.Service
}

// NewRealWriter creates a new RealWriter
func NewRealWriter(service *sheets.Service) *RealWriter {
	return &RealWriter{service: service}
}

// quoteTab returns the tab name as an A1 range prefix. Names with spaces or
// punctuation need single quotes, with embedded quotes doubled.
func quoteTab(tab string) string {
	return "'" + strings.ReplaceAll(tab, "'", "''") + "'"
}

// EnsureSheet creates the tab if it is missing
func (w *RealWriter) EnsureSheet(ctx context.Context, spreadsheetID, sheetTab string) (bool, error) {
	ss, err := w.service.Spreadsheets.Get(spreadsheetID).
		Fields("sheets.properties.title").
		Context(ctx).
		Do()
	if err != nil {
		return false, fmt.Errorf("listing tabs: %w", err)
	}
	for _, s := range ss.Sheets {
		if s.Properties != nil && s.Properties.Title == sheetTab {
			return false, nil
		}
	}

	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			AddSheet: &sheets.AddSheetRequest{
				Properties: &sheets.SheetProperties{Title: sheetTab},
			},
		}},
	}
	if _, err := w.service.Spreadsheets.BatchUpdate(spreadsheetID, req).Context(ctx).Do(); err != nil {
		return false, fmt.Errorf("adding tab %s: %w", sheetTab, err)
	}
	return true, nil
}

// AppendRows appends rows below the existing data
func (w *RealWriter) AppendRows(ctx context.Context, spreadsheetID, sheetTab string, rows [][]interface{}) error {
	_, err := w.service.Spreadsheets.Values.Append(
		spreadsheetID,
		quoteTab(sheetTab)+"!A1",
		&sheets.ValueRange{Values: rows},
	).ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	return err
}

// ClearSheet clears all data from a sheet tab
func (w *RealWriter) ClearSheet(ctx context.Context, spreadsheetID, sheetTab string) error {
	_, err := w.service.Spreadsheets.Values.Clear(
		spreadsheetID,
		quoteTab(sheetTab),
		&sheets.ClearValuesRequest{},
	).Context(ctx).Do()
	return err
}
