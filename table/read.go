package table

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dimchansky/utfbom"
	"github.com/go-gota/gota/dataframe"
	"github.com/xuri/excelize/v2"
)

// ErrUnsupportedFormat is returned for uploads with an extension the reader
// (or the process) does not accept
var ErrUnsupportedFormat = errors.New("unsupported file format")

// Supported upload extensions
const (
	ExtCSV  = ".csv"
	ExtXLSX = ".xlsx"
	ExtTXT  = ".txt"
)

// AllExtensions lists every extension Read understands
var AllExtensions = []string{ExtCSV, ExtXLSX, ExtTXT}

// nanMarker is how gota renders missing values
const nanMarker = "NaN"

// ReadOptions controls how an upload is read
type ReadOptions struct {
	// HasHeaders treats the first row as column names. Without headers the
	// columns are named "Column 1", "Column 2", ...
	HasHeaders bool
	// Extensions restricts the accepted file types; empty means AllExtensions
	Extensions []string
}

// Read parses an uploaded file chosen by its extension: .csv is comma
// separated, .txt is comma separated unless that yields a single column, in
// which case it is read as tab separated, and .xlsx reads the first sheet.
func Read(filename string, r io.Reader, opts ReadOptions) (*Table, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !accepts(opts.Extensions, ext) {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Base(filename))
	}

	data, err := io.ReadAll(utfbom.SkipOnly(r))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", filename, err)
	}

	switch ext {
	case ExtCSV:
		return readDelimited(data, ',', opts.HasHeaders)
	case ExtTXT:
		t, err := readDelimited(data, ',', opts.HasHeaders)
		if err == nil && len(t.columns) > 1 {
			return t, nil
		}
		return readDelimited(data, '\t', opts.HasHeaders)
	case ExtXLSX:
		return readXLSX(data, opts.HasHeaders)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
}

func accepts(allowed []string, ext string) bool {
	if len(allowed) == 0 {
		allowed = AllExtensions
	}
	for _, a := range allowed {
		if strings.EqualFold(a, ext) {
			return true
		}
	}
	return false
}

func readDelimited(data []byte, delimiter rune, hasHeaders bool) (*Table, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmpty
	}

	df := dataframe.ReadCSV(bytes.NewReader(data),
		dataframe.HasHeader(hasHeaders),
		dataframe.DetectTypes(false),
		dataframe.WithDelimiter(delimiter),
	)
	if df.Err != nil {
		return nil, fmt.Errorf("parsing delimited file: %w", df.Err)
	}
	return fromDataFrame(df, hasHeaders)
}

func readXLSX(data []byte, hasHeaders bool) (*Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmpty
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("reading sheet %s: %w", sheets[0], err)
	}
	if err := rewriteDateCells(f, sheets[0], rows); err != nil {
		return nil, err
	}
	rows = dropBlankRows(rows)
	if len(rows) == 0 {
		return nil, ErrEmpty
	}

	// GetRows trims trailing empty cells, gota needs a rectangle
	width := 0
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}
	records := make([][]string, len(rows))
	for i, row := range rows {
		padded := make([]string, width)
		copy(padded, row)
		records[i] = padded
	}

	df := dataframe.LoadRecords(records,
		dataframe.HasHeader(hasHeaders),
		dataframe.DetectTypes(false),
	)
	if df.Err != nil {
		return nil, fmt.Errorf("loading workbook rows: %w", df.Err)
	}
	return fromDataFrame(df, hasHeaders)
}

func dropBlankRows(rows [][]string) [][]string {
	out := rows[:0]
	for _, row := range rows {
		if strings.TrimSpace(strings.Join(row, "")) != "" {
			out = append(out, row)
		}
	}
	return out
}

// fromDataFrame converts a string-typed dataframe, turning gota's missing
// values back into empty strings
func fromDataFrame(df dataframe.DataFrame, hasHeaders bool) (*Table, error) {
	records := df.Records()
	if len(records) == 0 {
		return nil, ErrEmpty
	}

	columns := records[0]
	if !hasHeaders {
		columns = make([]string, len(records[0]))
		for i := range columns {
			columns[i] = fmt.Sprintf("Column %d", i+1)
		}
	}

	rows := records[1:]
	for _, row := range rows {
		for i, v := range row {
			if v == nanMarker {
				row[i] = ""
			}
		}
	}
	return New(columns, rows)
}
