package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"strconv"
	"strings"

	"github.com/harvestingmedia/dataprocessor/pipeline"
)

// MaxUploadBytes bounds the size of an uploaded file
const MaxUploadBytes = 32 << 20

// form field names
const (
	fieldFile       = "file"
	fieldHasHeaders = "has_headers"
	fieldMapping    = "mapping"
	fieldDateFormat = "date_format"
)

var errNoFile = errors.New("no file provided")

// upload is a parsed process request
type upload struct {
	filename   string
	data       []byte
	hasHeaders bool
	mapping    pipeline.Mapping
	dateFormat string
}

// readUpload extracts the file and the run options from a multipart form.
// has_headers defaults to true.
func readUpload(form *multipart.Reader) (*upload, error) {
	result := upload{hasHeaders: true}

	for {
		part, err := form.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading form data: %w", err)
		}

		err = readPart(part, &result)
		if cerr := part.Close(); cerr != nil {
			slog.Warn("Error closing multipart part", "error", cerr)
		}
		if err != nil {
			return nil, err
		}
	}

	if result.filename == "" || len(result.data) == 0 {
		return nil, errNoFile
	}
	return &result, nil
}

func readPart(part *multipart.Part, result *upload) error {
	switch part.FormName() {
	case fieldFile:
		result.filename = part.FileName()
		data, err := io.ReadAll(io.LimitReader(part, MaxUploadBytes+1))
		if err != nil {
			return fmt.Errorf("error reading file: %w", err)
		}
		if len(data) > MaxUploadBytes {
			return fmt.Errorf("file is larger than %d MB", MaxUploadBytes>>20)
		}
		result.data = data

	case fieldHasHeaders:
		value, err := readValue(part)
		if err != nil {
			return err
		}
		if value == "" {
			return nil
		}
		result.hasHeaders, err = strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid %s value %q", fieldHasHeaders, value)
		}

	case fieldMapping:
		value, err := readValue(part)
		if err != nil {
			return err
		}
		if value == "" {
			return nil
		}
		if err := json.Unmarshal([]byte(value), &result.mapping); err != nil {
			return fmt.Errorf("invalid %s: %w", fieldMapping, err)
		}

	case fieldDateFormat:
		value, err := readValue(part)
		if err != nil {
			return err
		}
		result.dateFormat = value
	}
	return nil
}

func readValue(part *multipart.Part) (string, error) {
	data, err := io.ReadAll(io.LimitReader(part, 64<<10))
	if err != nil {
		return "", fmt.Errorf("error reading %s: %w", part.FormName(), err)
	}
	return strings.TrimSpace(string(data)), nil
}
