// Package google builds the Google Sheets API client from a service account
// key file.
package google

import (
	"context"
	"fmt"
	"os"
	"strings"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// DefaultKeyFile is the service account key looked up in the working
// directory when none is configured
const DefaultKeyFile = "google_sheets.json"

// Config says whether to talk to Google Sheets and with which credentials
type Config struct {
	Enabled bool
	KeyFile string
}

// NewSheetsClient creates a Sheets API client using service account
// credentials. Returns nil, nil when Sheets is disabled.
func NewSheetsClient(ctx context.Context, cfg Config) (*sheets.Service, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	credJSON, err := readCredentials(cfg.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to get credentials: %w", err)
	}

	jwt, err := google.JWTConfigFromJSON(credJSON, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("failed to parse credentials: %w", err)
	}

	srv, err := sheets.NewService(ctx, option.WithHTTPClient(jwt.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}
	return srv, nil
}

func readCredentials(keyFile string) ([]byte, error) {
	keyFile = strings.TrimSpace(keyFile)
	if keyFile == "" {
		keyFile = DefaultKeyFile
	}

	data, err := os.ReadFile(keyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials file %s: %w", keyFile, err)
	}
	return data, nil
}
