package hours

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/harvestingmedia/dataprocessor/facility"
)

// DefaultURL is the hosted hours feed
const DefaultURL = "https://olgamlife.github.io/chatbot/hoursolgam.json"

// Config holds hours feed configuration
type Config struct {
	URL     string
	Timeout time.Duration // bounds the whole fetch, retries included
	Retries int
}

// DefaultConfig returns default hours feed configuration
func DefaultConfig() *Config {
	return &Config{
		URL:     DefaultURL,
		Timeout: 10 * time.Second,
		Retries: 2,
	}
}

// Snapshot is the result of one fetch. A degraded snapshot carries empty
// hours and the reason the feed could not be used.
type Snapshot struct {
	Hours     WeeklyHours
	Degraded  bool
	Reason    string
	FetchedAt time.Time
}

// Source fetches the weekly hours feed. It keeps no state between fetches.
type Source struct {
	url     string
	timeout time.Duration
	client  *retryablehttp.Client
}

// NewSource creates a new hours feed source
func NewSource(cfg *Config) *Source {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	client := retryablehttp.NewClient()
	client.RetryMax = cfg.Retries
	client.RetryWaitMin = 250 * time.Millisecond
	client.RetryWaitMax = 2 * time.Second
	client.Logger = slog.Default()

	return &Source{
		url:     cfg.URL,
		timeout: cfg.Timeout,
		client:  client,
	}
}

// Fetch downloads the hours table. It never fails: network errors, timeouts,
// bad statuses and undecodable bodies all produce a degraded snapshot with
// empty hours.
func (s *Source) Fetch(ctx context.Context) Snapshot {
	hours, err := s.fetch(ctx)
	if err != nil {
		slog.Warn("Hours feed unavailable, next dates fall back to the fixed offset",
			"url", s.url,
			"error", err,
		)
		return Snapshot{
			Hours:     WeeklyHours{},
			Degraded:  true,
			Reason:    err.Error(),
			FetchedAt: time.Now(),
		}
	}

	slog.Debug("Fetched hours feed", "url", s.url, "locations", hours.Locations())
	return Snapshot{Hours: hours, FetchedAt: time.Now()}
}

func (s *Source) fetch(ctx context.Context) (WeeklyHours, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create hours request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("hours request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("hours feed returned status %d: %s", resp.StatusCode, string(body))
	}

	return Decode(resp.Body)
}

// Decode reads the feed document: an object keyed by location name whose
// values map weekday names to status strings. Location names are normalized
// to LocationIDs; non-string statuses are stringified. Entries whose value is
// not an object are skipped.
func Decode(r io.Reader) (WeeklyHours, error) {
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode hours feed: %w", err)
	}

	hours := make(WeeklyHours, len(raw))
	for name, entry := range raw {
		var days map[string]any
		if err := json.Unmarshal(entry, &days); err != nil || days == nil {
			slog.Debug("Skipping hours feed entry", "key", name, "error", err)
			continue
		}
		statuses := make(map[string]string, len(days))
		for day, status := range days {
			if s, ok := status.(string); ok {
				statuses[day] = s
				continue
			}
			statuses[day] = fmt.Sprint(status)
		}
		hours[facility.NormalizeName(name)] = statuses
	}
	return hours, nil
}
