package logging

import (
	"bytes"
	"log/slog"
	"regexp"
	"strings"
	"testing"
)

func TestLineFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger("test", &buf, slog.LevelInfo)

	logger.Info("Test message")

	pattern := `^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}Z \[test\] INFO Test message\n$`
	if !regexp.MustCompile(pattern).MatchString(buf.String()) {
		t.Errorf("Output %q doesn't match %s", buf.String(), pattern)
	}
}

func TestLevels(t *testing.T) {
	tests := []struct {
		levelStr string
		logFunc  func(*slog.Logger, string)
	}{
		{"DEBUG", func(l *slog.Logger, m string) { l.Debug(m) }},
		{"INFO", func(l *slog.Logger, m string) { l.Info(m) }},
		{"WARN", func(l *slog.Logger, m string) { l.Warn(m) }},
		{"ERROR", func(l *slog.Logger, m string) { l.Error(m) }},
	}

	for _, tt := range tests {
		t.Run(tt.levelStr, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewLogger("test", &buf, slog.LevelDebug)

			tt.logFunc(logger, "Test")

			if !strings.Contains(buf.String(), "] "+tt.levelStr+" Test") {
				t.Errorf("Level %s not found in output: %s", tt.levelStr, buf.String())
			}
		})
	}
}

func TestAttributes(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger("test", &buf, slog.LevelInfo)

	logger.With("run_id", "abc").Info("Output saved", "destination", "Donation_Schedule", "rows", 12, "reason", "two words")

	output := buf.String()
	for _, want := range []string{"run_id=abc", "destination=Donation_Schedule", "rows=12", `reason="two words"`} {
		if !strings.Contains(output, want) {
			t.Errorf("%s not found in output: %s", want, output)
		}
	}
}

func TestGroups(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger("test", &buf, slog.LevelInfo)

	logger.WithGroup("hours").Info("Fetched", "locations", 3, slog.Group("feed", "status", 200))

	output := buf.String()
	if !strings.Contains(output, "hours.locations=3") {
		t.Errorf("group prefix missing: %s", output)
	}
	if !strings.Contains(output, "hours.feed.status=200") {
		t.Errorf("nested group prefix missing: %s", output)
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger("test", &buf, slog.LevelInfo)

	logger.Debug("Debug message")
	if buf.Len() > 0 {
		t.Errorf("DEBUG message should be filtered at INFO level, got: %s", buf.String())
	}

	logger.Info("Info message")
	if buf.Len() == 0 {
		t.Error("INFO message should be logged at INFO level")
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" INFO ":  slog.LevelInfo,
		"warning": slog.LevelWarn,
		"WARN":    slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestInitWithWriter(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	InitWithWriter(&buf, "debug")

	slog.Debug("Debug from default logger")

	output := buf.String()
	if !strings.Contains(output, "Debug from default logger") {
		t.Errorf("Message not found in output: %s", output)
	}
	if !strings.Contains(output, "["+Source+"]") {
		t.Errorf("Source tag not found in output: %s", output)
	}
}
