package common

import (
	"bytes"
	"strings"
	"testing"
)

func TestNewLogger_FluentAPI(t *testing.T) {
	logger := NewLoggerFromConfig(LoggingConfig{Level: "error", Outputs: []string{"console"}})
	if logger == nil {
		t.Fatal("NewLoggerFromConfig returned nil")
	}
	logger.Info().Str("ticker", "AAPL").Msg("report requested")
	logger.Warn().Int("suggestions", 5).Msg("lookup")
	logger.Error().Err(nil).Msg("generation failed")
	logger.Debug().Bool("loading", true).Msg("state")
}

func TestNewLoggerWithOutput_WritesLines(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithOutput("info", &buf)
	logger.Info().Str("ticker", "TSLA").Msg("lookup complete")

	out := buf.String()
	if out == "" {
		t.Fatal("expected output in provided writer")
	}
	if !strings.Contains(out, "lookup complete") {
		t.Errorf("expected message in output, got %q", out)
	}
}

func TestNewSilentLogger_DoesNotWriteToGlobalWriters(t *testing.T) {
	var buf bytes.Buffer
	_ = NewLoggerWithOutput("info", &buf)
	buf.Reset()

	silent := NewSilentLogger()
	silent.Info().Str("key", "value").Msg("should not appear")
	silent.Error().Msg("should not appear either")

	if buf.Len() > 0 {
		t.Errorf("silent logger wrote %d bytes: %s", buf.Len(), buf.String())
	}
}

func TestWithCorrelationId_ReturnsNewLogger(t *testing.T) {
	logger := NewSilentLogger()
	tagged := logger.WithCorrelationId("req-123")
	if tagged == nil {
		t.Fatal("WithCorrelationId returned nil")
	}
	if tagged == logger {
		t.Error("expected a distinct logger instance")
	}
	tagged.Info().Msg("tagged")
}
