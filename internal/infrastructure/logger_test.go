package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"labmeas/internal/config"
)

func lastJSONLine(t *testing.T, content []byte) map[string]interface{} {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	var entry map[string]interface{}
	if err := json.Unmarshal([]byte(lines[len(lines)-1]), &entry); err != nil {
		t.Fatalf("Log output is not valid JSON: %v", err)
	}
	return entry
}

func TestOpenLogSink(t *testing.T) {
	tests := []struct {
		output      string
		wantConsole bool
		wantFile    bool
	}{
		{"console", true, false},
		{"file", false, true},
		{"both", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.output, func(t *testing.T) {
			logFile := filepath.Join(t.TempDir(), "logs", "test.log")
			var console bytes.Buffer
			sink, err := OpenLogSink(config.LoggingConfig{
				Level:    "info",
				Format:   "json",
				Output:   tt.output,
				FilePath: logFile,
			}, &console)
			if err != nil {
				t.Fatalf("Failed to open log sink: %v", err)
			}

			sink.Logger.Info("test message", "key", "value")
			if err := sink.Close(); err != nil {
				t.Fatalf("Close failed: %v", err)
			}
			if err := sink.Close(); err != nil {
				t.Errorf("Second Close failed: %v", err)
			}

			if got := console.Len() > 0; got != tt.wantConsole {
				t.Errorf("console written = %v, want %v", got, tt.wantConsole)
			}
			content, err := os.ReadFile(logFile)
			if !tt.wantFile {
				if !os.IsNotExist(err) {
					t.Errorf("Expected no log file for output %s", tt.output)
				}
				return
			}
			if err != nil {
				t.Fatalf("Failed to read log file: %v", err)
			}
			entry := lastJSONLine(t, content)
			if entry["msg"] != "test message" {
				t.Errorf("Expected msg='test message', got %v", entry["msg"])
			}
			if entry["key"] != "value" {
				t.Errorf("Expected key='value', got %v", entry["key"])
			}
			if entry["level"] != "INFO" {
				t.Errorf("Expected level='INFO', got %v", entry["level"])
			}
		})
	}
}

func TestOpenLogSinkBadPath(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(blocker, nil, 0644); err != nil {
		t.Fatal(err)
	}
	_, err := OpenLogSink(config.LoggingConfig{Output: "file", FilePath: filepath.Join(blocker, "x.log")}, io.Discard)
	if err == nil {
		t.Fatal("Expected an error for a log path below a regular file")
	}
}

func TestContextLoggerFallsBackToDefault(t *testing.T) {
	if LoggerWithContext(context.Background(), nil) != slog.Default() {
		t.Error("Expected slog.Default for a nil logger without trace ID")
	}
}

func TestTraceIDInjection(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "debug")

	ctx := WithTraceID(context.Background(), "test-trace-123")
	logger.InfoContext(ctx, "test with trace")

	entry := lastJSONLine(t, buf.Bytes())
	if entry["trace_id"] != "test-trace-123" {
		t.Errorf("Expected trace_id='test-trace-123', got %v", entry["trace_id"])
	}
}

func TestLogLevels(t *testing.T) {
	tests := []struct {
		level   string
		logged  bool
		wantLvl string
	}{
		{"debug", true, "DEBUG"},
		{"info", false, ""},
		{"warning", false, ""},
		{"bogus", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			NewLogger(&buf, tt.level).Debug("test debug")

			if !tt.logged {
				if buf.Len() != 0 {
					t.Errorf("Expected no output at level %s, got %s", tt.level, buf.String())
				}
				return
			}
			entry := lastJSONLine(t, buf.Bytes())
			if entry["level"] != tt.wantLvl {
				t.Errorf("Expected level=%s, got %v", tt.wantLvl, entry["level"])
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
		"":      slog.LevelInfo,
	}
	for in, want := range cases {
		if got := parseLogLevel(in); got != want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestContextHelpers(t *testing.T) {
	ctx := EnsureTraceID(context.Background())
	id := GetTraceID(ctx)
	if id == "" {
		t.Fatal("EnsureTraceID did not set a trace ID")
	}
	if again := GetTraceID(EnsureTraceID(ctx)); again != id {
		t.Errorf("EnsureTraceID replaced existing trace ID %s with %s", id, again)
	}
	if GetTraceID(context.Background()) != "" {
		t.Error("Expected empty trace ID on background context")
	}

	var buf bytes.Buffer
	logger := WithComponent(LoggerWithContext(ctx, NewLogger(&buf, "info")), "importer")
	logger.Info("hello")

	entry := lastJSONLine(t, buf.Bytes())
	if entry["trace_id"] != id {
		t.Errorf("Expected trace_id=%s, got %v", id, entry["trace_id"])
	}
	if entry["component"] != "importer" {
		t.Errorf("Expected component=importer, got %v", entry["component"])
	}
}
