package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestJSONLoggerAddsComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelInfo, Format: "json", Output: &buf}).WithComponent(ComponentDataset)
	logger.Info("Dataset loaded", FieldRows, 3)

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("output is not JSON: %v (%s)", err, buf.String())
	}
	if rec[FieldComponent] != ComponentDataset || rec[FieldRows] != float64(3) {
		t.Fatalf("unexpected record %v", rec)
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelWarn, Output: &buf})
	logger.Info("hidden")
	logger.Warn("shown")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

func TestContextLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelInfo, Output: &buf})
	ctx := NewContext(context.Background(), logger.With(FieldRequestID, "req_1"))
	FromContext(ctx).Info("inside")
	if !strings.Contains(buf.String(), "request_id=req_1") {
		t.Fatalf("request id missing: %q", buf.String())
	}

	if FromContext(context.Background()).Component() != "unknown" {
		t.Fatalf("fallback logger should be unknown component")
	}
}

func TestStructuredLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(New(Config{Level: slog.LevelInfo, Output: &buf}))
	r := httptest.NewRequest(http.MethodGet, "/api/dashboard?year=2022", nil)

	sl.LogHTTPEnd(context.Background(), r, "req_2", "10.0.0.1", http.StatusServiceUnavailable, 4)
	if !strings.Contains(buf.String(), "level=ERROR") || !strings.Contains(buf.String(), "status_code=503") {
		t.Fatalf("unexpected output %q", buf.String())
	}

	buf.Reset()
	sl.LogError(context.Background(), "Reload failed", errors.New("boom"), OpReload, nil)
	if !strings.Contains(buf.String(), "error=boom") || !strings.Contains(buf.String(), "operation=reload") {
		t.Fatalf("unexpected output %q", buf.String())
	}
}
