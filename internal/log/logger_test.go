package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func jsonLogger(buf *bytes.Buffer, component string) *Logger {
	return New(Config{
		Component: component,
		Handler:   slog.NewJSONHandler(buf, nil),
	})
}

func lastRecord(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[len(lines)-1]), &rec); err != nil {
		t.Fatalf("decode record: %v", err)
	}
	return rec
}

func TestLoggerCarriesComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := jsonLogger(&buf, "worker")

	logger.Info("hello", "k", "v")

	rec := lastRecord(t, &buf)
	if rec["component"] != "worker" {
		t.Fatalf("component = %v, want worker", rec["component"])
	}
	if rec["k"] != "v" {
		t.Fatalf("attribute k = %v, want v", rec["k"])
	}
}

func TestWithComponentReplaces(t *testing.T) {
	var buf bytes.Buffer
	logger := jsonLogger(&buf, "api").WithComponent("reconciler")

	logger.Info("tick")

	line := buf.String()
	if strings.Count(line, `"component"`) != 1 {
		t.Fatalf("component attribute should appear once, got: %s", line)
	}
	rec := lastRecord(t, &buf)
	if rec["component"] != "reconciler" {
		t.Fatalf("component = %v, want reconciler", rec["component"])
	}
}

func TestWithKeepsComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := jsonLogger(&buf, "api").With("request_id", "req_1")

	logger.Warn("slow query")

	rec := lastRecord(t, &buf)
	if rec["component"] != "api" {
		t.Fatalf("component = %v, want api", rec["component"])
	}
	if rec["request_id"] != "req_1" {
		t.Fatalf("request_id = %v", rec["request_id"])
	}
}
