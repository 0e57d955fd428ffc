package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestSetup_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, err := Setup(Config{Level: "info", Format: "json"}, &buf)
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}

	logger.Info("hello", "provider", "alpha")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if entry["msg"] != "hello" || entry["provider"] != "alpha" {
		t.Errorf("unexpected entry: %v", entry)
	}
}

func TestSetup_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger, err := Setup(Config{Level: "warn", Format: "text"}, &buf)
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}

	logger.Info("dropped")
	logger.Warn("kept")

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Error("info line should have been filtered at warn level")
	}
	if !strings.Contains(out, "kept") {
		t.Error("warn line missing")
	}
}

func TestSetup_InstallsDefault(t *testing.T) {
	var buf bytes.Buffer
	if _, err := Setup(Config{Format: "text"}, &buf); err != nil {
		t.Fatalf("Setup: %v", err)
	}

	slog.Info("via default")
	if !strings.Contains(buf.String(), "via default") {
		t.Error("slog.Default() did not use the configured handler")
	}
}

func TestSetup_RejectsUnknown(t *testing.T) {
	if _, err := Setup(Config{Level: "loud"}, &bytes.Buffer{}); err == nil {
		t.Error("expected error for unknown level")
	}
	if _, err := Setup(Config{Format: "xml"}, &bytes.Buffer{}); err == nil {
		t.Error("expected error for unknown format")
	}
}
