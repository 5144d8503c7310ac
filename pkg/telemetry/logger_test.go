// Copyright 2025 Certen Protocol

package telemetry

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func TestComponentLoggerTagsComponentField(t *testing.T) {
	var buf bytes.Buffer
	root := NewRootLogger(&buf, zerolog.InfoLevel)
	logger := Component(root, "blockdriver")

	logger.Info().Msg("block committed")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("unmarshal log line: %v", err)
	}
	if entry["component"] != "blockdriver" {
		t.Fatalf("expected component field, got %v", entry["component"])
	}
	if entry["message"] != "block committed" {
		t.Fatalf("expected message field, got %v", entry["message"])
	}
}

func TestRootLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	root := NewRootLogger(&buf, zerolog.WarnLevel)

	root.Info().Msg("should be dropped")
	if buf.Len() != 0 {
		t.Fatalf("expected info-level message to be filtered out, got %q", buf.String())
	}

	root.Warn().Msg("should appear")
	if buf.Len() == 0 {
		t.Fatal("expected warn-level message to be written")
	}
}
