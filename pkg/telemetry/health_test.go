// Copyright 2025 Certen Protocol

package telemetry

import (
	"encoding/json"
	"testing"
)

func TestHealthStatusTransitions(t *testing.T) {
	h := NewHealthStatus()
	if h.Status != "starting" {
		t.Fatalf("expected starting status, got %q", h.Status)
	}

	h.SetConsensus("connected")
	h.SetStore("connected")
	h.SetReadIndex("connected")
	h.SetBlockDriver("connected")
	if h.Status != "ok" {
		t.Fatalf("expected ok status, got %q", h.Status)
	}
	if h.StatusCode() != 200 {
		t.Fatalf("expected 200, got %d", h.StatusCode())
	}

	h.SetReadIndex("disconnected")
	if h.Status != "degraded" {
		t.Fatalf("expected degraded status, got %q", h.Status)
	}
	if h.StatusCode() != 200 {
		t.Fatalf("expected 200 for degraded, got %d", h.StatusCode())
	}

	h.SetStore("disconnected")
	if h.Status != "error" {
		t.Fatalf("expected error status, got %q", h.Status)
	}
	if h.StatusCode() != 503 {
		t.Fatalf("expected 503 for error, got %d", h.StatusCode())
	}
}

func TestHealthStatusToJSON(t *testing.T) {
	h := NewHealthStatus()
	var decoded map[string]interface{}
	if err := json.Unmarshal(h.ToJSON(), &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded["status"] != "starting" {
		t.Fatalf("expected starting in JSON, got %v", decoded["status"])
	}
}
