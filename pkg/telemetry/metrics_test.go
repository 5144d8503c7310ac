// Copyright 2025 Certen Protocol

package telemetry

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestNewMetricsRegistersCollectors(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewMetrics(registry)

	m.BlocksProcessed.Inc()
	m.CurrentBlockHeight.Set(42)

	families, err := registry.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}

	var foundBlocks, foundHeight bool
	for _, f := range families {
		switch f.GetName() {
		case "platform_blocks_processed_total":
			foundBlocks = true
			if f.Metric[0].GetCounter().GetValue() != 1 {
				t.Fatalf("expected 1 block processed, got %v", f.Metric[0].GetCounter().GetValue())
			}
		case "platform_current_block_height":
			foundHeight = true
			if f.Metric[0].GetGauge().GetValue() != 42 {
				t.Fatalf("expected height 42, got %v", f.Metric[0].GetGauge().GetValue())
			}
		}
	}
	if !foundBlocks || !foundHeight {
		t.Fatalf("expected both collectors registered, blocks=%v height=%v", foundBlocks, foundHeight)
	}
}

func TestInstrumentRecordsDurationAndErrors(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewMetrics(registry)

	ok := m.Instrument("/api/identities", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	notFound := m.Instrument("/api/identities", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
	})

	ok(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/identities", nil))
	notFound(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/identities", nil))

	families, err := registry.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}

	var errCount float64
	var sampleCount uint64
	for _, f := range families {
		if f.GetName() == "platform_query_request_errors_total" {
			for _, metric := range f.Metric {
				errCount += metric.GetCounter().GetValue()
			}
		}
		if f.GetName() == "platform_query_request_duration_seconds" {
			sampleCount = f.Metric[0].GetHistogram().GetSampleCount()
		}
	}
	if errCount != 1 {
		t.Fatalf("expected 1 error recorded, got %v", errCount)
	}
	if sampleCount != 2 {
		t.Fatalf("expected 2 duration samples, got %d", sampleCount)
	}
}
