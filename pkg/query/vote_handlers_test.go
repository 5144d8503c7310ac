// Copyright 2025 Certen Protocol
//
// Unit tests for vote query handlers - parameter validation paths that do
// not require a database connection

package query

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHandleGetVotePollStatus_MissingKey(t *testing.T) {
	handlers := NewVoteHandlers(nil)

	req := httptest.NewRequest(http.MethodGet, "/api/votes/poll", nil)
	rr := httptest.NewRecorder()
	handlers.HandleGetVotePollStatus(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestHandleGetVotePollStatus_InvalidKey(t *testing.T) {
	handlers := NewVoteHandlers(nil)

	req := httptest.NewRequest(http.MethodGet, "/api/votes/poll?key=zz", nil)
	rr := httptest.NewRecorder()
	handlers.HandleGetVotePollStatus(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}
