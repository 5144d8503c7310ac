// Copyright 2025 Certen Protocol
//
// Unit tests for identity query handlers - parameter validation paths that
// do not require a database connection

package query

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHandleGetIdentity_MissingID(t *testing.T) {
	handlers := NewIdentityHandlers(nil)

	req := httptest.NewRequest(http.MethodGet, "/api/identities?id=", nil)
	rr := httptest.NewRecorder()
	handlers.HandleGetIdentity(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestHandleGetIdentity_InvalidHex(t *testing.T) {
	handlers := NewIdentityHandlers(nil)

	req := httptest.NewRequest(http.MethodGet, "/api/identities?id=not-hex", nil)
	rr := httptest.NewRecorder()
	handlers.HandleGetIdentity(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestHandleGetIdentityByPublicKeyHash_MissingHash(t *testing.T) {
	handlers := NewIdentityHandlers(nil)

	req := httptest.NewRequest(http.MethodGet, "/api/identities/by-key", nil)
	rr := httptest.NewRecorder()
	handlers.HandleGetIdentityByPublicKeyHash(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestHandleGetIdentityBalanceAndRevision_InvalidHex(t *testing.T) {
	handlers := NewIdentityHandlers(nil)

	req := httptest.NewRequest(http.MethodGet, "/api/identities/balance?id=zz", nil)
	rr := httptest.NewRecorder()
	handlers.HandleGetIdentityBalanceAndRevision(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestHandleGetIdentityKeys_MissingID(t *testing.T) {
	handlers := NewIdentityHandlers(nil)

	req := httptest.NewRequest(http.MethodGet, "/api/identities/keys", nil)
	rr := httptest.NewRecorder()
	handlers.HandleGetIdentityKeys(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}
