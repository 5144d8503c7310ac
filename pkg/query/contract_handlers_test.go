// Copyright 2025 Certen Protocol
//
// Unit tests for data contract query handlers - parameter validation paths
// that do not require a database connection

package query

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHandleGetDataContract_MissingID(t *testing.T) {
	handlers := NewContractHandlers(nil)

	req := httptest.NewRequest(http.MethodGet, "/api/contracts", nil)
	rr := httptest.NewRecorder()
	handlers.HandleGetDataContract(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestHandleGetDataContracts_MissingParams(t *testing.T) {
	handlers := NewContractHandlers(nil)

	req := httptest.NewRequest(http.MethodGet, "/api/contracts/batch", nil)
	rr := httptest.NewRecorder()
	handlers.HandleGetDataContracts(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestHandleGetDataContracts_InvalidOwner(t *testing.T) {
	handlers := NewContractHandlers(nil)

	req := httptest.NewRequest(http.MethodGet, "/api/contracts/batch?owner=zz", nil)
	rr := httptest.NewRecorder()
	handlers.HandleGetDataContracts(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestHandleGetDataContracts_InvalidIDsList(t *testing.T) {
	handlers := NewContractHandlers(nil)

	req := httptest.NewRequest(http.MethodGet, "/api/contracts/batch?ids=ab,zz", nil)
	rr := httptest.NewRecorder()
	handlers.HandleGetDataContracts(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}
