// Copyright 2025 Certen Protocol
//
// Identity Query API Handlers
// Provides HTTP endpoints for identity read-index lookups

package query

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/driveplatform/core/pkg/database"
)

// IdentityHandlers provides HTTP handlers for identity queries.
type IdentityHandlers struct {
	identities *database.IdentityRepository
}

// NewIdentityHandlers creates new identity query handlers.
func NewIdentityHandlers(identities *database.IdentityRepository) *IdentityHandlers {
	return &IdentityHandlers{identities: identities}
}

// HandleGetIdentity handles GET /api/identities?id=<hex> requests.
func (h *IdentityHandlers) HandleGetIdentity(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	identityID, err := hex.DecodeString(r.URL.Query().Get("id"))
	if err != nil || len(identityID) == 0 {
		http.Error(w, `{"error":"invalid or missing id parameter"}`, http.StatusBadRequest)
		return
	}

	identity, err := h.identities.Get(r.Context(), identityID)
	if err == database.ErrNotFound {
		http.Error(w, `{"error":"identity not found"}`, http.StatusNotFound)
		return
	}
	if err != nil {
		errorMsg := fmt.Sprintf(`{"error":"failed to load identity: %s"}`, err.Error())
		http.Error(w, errorMsg, http.StatusInternalServerError)
		return
	}

	if err := json.NewEncoder(w).Encode(identity); err != nil {
		http.Error(w, `{"error":"failed to encode response"}`, http.StatusInternalServerError)
	}
}

// HandleGetIdentityByPublicKeyHash handles GET /api/identities/by-key?hash=<hex> requests.
func (h *IdentityHandlers) HandleGetIdentityByPublicKeyHash(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	hash, err := hex.DecodeString(r.URL.Query().Get("hash"))
	if err != nil || len(hash) == 0 {
		http.Error(w, `{"error":"invalid or missing hash parameter"}`, http.StatusBadRequest)
		return
	}

	identity, err := h.identities.GetByPublicKeyHash(r.Context(), hash)
	if err == database.ErrNotFound {
		http.Error(w, `{"error":"identity not found"}`, http.StatusNotFound)
		return
	}
	if err != nil {
		errorMsg := fmt.Sprintf(`{"error":"failed to load identity: %s"}`, err.Error())
		http.Error(w, errorMsg, http.StatusInternalServerError)
		return
	}

	if err := json.NewEncoder(w).Encode(identity); err != nil {
		http.Error(w, `{"error":"failed to encode response"}`, http.StatusInternalServerError)
	}
}

// HandleGetIdentityBalanceAndRevision handles GET /api/identities/balance?id=<hex> requests.
// It returns only the balance and revision, the fields a client polls most often,
// rather than the full identity record.
func (h *IdentityHandlers) HandleGetIdentityBalanceAndRevision(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	identityID, err := hex.DecodeString(r.URL.Query().Get("id"))
	if err != nil || len(identityID) == 0 {
		http.Error(w, `{"error":"invalid or missing id parameter"}`, http.StatusBadRequest)
		return
	}

	identity, err := h.identities.Get(r.Context(), identityID)
	if err == database.ErrNotFound {
		http.Error(w, `{"error":"identity not found"}`, http.StatusNotFound)
		return
	}
	if err != nil {
		errorMsg := fmt.Sprintf(`{"error":"failed to load identity: %s"}`, err.Error())
		http.Error(w, errorMsg, http.StatusInternalServerError)
		return
	}

	resp := map[string]interface{}{
		"balance":  identity.Balance,
		"revision": identity.Revision,
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		http.Error(w, `{"error":"failed to encode response"}`, http.StatusInternalServerError)
	}
}

// HandleGetIdentityKeys handles GET /api/identities/keys?id=<hex> requests.
func (h *IdentityHandlers) HandleGetIdentityKeys(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	identityID, err := hex.DecodeString(r.URL.Query().Get("id"))
	if err != nil || len(identityID) == 0 {
		http.Error(w, `{"error":"invalid or missing id parameter"}`, http.StatusBadRequest)
		return
	}

	keys, err := h.identities.ListKeys(r.Context(), identityID)
	if err != nil {
		errorMsg := fmt.Sprintf(`{"error":"failed to load identity keys: %s"}`, err.Error())
		http.Error(w, errorMsg, http.StatusInternalServerError)
		return
	}

	if err := json.NewEncoder(w).Encode(keys); err != nil {
		http.Error(w, `{"error":"failed to encode response"}`, http.StatusInternalServerError)
	}
}
