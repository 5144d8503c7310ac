// Copyright 2025 Certen Protocol
//
// Document Query API Handlers
// Provides HTTP endpoints for committed document read-index lookups

package query

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/driveplatform/core/pkg/database"
)

// DocumentHandlers provides HTTP handlers for document queries.
type DocumentHandlers struct {
	documents *database.DocumentRepository
}

// NewDocumentHandlers creates new document query handlers.
func NewDocumentHandlers(documents *database.DocumentRepository) *DocumentHandlers {
	return &DocumentHandlers{documents: documents}
}

// HandleGetDocument handles GET /api/documents/get?id=<hex> requests.
func (h *DocumentHandlers) HandleGetDocument(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	documentID, err := hex.DecodeString(r.URL.Query().Get("id"))
	if err != nil || len(documentID) == 0 {
		http.Error(w, `{"error":"invalid or missing id parameter"}`, http.StatusBadRequest)
		return
	}

	doc, err := h.documents.Get(r.Context(), documentID)
	if err == database.ErrNotFound {
		http.Error(w, `{"error":"document not found"}`, http.StatusNotFound)
		return
	}
	if err != nil {
		errorMsg := fmt.Sprintf(`{"error":"failed to load document: %s"}`, err.Error())
		http.Error(w, errorMsg, http.StatusInternalServerError)
		return
	}

	if err := json.NewEncoder(w).Encode(doc); err != nil {
		http.Error(w, `{"error":"failed to encode response"}`, http.StatusInternalServerError)
	}
}

// HandleGetDocuments handles GET /api/documents requests, required query
// parameters contract and type, optional owner, includeDeleted, limit, offset.
func (h *DocumentHandlers) HandleGetDocuments(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	contractID, err := hex.DecodeString(r.URL.Query().Get("contract"))
	if err != nil || len(contractID) == 0 {
		http.Error(w, `{"error":"invalid or missing contract parameter"}`, http.StatusBadRequest)
		return
	}

	docType := r.URL.Query().Get("type")
	if docType == "" {
		http.Error(w, `{"error":"missing type parameter"}`, http.StatusBadRequest)
		return
	}

	q := database.DocumentQuery{
		ContractID:   contractID,
		DocumentType: docType,
	}

	if owner := r.URL.Query().Get("owner"); owner != "" {
		ownerID, err := hex.DecodeString(owner)
		if err != nil || len(ownerID) == 0 {
			http.Error(w, `{"error":"invalid owner parameter"}`, http.StatusBadRequest)
			return
		}
		q.OwnerID = ownerID
	}

	if includeDeleted := r.URL.Query().Get("includeDeleted"); includeDeleted != "" {
		val, err := strconv.ParseBool(includeDeleted)
		if err != nil {
			http.Error(w, `{"error":"invalid includeDeleted parameter"}`, http.StatusBadRequest)
			return
		}
		q.IncludeDeleted = val
	}

	if limit := r.URL.Query().Get("limit"); limit != "" {
		val, err := strconv.Atoi(limit)
		if err != nil {
			http.Error(w, `{"error":"invalid limit parameter"}`, http.StatusBadRequest)
			return
		}
		q.Limit = val
	}

	if offset := r.URL.Query().Get("offset"); offset != "" {
		val, err := strconv.Atoi(offset)
		if err != nil {
			http.Error(w, `{"error":"invalid offset parameter"}`, http.StatusBadRequest)
			return
		}
		q.Offset = val
	}

	docs, err := h.documents.List(r.Context(), q)
	if err != nil {
		errorMsg := fmt.Sprintf(`{"error":"failed to list documents: %s"}`, err.Error())
		http.Error(w, errorMsg, http.StatusInternalServerError)
		return
	}

	if err := json.NewEncoder(w).Encode(docs); err != nil {
		http.Error(w, `{"error":"failed to encode response"}`, http.StatusInternalServerError)
	}
}
