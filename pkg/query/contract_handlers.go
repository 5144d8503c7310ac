// Copyright 2025 Certen Protocol
//
// Data Contract Query API Handlers
// Provides HTTP endpoints for compiled data contract read-index lookups

package query

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/driveplatform/core/pkg/database"
)

// ContractHandlers provides HTTP handlers for data contract queries.
type ContractHandlers struct {
	contracts *database.ContractRepository
}

// NewContractHandlers creates new data contract query handlers.
func NewContractHandlers(contracts *database.ContractRepository) *ContractHandlers {
	return &ContractHandlers{contracts: contracts}
}

// HandleGetDataContract handles GET /api/contracts?id=<hex> requests.
func (h *ContractHandlers) HandleGetDataContract(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	contractID, err := hex.DecodeString(r.URL.Query().Get("id"))
	if err != nil || len(contractID) == 0 {
		http.Error(w, `{"error":"invalid or missing id parameter"}`, http.StatusBadRequest)
		return
	}

	contract, err := h.contracts.Get(r.Context(), contractID)
	if err == database.ErrNotFound {
		http.Error(w, `{"error":"data contract not found"}`, http.StatusNotFound)
		return
	}
	if err != nil {
		errorMsg := fmt.Sprintf(`{"error":"failed to load data contract: %s"}`, err.Error())
		http.Error(w, errorMsg, http.StatusInternalServerError)
		return
	}

	if err := json.NewEncoder(w).Encode(contract); err != nil {
		http.Error(w, `{"error":"failed to encode response"}`, http.StatusInternalServerError)
	}
}

// HandleGetDataContracts handles GET /api/contracts/batch?ids=<hex>,<hex>,...
// and GET /api/contracts/batch?owner=<hex> requests.
func (h *ContractHandlers) HandleGetDataContracts(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if owner := r.URL.Query().Get("owner"); owner != "" {
		ownerID, err := hex.DecodeString(owner)
		if err != nil || len(ownerID) == 0 {
			http.Error(w, `{"error":"invalid owner parameter"}`, http.StatusBadRequest)
			return
		}
		contracts, err := h.contracts.ListByOwner(r.Context(), ownerID)
		if err != nil {
			errorMsg := fmt.Sprintf(`{"error":"failed to list data contracts: %s"}`, err.Error())
			http.Error(w, errorMsg, http.StatusInternalServerError)
			return
		}
		if err := json.NewEncoder(w).Encode(contracts); err != nil {
			http.Error(w, `{"error":"failed to encode response"}`, http.StatusInternalServerError)
		}
		return
	}

	idsParam := r.URL.Query().Get("ids")
	if idsParam == "" {
		http.Error(w, `{"error":"missing ids or owner parameter"}`, http.StatusBadRequest)
		return
	}

	var contractIDs [][]byte
	for _, part := range strings.Split(idsParam, ",") {
		id, err := hex.DecodeString(part)
		if err != nil || len(id) == 0 {
			http.Error(w, `{"error":"invalid id in ids parameter"}`, http.StatusBadRequest)
			return
		}
		contractIDs = append(contractIDs, id)
	}

	contracts, err := h.contracts.GetMany(r.Context(), contractIDs)
	if err != nil {
		errorMsg := fmt.Sprintf(`{"error":"failed to load data contracts: %s"}`, err.Error())
		http.Error(w, errorMsg, http.StatusInternalServerError)
		return
	}

	if err := json.NewEncoder(w).Encode(contracts); err != nil {
		http.Error(w, `{"error":"failed to encode response"}`, http.StatusInternalServerError)
	}
}
