// Copyright 2025 Certen Protocol
//
// Vote Query API Handlers
// Provides HTTP endpoints for contested-index vote polls and protocol
// version upgrade status

package query

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/driveplatform/core/pkg/database"
)

// VoteHandlers provides HTTP handlers for vote-poll and protocol-version-vote queries.
type VoteHandlers struct {
	votes *database.VoteRepository
}

// NewVoteHandlers creates new vote query handlers.
func NewVoteHandlers(votes *database.VoteRepository) *VoteHandlers {
	return &VoteHandlers{votes: votes}
}

// HandleGetVotePollStatus handles GET /api/votes/poll?key=<hex> requests,
// returning the poll plus its accumulated choice weights.
func (h *VoteHandlers) HandleGetVotePollStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	pollKey, err := hex.DecodeString(r.URL.Query().Get("key"))
	if err != nil || len(pollKey) == 0 {
		http.Error(w, `{"error":"invalid or missing key parameter"}`, http.StatusBadRequest)
		return
	}

	poll, err := h.votes.GetPoll(r.Context(), pollKey)
	if err == database.ErrNotFound {
		http.Error(w, `{"error":"vote poll not found"}`, http.StatusNotFound)
		return
	}
	if err != nil {
		errorMsg := fmt.Sprintf(`{"error":"failed to load vote poll: %s"}`, err.Error())
		http.Error(w, errorMsg, http.StatusInternalServerError)
		return
	}

	choices, err := h.votes.ListChoices(r.Context(), pollKey)
	if err != nil {
		errorMsg := fmt.Sprintf(`{"error":"failed to load vote poll choices: %s"}`, err.Error())
		http.Error(w, errorMsg, http.StatusInternalServerError)
		return
	}

	resp := map[string]interface{}{
		"poll":    poll,
		"choices": choices,
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		http.Error(w, `{"error":"failed to encode response"}`, http.StatusInternalServerError)
	}
}

// HandleGetProtocolVersionUpgradeVoteStatus handles GET /api/votes/protocol-version requests.
func (h *VoteHandlers) HandleGetProtocolVersionUpgradeVoteStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	latest, err := h.votes.LatestProtocolVersionVote(r.Context())
	if err == database.ErrNotFound {
		http.Error(w, `{"error":"no protocol version vote recorded"}`, http.StatusNotFound)
		return
	}
	if err != nil {
		errorMsg := fmt.Sprintf(`{"error":"failed to load protocol version vote status: %s"}`, err.Error())
		http.Error(w, errorMsg, http.StatusInternalServerError)
		return
	}

	if err := json.NewEncoder(w).Encode(latest); err != nil {
		http.Error(w, `{"error":"failed to encode response"}`, http.StatusInternalServerError)
	}
}
