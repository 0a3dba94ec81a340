// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/danielhkuo/campus-tally/middleware"
	"github.com/danielhkuo/campus-tally/tally"
)

type ResultsHandler struct {
	tally *tally.Store
}

func NewResultsHandler(store *tally.Store) *ResultsHandler {
	return &ResultsHandler{tally: store}
}

// GetResults handles GET /elections/{id}/results.
// Results are live; there is no sealing while the election is active.
func (h *ResultsHandler) GetResults(w http.ResponseWriter, r *http.Request) {
	electionID := r.PathValue("id")
	if electionID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "election id is required")
		return
	}

	res, err := h.tally.GetResults(r.Context(), electionID)
	if err != nil {
		writeTallyError(w, err, electionID)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	middleware.JSONResponse(w, http.StatusOK, res)
}
