// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/danielhkuo/campus-tally/directory"
	"github.com/danielhkuo/campus-tally/middleware"
	"github.com/danielhkuo/campus-tally/models"
	"github.com/danielhkuo/campus-tally/tally"
)

type ElectionHandler struct {
	elections directory.Manager
	tally     *tally.Store
}

func NewElectionHandler(elections directory.Manager, store *tally.Store) *ElectionHandler {
	return &ElectionHandler{elections: elections, tally: store}
}

// Create handles POST /elections
func (h *ElectionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateElectionRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	e, err := h.elections.Create(r.Context(), req)
	if err != nil {
		writeDirectoryError(w, err, "")
		return
	}

	slog.Info("election created", "election_id", e.ID, "positions", len(e.Positions))
	middleware.JSONResponse(w, http.StatusCreated, e)
}

// List handles GET /elections
func (h *ElectionHandler) List(w http.ResponseWriter, r *http.Request) {
	elections, err := h.elections.List(r.Context())
	if err != nil {
		writeDirectoryError(w, err, "")
		return
	}
	if elections == nil {
		elections = []models.Election{}
	}
	middleware.JSONResponse(w, http.StatusOK, elections)
}

// Get handles GET /elections/{id}
func (h *ElectionHandler) Get(w http.ResponseWriter, r *http.Request) {
	electionID := r.PathValue("id")
	if electionID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "election id is required")
		return
	}

	e, err := h.elections.Election(r.Context(), electionID)
	if err != nil {
		writeDirectoryError(w, err, electionID)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, e)
}

// Update handles PUT /elections/{id}
func (h *ElectionHandler) Update(w http.ResponseWriter, r *http.Request) {
	electionID := r.PathValue("id")
	if electionID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "election id is required")
		return
	}

	var req models.UpdateElectionRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	e, err := h.elections.Update(r.Context(), electionID, req)
	if err != nil {
		writeDirectoryError(w, err, electionID)
		return
	}

	slog.Info("election updated", "election_id", electionID, "status", e.Status)
	middleware.JSONResponse(w, http.StatusOK, e)
}

// Delete handles DELETE /elections/{id}. The tally goes with it.
func (h *ElectionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	electionID := r.PathValue("id")
	if electionID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "election id is required")
		return
	}

	if err := h.elections.Delete(r.Context(), electionID); err != nil {
		writeDirectoryError(w, err, electionID)
		return
	}

	if err := h.tally.Forget(r.Context(), electionID); err != nil {
		// The election is gone; a stale snapshot is only wasted space
		slog.Warn("failed to drop tally for deleted election", "election_id", electionID, "error", err)
	}

	slog.Info("election deleted", "election_id", electionID)
	middleware.JSONResponse(w, http.StatusOK, models.MessageResponse{Message: "Election deleted successfully"})
}

// AddCandidate handles POST /elections/{id}/positions/{positionId}/candidates
func (h *ElectionHandler) AddCandidate(w http.ResponseWriter, r *http.Request) {
	electionID := r.PathValue("id")
	positionID := r.PathValue("positionId")
	if electionID == "" || positionID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "election id and position id are required")
		return
	}

	var req models.CandidateInput
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	c, err := h.elections.AddCandidate(r.Context(), electionID, positionID, req)
	if err != nil {
		writeDirectoryError(w, err, electionID)
		return
	}

	slog.Info("candidate added", "election_id", electionID, "position_id", positionID, "candidate_id", c.ID)
	middleware.JSONResponse(w, http.StatusCreated, c)
}

// RemoveCandidate handles DELETE /elections/{id}/positions/{positionId}/candidates/{candidateId}.
// Votes already counted for the candidate stay in the tally but are no
// longer reported.
func (h *ElectionHandler) RemoveCandidate(w http.ResponseWriter, r *http.Request) {
	electionID := r.PathValue("id")
	positionID := r.PathValue("positionId")
	candidateID := r.PathValue("candidateId")
	if electionID == "" || positionID == "" || candidateID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "candidate path is incomplete")
		return
	}

	if err := h.elections.RemoveCandidate(r.Context(), electionID, positionID, candidateID); err != nil {
		writeDirectoryError(w, err, electionID)
		return
	}

	slog.Info("candidate removed", "election_id", electionID, "position_id", positionID, "candidate_id", candidateID)
	middleware.JSONResponse(w, http.StatusOK, models.MessageResponse{Message: "Candidate removed successfully"})
}
