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

type VotingHandler struct {
	elections directory.Directory
	tally     *tally.Store
}

func NewVotingHandler(elections directory.Directory, store *tally.Store) *VotingHandler {
	return &VotingHandler{elections: elections, tally: store}
}

// SubmitVote handles POST /elections/{id}/votes
func (h *VotingHandler) SubmitVote(w http.ResponseWriter, r *http.Request) {
	electionID := r.PathValue("id")
	if electionID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "election id is required")
		return
	}

	var req models.SubmitVoteRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	// Only active elections accept ballots
	e, err := h.elections.Election(r.Context(), electionID)
	if err != nil {
		writeDirectoryError(w, err, electionID)
		return
	}
	if e.Status == models.StatusClosed {
		middleware.ErrorResponse(w, http.StatusConflict, "Election is not open for voting")
		return
	}

	res, err := h.tally.RecordVote(r.Context(), electionID, req.VoterID, req.Selections)
	if err != nil {
		writeTallyError(w, err, electionID)
		return
	}

	slog.Info("vote recorded", "election_id", electionID, "receipt_id", res.ReceiptID, "total_voted", res.TotalVoted)

	middleware.JSONResponse(w, http.StatusCreated, models.SubmitVoteResponse{
		ReceiptID:  res.ReceiptID,
		Message:    "Vote recorded successfully",
		RecordedAt: res.RecordedAt,
		TotalVoted: res.TotalVoted,
	})
}

// SetEligibleVoters handles PUT /elections/{id}/eligible-voters
func (h *VotingHandler) SetEligibleVoters(w http.ResponseWriter, r *http.Request) {
	electionID := r.PathValue("id")
	if electionID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "election id is required")
		return
	}

	var req models.SetEligibleVotersRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if err := h.tally.SetEligibleVoterCount(r.Context(), electionID, req.Count); err != nil {
		writeTallyError(w, err, electionID)
		return
	}

	slog.Info("eligible voter count set", "election_id", electionID, "count", req.Count)
	middleware.JSONResponse(w, http.StatusOK, models.MessageResponse{Message: "Eligible voter count updated"})
}

// GetVoterStatus handles GET /elections/{id}/voters/{voterId}
func (h *VotingHandler) GetVoterStatus(w http.ResponseWriter, r *http.Request) {
	electionID := r.PathValue("id")
	voterID := r.PathValue("voterId")
	if electionID == "" || voterID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "election id and voter id are required")
		return
	}

	voted, err := h.tally.HasVoted(r.Context(), electionID, voterID)
	if err != nil {
		writeTallyError(w, err, electionID)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.VoterStatusResponse{
		ElectionID: electionID,
		HasVoted:   voted,
	})
}
