// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/campus-tally/directory"
	"github.com/danielhkuo/campus-tally/middleware"
	"github.com/danielhkuo/campus-tally/tally"
)

// writeTallyError maps tally errors to status codes. Storage trouble is
// reported as 503 so clients know the ballot was not counted.
func writeTallyError(w http.ResponseWriter, err error, electionID string) {
	switch {
	case errors.Is(err, tally.ErrElectionNotFound):
		middleware.ErrorResponse(w, http.StatusNotFound, "Election not found")
	case errors.Is(err, tally.ErrAlreadyVoted):
		middleware.ErrorResponse(w, http.StatusConflict, "Voter has already voted in this election")
	case errors.Is(err, tally.ErrPositionMismatch):
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, tally.ErrInvalidVoter), errors.Is(err, tally.ErrInvalidCount):
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, tally.ErrStorageUnavailable):
		slog.Warn("tally storage unavailable", "election_id", electionID, "error", err)
		middleware.ErrorResponse(w, http.StatusServiceUnavailable, "Vote store unavailable; nothing was recorded, try again")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		middleware.ErrorResponse(w, http.StatusServiceUnavailable, "Request canceled before it was processed")
	default:
		slog.Error("unexpected tally error", "election_id", electionID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Internal error")
	}
}

// writeDirectoryError maps election directory errors to status codes
func writeDirectoryError(w http.ResponseWriter, err error, electionID string) {
	switch {
	case errors.Is(err, directory.ErrNotFound):
		middleware.ErrorResponse(w, http.StatusNotFound, "Election not found")
	case errors.Is(err, directory.ErrPositionNotFound):
		middleware.ErrorResponse(w, http.StatusNotFound, "Position not found")
	case errors.Is(err, directory.ErrCandidateNotFound):
		middleware.ErrorResponse(w, http.StatusNotFound, "Candidate not found")
	case errors.Is(err, directory.ErrInvalid):
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
	default:
		slog.Error("election directory error", "election_id", electionID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
	}
}
