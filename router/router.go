// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"net/http"
	"time"

	"github.com/danielhkuo/campus-tally/directory"
	"github.com/danielhkuo/campus-tally/handlers"
	"github.com/danielhkuo/campus-tally/metrics"
	"github.com/danielhkuo/campus-tally/middleware"
	"github.com/danielhkuo/campus-tally/notify"
	"github.com/danielhkuo/campus-tally/tally"
)

// Deps are the services the HTTP API is built on
type Deps struct {
	Elections directory.Manager
	Tally     *tally.Store
	Hub       *notify.Hub
	Metrics   *metrics.TallyMetrics // optional; /metrics is not served without it
	Heartbeat time.Duration         // SSE and websocket keepalive
}

func NewRouter(deps Deps) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize handlers
	electionHandler := handlers.NewElectionHandler(deps.Elections, deps.Tally)
	votingHandler := handlers.NewVotingHandler(deps.Elections, deps.Tally)
	resultsHandler := handlers.NewResultsHandler(deps.Tally)
	updatesHandler := handlers.NewUpdatesHandler(deps.Elections, deps.Hub, deps.Metrics, deps.Heartbeat)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	if deps.Metrics != nil {
		mux.Handle("GET /metrics", deps.Metrics.Handler())
	}

	// Election management (admin)
	mux.HandleFunc("POST /elections", middleware.WithLogging(electionHandler.Create))
	mux.HandleFunc("GET /elections", middleware.WithLogging(electionHandler.List))
	mux.HandleFunc("GET /elections/{id}", middleware.WithLogging(electionHandler.Get))
	mux.HandleFunc("PUT /elections/{id}", middleware.WithLogging(electionHandler.Update))
	mux.HandleFunc("DELETE /elections/{id}", middleware.WithLogging(electionHandler.Delete))
	mux.HandleFunc("POST /elections/{id}/positions/{positionId}/candidates", middleware.WithLogging(electionHandler.AddCandidate))
	mux.HandleFunc("DELETE /elections/{id}/positions/{positionId}/candidates/{candidateId}", middleware.WithLogging(electionHandler.RemoveCandidate))
	mux.HandleFunc("PUT /elections/{id}/eligible-voters", middleware.WithLogging(votingHandler.SetEligibleVoters))

	// Voting
	mux.HandleFunc("POST /elections/{id}/votes", middleware.WithLogging(votingHandler.SubmitVote))
	mux.HandleFunc("GET /elections/{id}/voters/{voterId}", middleware.WithLogging(votingHandler.GetVoterStatus))

	// Results and live updates
	mux.HandleFunc("GET /elections/{id}/results", middleware.WithLogging(resultsHandler.GetResults))
	mux.HandleFunc("GET /elections/updates", middleware.WithLogging(updatesHandler.Stream))
	mux.HandleFunc("GET /elections/{id}/updates", middleware.WithLogging(updatesHandler.Stream))
	mux.HandleFunc("GET /elections/{id}/updates/ws", middleware.WithLogging(updatesHandler.WebSocket))

	// Root endpoint
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("campus-tally API v1"))
	})

	return mux
}
