// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the campus-tally API.

	mux := router.NewRouter(router.Deps{
		Elections: dir,
		Tally:     store,
		Hub:       hub,
		Metrics:   m,
	})

# Endpoints

Health and metrics:

	GET /health
	GET /metrics

Election management:

	POST   /elections
	GET    /elections
	GET    /elections/{id}
	PUT    /elections/{id}
	DELETE /elections/{id}
	POST   /elections/{id}/positions/{positionId}/candidates
	DELETE /elections/{id}/positions/{positionId}/candidates/{candidateId}
	PUT    /elections/{id}/eligible-voters

Voting:

	POST /elections/{id}/votes
	GET  /elections/{id}/voters/{voterId}

Results and live updates:

	GET /elections/{id}/results
	GET /elections/{id}/updates     - server-sent events
	GET /elections/updates          - server-sent events, every election
	GET /elections/{id}/updates/ws  - websocket
*/
package router
