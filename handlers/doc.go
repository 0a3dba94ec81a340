// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the campus-tally API.

# Handler Types

  - ElectionHandler: election, position and candidate management
  - VotingHandler: ballot submission, eligible voter count, voter status
  - ResultsHandler: live ranked results
  - UpdatesHandler: change markers over server-sent events and websocket

Handlers are built from the election directory and the tally store:

	votingHandler := handlers.NewVotingHandler(dir, store)

# Voting

	POST /elections/{id}/votes
	{"voterId": "21CS1042", "votes": {"pos_1": ["cand_2"]}}

Responses:

	201  ballot counted, body carries a receiptId
	400  ballot does not fit the election's positions
	404  unknown election
	409  voter already voted, or election closed
	503  store unavailable; nothing was counted and the ballot may be resent

# Live Updates

GET /elections/{id}/updates streams:

	data: connected

	event: update
	data: {"election_id":"election_1","at":"2025-03-01T10:00:00Z"}

	: heartbeat

Markers carry no counts. Viewers refetch /elections/{id}/results when one
arrives, and should also poll, since a slow viewer may miss markers.
*/
package handlers
