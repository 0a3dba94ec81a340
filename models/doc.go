// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, directory, and tally types.

# Request Types

  - CreateElectionRequest: title, description, timeline, positions
  - UpdateElectionRequest: partial title/description/timeline/status
  - SubmitVoteRequest: voterId, votes (position id → candidate ids)
  - SetEligibleVotersRequest: count

# Directory Types

Election, Position and Candidate describe the ballot structure. Candidate
order inside a Position is insertion order and is used as the tie-break
when ranking results.

# Tally Types

TallySnapshot is the persisted document for one election:

	{
	  "electionId": "election_1",
	  "version": 3,
	  "votes": {"pos_1": {"cand_1": {"votes": 2, "lastUpdated": "..."}}},
	  "voterStatus": {"totalEligibleVoters": 40, "totalVoted": 2},
	  "voters": {"<hmac>": "..."}
	}

Version increases by one on every applied mutation.

# Results Types

ResultsSnapshot is what result viewers fetch. It is always derived from
one TallySnapshot, so every PositionResult's TotalVotes equals the sum of
its own candidates' votes.
*/
package models
