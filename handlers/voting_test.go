// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/danielhkuo/campus-tally/models"
	"github.com/danielhkuo/campus-tally/storage"
	"github.com/danielhkuo/campus-tally/testutil"
)

func TestSubmitVote(t *testing.T) {
	env := newTestEnv(t, nil)
	e := testutil.CreateTestElection(t, env.dir)

	w := env.submit(t, e.ID, ballot(e, "21CS1042", map[int][]int{0: {0}, 1: {0, 2}}))
	testutil.AssertStatus(t, w, http.StatusCreated)

	var resp models.SubmitVoteResponse
	testutil.AssertJSON(t, w, &resp)

	if resp.ReceiptID == "" {
		t.Error("Expected receiptId to be set")
	}
	if resp.TotalVoted != 1 {
		t.Errorf("Expected totalVoted 1, got %d", resp.TotalVoted)
	}
	if resp.RecordedAt.IsZero() {
		t.Error("Expected recordedAt to be set")
	}
}

// Mirrors the canonical two-candidate flow end to end over HTTP
func TestSubmitVote_Scenario(t *testing.T) {
	env := newTestEnv(t, nil)
	e := testutil.CreateTestElection(t, env.dir)
	p1 := e.Positions[0]
	c1, c2 := p1.Candidates[0].ID, p1.Candidates[1].ID

	steps := []struct {
		name     string
		req      models.SubmitVoteRequest
		expected int
	}{
		{"V1 votes C1", ballot(e, "V1", map[int][]int{0: {0}}), http.StatusCreated},
		{"V1 votes again", ballot(e, "V1", map[int][]int{0: {1}}), http.StatusConflict},
		{"V2 over-selects", ballot(e, "V2", map[int][]int{0: {0, 1}}), http.StatusBadRequest},
		{"V3 votes C2", ballot(e, "V3", map[int][]int{0: {1}}), http.StatusCreated},
	}

	for _, step := range steps {
		w := env.submit(t, e.ID, step.req)
		if w.Code != step.expected {
			t.Fatalf("%s: expected status %d, got %d. Body: %s", step.name, step.expected, w.Code, w.Body.String())
		}
	}

	res := env.getResults(t, e.ID)
	if got := candidateVotes(res, p1.ID, c1); got != 1 {
		t.Errorf("Expected C1=1, got %d", got)
	}
	if got := candidateVotes(res, p1.ID, c2); got != 1 {
		t.Errorf("Expected C2=1, got %d", got)
	}
	if res.Statistics.TotalVoted != 2 {
		t.Errorf("Expected totalVoted 2, got %d", res.Statistics.TotalVoted)
	}
}

func TestSubmitVote_Validation(t *testing.T) {
	env := newTestEnv(t, nil)
	e := testutil.CreateTestElection(t, env.dir)

	testCases := []struct {
		name     string
		body     string
		expected int
	}{
		{"invalid JSON", `{not json`, http.StatusBadRequest},
		{"missing voter", fmt.Sprintf(`{"votes":{%q:[%q]}}`, e.Positions[0].ID, e.Positions[0].Candidates[0].ID), http.StatusBadRequest},
		{"empty ballot", `{"voterId":"V1","votes":{}}`, http.StatusBadRequest},
		{"unknown position", `{"voterId":"V1","votes":{"pos_nope":["cand_nope"]}}`, http.StatusBadRequest},
		{"too few for multi-seat", fmt.Sprintf(`{"voterId":"V1","votes":{%q:[%q]}}`, e.Positions[1].ID, e.Positions[1].Candidates[0].ID), http.StatusBadRequest},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest("POST", "/elections/"+e.ID+"/votes", strings.NewReader(tc.body))
			r.SetPathValue("id", e.ID)
			w := httptest.NewRecorder()

			env.voting.SubmitVote(w, r)
			testutil.AssertStatus(t, w, tc.expected)
		})
	}

	if res := env.getResults(t, e.ID); res.Statistics.TotalVoted != 0 {
		t.Errorf("Rejected ballots changed turnout to %d", res.Statistics.TotalVoted)
	}
}

func TestSubmitVote_UnknownElection(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.submit(t, "election_missing", models.SubmitVoteRequest{
		VoterID:    "V1",
		Selections: map[string][]string{"pos_1": {"cand_1"}},
	})
	testutil.AssertStatus(t, w, http.StatusNotFound)
}

func TestSubmitVote_ClosedElection(t *testing.T) {
	env := newTestEnv(t, nil)
	e := testutil.CreateTestElection(t, env.dir)

	closed := models.StatusClosed
	if _, err := env.dir.Update(context.Background(), e.ID, models.UpdateElectionRequest{Status: &closed}); err != nil {
		t.Fatalf("Failed to close election: %v", err)
	}

	w := env.submit(t, e.ID, ballot(e, "V1", map[int][]int{0: {0}}))
	testutil.AssertStatus(t, w, http.StatusConflict)
}

func TestSubmitVote_StorageUnavailable(t *testing.T) {
	env := newTestEnv(t, unavailableStore{storage.NewMemoryStore()})
	e := testutil.CreateTestElection(t, env.dir)

	w := env.submit(t, e.ID, ballot(e, "V1", map[int][]int{0: {0}}))
	testutil.AssertStatus(t, w, http.StatusServiceUnavailable)

	var resp models.ErrorResponse
	testutil.AssertJSON(t, w, &resp)
	if !strings.Contains(resp.Message, "try again") {
		t.Errorf("Expected retry hint in message, got %q", resp.Message)
	}

	res := env.getResults(t, e.ID)
	if res.Statistics.TotalVoted != 0 {
		t.Errorf("Expected nothing recorded, got totalVoted %d", res.Statistics.TotalVoted)
	}
}

func TestSubmitVote_Concurrent(t *testing.T) {
	env := newTestEnv(t, nil)
	e := testutil.CreateTestElection(t, env.dir)

	const voters = 30
	var wg sync.WaitGroup
	var created, conflicts atomic.Int32

	// Every voter submits twice at once
	for i := 0; i < voters; i++ {
		for attempt := 0; attempt < 2; attempt++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				w := env.submit(t, e.ID, ballot(e, fmt.Sprintf("V%03d", i), map[int][]int{0: {i % 2}}))
				switch w.Code {
				case http.StatusCreated:
					created.Add(1)
				case http.StatusConflict:
					conflicts.Add(1)
				}
			}(i)
		}
	}
	wg.Wait()

	if created.Load() != voters {
		t.Errorf("Expected %d accepted ballots, got %d", voters, created.Load())
	}
	if conflicts.Load() != voters {
		t.Errorf("Expected %d conflicts, got %d", voters, conflicts.Load())
	}

	res := env.getResults(t, e.ID)
	p := res.Positions[0]
	if p.TotalVotes != voters || res.Statistics.TotalVoted != voters {
		t.Errorf("Expected %d votes and turnout, got %d and %d", voters, p.TotalVotes, res.Statistics.TotalVoted)
	}
}

func TestSetEligibleVoters(t *testing.T) {
	env := newTestEnv(t, nil)
	e := testutil.CreateTestElection(t, env.dir)

	testCases := []struct {
		name     string
		id       string
		body     any
		expected int
	}{
		{"valid count", e.ID, models.SetEligibleVotersRequest{Count: 4}, http.StatusOK},
		{"same count again", e.ID, models.SetEligibleVotersRequest{Count: 4}, http.StatusOK},
		{"negative count", e.ID, models.SetEligibleVotersRequest{Count: -3}, http.StatusBadRequest},
		{"unknown election", "election_missing", models.SetEligibleVotersRequest{Count: 4}, http.StatusNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := testutil.MakeRequest("PUT", "/elections/"+tc.id+"/eligible-voters", tc.body, nil)
			r.SetPathValue("id", tc.id)
			w := httptest.NewRecorder()

			env.voting.SetEligibleVoters(w, r)
			testutil.AssertStatus(t, w, tc.expected)
		})
	}

	env.submit(t, e.ID, ballot(e, "V1", map[int][]int{0: {0}}))

	res := env.getResults(t, e.ID)
	if res.Statistics.TotalVoters != 4 {
		t.Errorf("Expected totalVoters 4, got %d", res.Statistics.TotalVoters)
	}
	if res.Statistics.VotingPercentage != 25 {
		t.Errorf("Expected 25%% turnout, got %v", res.Statistics.VotingPercentage)
	}
}

func TestGetVoterStatus(t *testing.T) {
	env := newTestEnv(t, nil)
	e := testutil.CreateTestElection(t, env.dir)

	env.submit(t, e.ID, ballot(e, "21CS1042", map[int][]int{0: {1}}))

	testCases := []struct {
		name     string
		id       string
		voter    string
		expected int
		voted    bool
	}{
		{"voted", e.ID, "21CS1042", http.StatusOK, true},
		{"not voted", e.ID, "21CS9999", http.StatusOK, false},
		{"unknown election", "election_missing", "21CS1042", http.StatusNotFound, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := testutil.MakeRequest("GET", "/elections/"+tc.id+"/voters/"+tc.voter, nil, nil)
			r.SetPathValue("id", tc.id)
			r.SetPathValue("voterId", tc.voter)
			w := httptest.NewRecorder()

			env.voting.GetVoterStatus(w, r)
			testutil.AssertStatus(t, w, tc.expected)

			if tc.expected != http.StatusOK {
				return
			}
			var resp models.VoterStatusResponse
			testutil.AssertJSON(t, w, &resp)
			if resp.HasVoted != tc.voted {
				t.Errorf("Expected hasVoted %v, got %v", tc.voted, resp.HasVoted)
			}
		})
	}
}
