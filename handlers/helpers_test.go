// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danielhkuo/campus-tally/directory"
	"github.com/danielhkuo/campus-tally/metrics"
	"github.com/danielhkuo/campus-tally/models"
	"github.com/danielhkuo/campus-tally/notify"
	"github.com/danielhkuo/campus-tally/storage"
	"github.com/danielhkuo/campus-tally/tally"
	"github.com/danielhkuo/campus-tally/testutil"
)

type testEnv struct {
	dir       *directory.SQLDirectory
	snapshots storage.SnapshotStore
	hub       *notify.Hub
	metrics   *metrics.TallyMetrics
	store     *tally.Store

	elections *ElectionHandler
	voting    *VotingHandler
	results   *ResultsHandler
	updates   *UpdatesHandler
}

func newTestEnv(t *testing.T, snapshots storage.SnapshotStore) *testEnv {
	t.Helper()

	if snapshots == nil {
		snapshots = storage.NewMemoryStore()
	}
	cfg := testutil.GetTestConfig()
	dir := directory.NewSQLDirectory(testutil.SetupTestDB(t))
	hub := notify.NewHub(cfg.SubscriberBuffer)
	m := metrics.NewTallyMetrics("test")
	store := tally.New(dir, snapshots, hub, cfg.VoterIDSalt,
		tally.WithMetrics(m),
		tally.WithLockTimeout(cfg.LockTimeout),
		tally.WithStorageTimeout(cfg.StorageTimeout),
	)

	return &testEnv{
		dir:       dir,
		snapshots: snapshots,
		hub:       hub,
		metrics:   m,
		store:     store,
		elections: NewElectionHandler(dir, store),
		voting:    NewVotingHandler(dir, store),
		results:   NewResultsHandler(store),
		updates:   NewUpdatesHandler(dir, hub, m, 0),
	}
}

// ballot picks candidates by index: position index -> candidate indexes
func ballot(e *models.Election, voterID string, picks map[int][]int) models.SubmitVoteRequest {
	req := models.SubmitVoteRequest{VoterID: voterID, Selections: map[string][]string{}}
	for pi, cis := range picks {
		p := e.Positions[pi]
		for _, ci := range cis {
			req.Selections[p.ID] = append(req.Selections[p.ID], p.Candidates[ci].ID)
		}
	}
	return req
}

func (env *testEnv) submit(t *testing.T, electionID string, req models.SubmitVoteRequest) *httptest.ResponseRecorder {
	t.Helper()

	r := testutil.MakeRequest("POST", "/elections/"+electionID+"/votes", req, nil)
	r.SetPathValue("id", electionID)
	w := httptest.NewRecorder()
	env.voting.SubmitVote(w, r)
	return w
}

func (env *testEnv) getResults(t *testing.T, electionID string) models.ResultsSnapshot {
	t.Helper()

	r := testutil.MakeRequest("GET", "/elections/"+electionID+"/results", nil, nil)
	r.SetPathValue("id", electionID)
	w := httptest.NewRecorder()
	env.results.GetResults(w, r)
	testutil.AssertStatus(t, w, http.StatusOK)

	var res models.ResultsSnapshot
	testutil.AssertJSON(t, w, &res)
	return res
}

func candidateVotes(res models.ResultsSnapshot, positionID, candidateID string) int {
	for _, p := range res.Positions {
		if p.PositionID != positionID {
			continue
		}
		for _, c := range p.Candidates {
			if c.CandidateID == candidateID {
				return c.Votes
			}
		}
	}
	return -1
}

// unavailableStore fails every write
type unavailableStore struct {
	*storage.MemoryStore
}

func (unavailableStore) Save(ctx context.Context, electionID string, snap *models.TallySnapshot) error {
	return errors.New("connection refused")
}
