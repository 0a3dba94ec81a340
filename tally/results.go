// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package tally

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/danielhkuo/campus-tally/models"
)

// GetResults returns every position's candidates ranked by votes, with
// turnout statistics. All figures come from one committed tally.
func (s *Store) GetResults(ctx context.Context, electionID string) (models.ResultsSnapshot, error) {
	election, err := s.election(ctx, electionID)
	if err != nil {
		return models.ResultsSnapshot{}, err
	}

	t, err := s.snapshot(ctx, electionID)
	if err != nil {
		return models.ResultsSnapshot{}, err
	}

	return BuildResults(election, t), nil
}

// BuildResults derives a results view from a directory entry and a tally.
// Candidates removed from the directory are not reported.
func BuildResults(e *models.Election, t *models.TallySnapshot) models.ResultsSnapshot {
	res := models.ResultsSnapshot{
		ElectionID: e.ID,
		Version:    t.Version,
		Positions:  make([]models.PositionResult, 0, len(e.Positions)),
		Statistics: models.Statistics{
			TotalVoters:      t.Turnout.TotalEligibleVoters,
			TotalVoted:       t.Turnout.TotalVoted,
			VotingPercentage: percentage(t.Turnout.TotalVoted, t.Turnout.TotalEligibleVoters),
			LastUpdated:      copyTime(t.Turnout.LastUpdated),
		},
	}

	for _, p := range e.Positions {
		pr := models.PositionResult{
			PositionID:    p.ID,
			Title:         p.Title,
			MaxSelections: p.MaxSelections,
			Candidates:    make([]models.CandidateResult, 0, len(p.Candidates)),
		}

		counts := t.Votes[p.ID]
		for _, c := range p.Candidates {
			ct := counts[c.ID]
			cr := models.CandidateResult{
				CandidateID: c.ID,
				Name:        c.Name,
				RollNumber:  c.RollNumber,
				Votes:       ct.Votes,
			}
			if !ct.LastUpdated.IsZero() {
				lu := ct.LastUpdated
				cr.LastUpdated = &lu
			}
			pr.TotalVotes += ct.Votes
			pr.Candidates = append(pr.Candidates, cr)
		}

		rankCandidates(&pr)
		res.Positions = append(res.Positions, pr)
	}

	return res
}

// rankCandidates orders candidates by votes descending. Ties keep
// directory insertion order (stable sort); ranks are 1..n with no
// shared places.
func rankCandidates(pr *models.PositionResult) {
	sort.SliceStable(pr.Candidates, func(i, j int) bool {
		return pr.Candidates[i].Votes > pr.Candidates[j].Votes
	})

	for i := range pr.Candidates {
		pr.Candidates[i].Rank = i + 1
	}

	if pr.TotalVotes == 0 || len(pr.Candidates) == 0 {
		return
	}

	winner := pr.Candidates[0]
	pr.WinnerID = winner.CandidateID
	if len(pr.Candidates) < 2 {
		return
	}

	runnerUp := pr.Candidates[1]
	pr.RunnerUpID = runnerUp.CandidateID
	pr.Margin = round1(float64(winner.Votes-runnerUp.Votes) / float64(winner.Votes) * 100)
}

// percentage is part/whole*100 rounded to one decimal; 0 when whole is 0
func percentage(part, whole int) float64 {
	if whole <= 0 {
		return 0
	}
	return round1(float64(part) / float64(whole) * 100)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
