// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package directory

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/danielhkuo/campus-tally/db"
	"github.com/danielhkuo/campus-tally/models"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	conn, err := db.Open("sqlite", "file:"+filepath.Join(t.TempDir(), "directory.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	if err := db.CreateSchema(conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func councilRequest() models.CreateElectionRequest {
	return models.CreateElectionRequest{
		Title:       "Student Council 2025",
		Description: "Annual council election",
		Timeline:    models.Timeline{StartDate: "2025-03-01T09:00", EndDate: "2025-03-01T17:00"},
		Positions: []models.PositionInput{
			{
				Title:         "President",
				MaxSelections: 1,
				Candidates: []models.CandidateInput{
					{Name: "Asha", RollNumber: "21CS001"},
					{Name: "Ravi", RollNumber: "21CS002"},
				},
			},
			{
				Title:         "Class Representatives",
				MaxSelections: 2,
				Candidates: []models.CandidateInput{
					{Name: "Meera"}, {Name: "John"}, {Name: "Fatima"},
				},
			},
		},
	}
}

func TestCreateAndGet(t *testing.T) {
	dir := NewSQLDirectory(setupTestDB(t))
	ctx := context.Background()

	created, err := dir.Create(ctx, councilRequest())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if created.Status != models.StatusActive {
		t.Errorf("expected active status, got %s", created.Status)
	}
	if created.CreatedAt.IsZero() {
		t.Error("expected created_at to be set")
	}
	if len(created.Positions) != 2 {
		t.Fatalf("expected 2 positions, got %d", len(created.Positions))
	}

	president := created.Positions[0]
	if president.Title != "President" || president.MaxSelections != 1 {
		t.Errorf("unexpected first position %+v", president)
	}
	if len(president.Candidates) != 2 || president.Candidates[0].Name != "Asha" || president.Candidates[1].Name != "Ravi" {
		t.Errorf("candidates not in insertion order: %+v", president.Candidates)
	}
	if president.Candidates[0].RollNumber != "21CS001" {
		t.Errorf("expected roll number, got %q", president.Candidates[0].RollNumber)
	}

	reps := created.Positions[1]
	if reps.MaxSelections != 2 || len(reps.Candidates) != 3 || reps.Candidates[2].Name != "Fatima" {
		t.Errorf("unexpected second position %+v", reps)
	}

	got, err := dir.Election(ctx, created.ID)
	if err != nil {
		t.Fatalf("Election failed: %v", err)
	}
	if got.Title != "Student Council 2025" || got.Timeline.EndDate != "2025-03-01T17:00" {
		t.Errorf("unexpected election %+v", got)
	}
}

func TestCreate_Validation(t *testing.T) {
	dir := NewSQLDirectory(setupTestDB(t))

	tests := []struct {
		name   string
		mutate func(*models.CreateElectionRequest)
	}{
		{"missing title", func(r *models.CreateElectionRequest) { r.Title = " " }},
		{"zero max selections", func(r *models.CreateElectionRequest) { r.Positions[0].MaxSelections = 0 }},
		{"missing position title", func(r *models.CreateElectionRequest) { r.Positions[1].Title = "" }},
		{"missing candidate name", func(r *models.CreateElectionRequest) { r.Positions[0].Candidates[1].Name = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := councilRequest()
			tt.mutate(&req)
			if _, err := dir.Create(context.Background(), req); !errors.Is(err, ErrInvalid) {
				t.Errorf("expected ErrInvalid, got %v", err)
			}
		})
	}

	list, err := dir.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 0 {
		t.Errorf("invalid requests must not create elections, found %d", len(list))
	}
}

func TestElection_NotFound(t *testing.T) {
	dir := NewSQLDirectory(setupTestDB(t))
	if _, err := dir.Election(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestList(t *testing.T) {
	dir := NewSQLDirectory(setupTestDB(t))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := dir.Create(ctx, councilRequest()); err != nil {
			t.Fatal(err)
		}
	}

	list, err := dir.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("expected 3 elections, got %d", len(list))
	}
	for _, e := range list {
		if len(e.Positions) != 2 {
			t.Errorf("election %s missing positions", e.ID)
		}
	}
}

func TestUpdate(t *testing.T) {
	dir := NewSQLDirectory(setupTestDB(t))
	ctx := context.Background()

	created, err := dir.Create(ctx, councilRequest())
	if err != nil {
		t.Fatal(err)
	}

	title := "Student Council 2025 (re-run)"
	closed := models.StatusClosed
	updated, err := dir.Update(ctx, created.ID, models.UpdateElectionRequest{Title: &title, Status: &closed})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Title != title || updated.Status != closed {
		t.Errorf("unexpected update result %+v", updated)
	}
	if updated.Description != "Annual council election" {
		t.Error("unset fields should be left unchanged")
	}

	bogus := "paused"
	if _, err := dir.Update(ctx, created.ID, models.UpdateElectionRequest{Status: &bogus}); !errors.Is(err, ErrInvalid) {
		t.Errorf("expected ErrInvalid for unknown status, got %v", err)
	}

	if _, err := dir.Update(ctx, "nope", models.UpdateElectionRequest{Title: &title}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	conn := setupTestDB(t)
	dir := NewSQLDirectory(conn)
	ctx := context.Background()

	created, err := dir.Create(ctx, councilRequest())
	if err != nil {
		t.Fatal(err)
	}

	if err := dir.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := dir.Election(ctx, created.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}

	var candidates int
	if err := conn.QueryRow(`SELECT COUNT(*) FROM candidate`).Scan(&candidates); err != nil {
		t.Fatal(err)
	}
	if candidates != 0 {
		t.Errorf("expected candidates removed, found %d", candidates)
	}

	if err := dir.Delete(ctx, created.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestAddAndRemoveCandidate(t *testing.T) {
	dir := NewSQLDirectory(setupTestDB(t))
	ctx := context.Background()

	created, err := dir.Create(ctx, councilRequest())
	if err != nil {
		t.Fatal(err)
	}
	positionID := created.Positions[0].ID

	cand, err := dir.AddCandidate(ctx, created.ID, positionID, models.CandidateInput{Name: "Karan", RollNumber: "21CS003"})
	if err != nil {
		t.Fatalf("AddCandidate failed: %v", err)
	}

	got, _ := dir.Election(ctx, created.ID)
	cands := got.Positions[0].Candidates
	if len(cands) != 3 || cands[2].ID != cand.ID {
		t.Fatalf("new candidate should be appended last, got %+v", cands)
	}

	if _, err := dir.AddCandidate(ctx, created.ID, positionID, models.CandidateInput{Name: ""}); !errors.Is(err, ErrInvalid) {
		t.Errorf("expected ErrInvalid, got %v", err)
	}
	if _, err := dir.AddCandidate(ctx, "nope", positionID, models.CandidateInput{Name: "X"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := dir.AddCandidate(ctx, created.ID, "nope", models.CandidateInput{Name: "X"}); !errors.Is(err, ErrPositionNotFound) {
		t.Errorf("expected ErrPositionNotFound, got %v", err)
	}

	// Position from a different election is rejected
	other, _ := dir.Create(ctx, councilRequest())
	if _, err := dir.AddCandidate(ctx, created.ID, other.Positions[0].ID, models.CandidateInput{Name: "X"}); !errors.Is(err, ErrPositionNotFound) {
		t.Errorf("expected ErrPositionNotFound for foreign position, got %v", err)
	}

	if err := dir.RemoveCandidate(ctx, created.ID, positionID, cand.ID); err != nil {
		t.Fatalf("RemoveCandidate failed: %v", err)
	}
	if err := dir.RemoveCandidate(ctx, created.ID, positionID, cand.ID); !errors.Is(err, ErrCandidateNotFound) {
		t.Errorf("expected ErrCandidateNotFound, got %v", err)
	}

	got, _ = dir.Election(ctx, created.ID)
	if len(got.Positions[0].Candidates) != 2 {
		t.Errorf("expected 2 candidates after removal, got %d", len(got.Positions[0].Candidates))
	}
}

func TestMemory(t *testing.T) {
	e := models.Election{
		ID: "E1",
		Positions: []models.Position{
			{ID: "P1", MaxSelections: 1, Candidates: []models.Candidate{{ID: "C1"}, {ID: "C2"}}},
		},
	}
	dir := NewMemory(e)
	ctx := context.Background()

	got, err := dir.Election(ctx, "E1")
	if err != nil {
		t.Fatal(err)
	}

	// Returned copies are independent
	got.Positions[0].Candidates[0].ID = "mutated"
	again, _ := dir.Election(ctx, "E1")
	if again.Positions[0].Candidates[0].ID != "C1" {
		t.Error("Memory directory returned shared state")
	}

	dir.Remove("E1")
	if _, err := dir.Election(ctx, "E1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
