// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package directory

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/danielhkuo/campus-tally/auth"
	"github.com/danielhkuo/campus-tally/models"
)

// SQLDirectory stores elections in the election, election_position and
// candidate tables (see db.CreateSchema)
type SQLDirectory struct {
	db *sql.DB
}

func NewSQLDirectory(db *sql.DB) *SQLDirectory {
	return &SQLDirectory{db: db}
}

// Election loads one election with its positions and candidates in
// insertion order
func (d *SQLDirectory) Election(ctx context.Context, electionID string) (*models.Election, error) {
	var e models.Election
	var createdAt string
	err := d.db.QueryRowContext(ctx, `
		SELECT id, title, description, start_date, end_date, status, created_at
		FROM election
		WHERE id = $1
	`, electionID).Scan(
		&e.ID, &e.Title, &e.Description, &e.Timeline.StartDate,
		&e.Timeline.EndDate, &e.Status, &createdAt,
	)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query election: %w", err)
	}
	e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)

	// Positions; rows are drained before the next query
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, title, max_selections
		FROM election_position
		WHERE election_id = $1
		ORDER BY ordinal
	`, electionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query positions: %w", err)
	}

	index := make(map[string]int)
	e.Positions = []models.Position{}
	for rows.Next() {
		var p models.Position
		if err := rows.Scan(&p.ID, &p.Title, &p.MaxSelections); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan position: %w", err)
		}
		p.Candidates = []models.Candidate{}
		index[p.ID] = len(e.Positions)
		e.Positions = append(e.Positions, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read positions: %w", err)
	}

	// Candidates
	rows, err = d.db.QueryContext(ctx, `
		SELECT c.id, c.position_id, c.name, c.roll_number
		FROM candidate c
		JOIN election_position p ON p.id = c.position_id
		WHERE p.election_id = $1
		ORDER BY p.ordinal, c.ordinal
	`, electionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query candidates: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var c models.Candidate
		var positionID string
		if err := rows.Scan(&c.ID, &positionID, &c.Name, &c.RollNumber); err != nil {
			return nil, fmt.Errorf("failed to scan candidate: %w", err)
		}
		if i, ok := index[positionID]; ok {
			e.Positions[i].Candidates = append(e.Positions[i].Candidates, c)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read candidates: %w", err)
	}

	return &e, nil
}

// List returns every election, newest first
func (d *SQLDirectory) List(ctx context.Context) ([]models.Election, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT id FROM election ORDER BY created_at DESC, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query elections: %w", err)
	}

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan election: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read elections: %w", err)
	}

	elections := []models.Election{}
	for _, id := range ids {
		e, err := d.Election(ctx, id)
		if err == ErrNotFound {
			continue // deleted between the two queries
		}
		if err != nil {
			return nil, err
		}
		elections = append(elections, *e)
	}

	return elections, nil
}

// Create inserts an election with its positions and candidates in one
// transaction
func (d *SQLDirectory) Create(ctx context.Context, req models.CreateElectionRequest) (*models.Election, error) {
	if err := ValidateCreate(req); err != nil {
		return nil, err
	}

	electionID, err := auth.GeneratePrefixedID("election", 8)
	if err != nil {
		return nil, err
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO election (id, title, description, start_date, end_date, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, electionID, strings.TrimSpace(req.Title), req.Description, req.Timeline.StartDate,
		req.Timeline.EndDate, models.StatusActive, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return nil, fmt.Errorf("failed to insert election: %w", err)
	}

	for i, p := range req.Positions {
		positionID, err := auth.GeneratePrefixedID("pos", 8)
		if err != nil {
			return nil, err
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO election_position (id, election_id, title, max_selections, ordinal)
			VALUES ($1, $2, $3, $4, $5)
		`, positionID, electionID, strings.TrimSpace(p.Title), p.MaxSelections, i)
		if err != nil {
			return nil, fmt.Errorf("failed to insert position: %w", err)
		}

		for j, c := range p.Candidates {
			candidateID, err := auth.GeneratePrefixedID("cand", 8)
			if err != nil {
				return nil, err
			}

			_, err = tx.ExecContext(ctx, `
				INSERT INTO candidate (id, position_id, name, roll_number, ordinal)
				VALUES ($1, $2, $3, $4, $5)
			`, candidateID, positionID, strings.TrimSpace(c.Name), c.RollNumber, j)
			if err != nil {
				return nil, fmt.Errorf("failed to insert candidate: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit election: %w", err)
	}

	return d.Election(ctx, electionID)
}

// Update applies the non-nil fields of req
func (d *SQLDirectory) Update(ctx context.Context, electionID string, req models.UpdateElectionRequest) (*models.Election, error) {
	current, err := d.Election(ctx, electionID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		if strings.TrimSpace(*req.Title) == "" {
			return nil, fmt.Errorf("%w: title is required", ErrInvalid)
		}
		current.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		current.Description = *req.Description
	}
	if req.Timeline != nil {
		current.Timeline = *req.Timeline
	}
	if req.Status != nil {
		if err := ValidateStatus(*req.Status); err != nil {
			return nil, err
		}
		current.Status = *req.Status
	}

	res, err := d.db.ExecContext(ctx, `
		UPDATE election
		SET title = $1, description = $2, start_date = $3, end_date = $4, status = $5
		WHERE id = $6
	`, current.Title, current.Description, current.Timeline.StartDate,
		current.Timeline.EndDate, current.Status, electionID)
	if err != nil {
		return nil, fmt.Errorf("failed to update election: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrNotFound
	}

	return current, nil
}

// Delete removes an election; positions and candidates cascade
func (d *SQLDirectory) Delete(ctx context.Context, electionID string) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Explicit child deletes so SQLite without foreign keys behaves the same
	_, err = tx.ExecContext(ctx, `
		DELETE FROM candidate WHERE position_id IN (
			SELECT id FROM election_position WHERE election_id = $1
		)
	`, electionID)
	if err != nil {
		return fmt.Errorf("failed to delete candidates: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM election_position WHERE election_id = $1`, electionID); err != nil {
		return fmt.Errorf("failed to delete positions: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM election WHERE id = $1`, electionID)
	if err != nil {
		return fmt.Errorf("failed to delete election: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit delete: %w", err)
	}
	return nil
}

// AddCandidate appends a candidate to the end of a position
func (d *SQLDirectory) AddCandidate(ctx context.Context, electionID, positionID string, in models.CandidateInput) (*models.Candidate, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: candidate name is required", ErrInvalid)
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := checkPosition(ctx, tx, electionID, positionID); err != nil {
		return nil, err
	}

	var next int
	err = tx.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(ordinal), -1) + 1 FROM candidate WHERE position_id = $1
	`, positionID).Scan(&next)
	if err != nil {
		return nil, fmt.Errorf("failed to query candidate order: %w", err)
	}

	candidateID, err := auth.GeneratePrefixedID("cand", 8)
	if err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO candidate (id, position_id, name, roll_number, ordinal)
		VALUES ($1, $2, $3, $4, $5)
	`, candidateID, positionID, name, in.RollNumber, next)
	if err != nil {
		return nil, fmt.Errorf("failed to insert candidate: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit candidate: %w", err)
	}

	return &models.Candidate{ID: candidateID, Name: name, RollNumber: in.RollNumber}, nil
}

// RemoveCandidate deletes a candidate from a position. Votes already
// counted for it stay in the tally but are no longer reported.
func (d *SQLDirectory) RemoveCandidate(ctx context.Context, electionID, positionID, candidateID string) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := checkPosition(ctx, tx, electionID, positionID); err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx, `
		DELETE FROM candidate WHERE id = $1 AND position_id = $2
	`, candidateID, positionID)
	if err != nil {
		return fmt.Errorf("failed to delete candidate: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrCandidateNotFound
	}

	return tx.Commit()
}

func checkPosition(ctx context.Context, tx *sql.Tx, electionID, positionID string) error {
	var electionExists bool
	err := tx.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM election WHERE id = $1)
	`, electionID).Scan(&electionExists)
	if err != nil {
		return fmt.Errorf("failed to query election: %w", err)
	}
	if !electionExists {
		return ErrNotFound
	}

	var positionExists bool
	err = tx.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM election_position WHERE id = $1 AND election_id = $2)
	`, positionID, electionID).Scan(&positionExists)
	if err != nil {
		return fmt.Errorf("failed to query position: %w", err)
	}
	if !positionExists {
		return ErrPositionNotFound
	}
	return nil
}
