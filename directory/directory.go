// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package directory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/danielhkuo/campus-tally/models"
)

var (
	ErrNotFound          = errors.New("election not found")
	ErrPositionNotFound  = errors.New("position not found")
	ErrCandidateNotFound = errors.New("candidate not found")
	ErrInvalid           = errors.New("invalid election")
)

// Directory is the read-only view the tally store validates ballots against
type Directory interface {
	// Election returns a copy the caller may keep; ErrNotFound if unknown
	Election(ctx context.Context, electionID string) (*models.Election, error)
}

// Manager is the full election CRUD surface used by the admin API
type Manager interface {
	Directory
	List(ctx context.Context) ([]models.Election, error)
	Create(ctx context.Context, req models.CreateElectionRequest) (*models.Election, error)
	Update(ctx context.Context, electionID string, req models.UpdateElectionRequest) (*models.Election, error)
	Delete(ctx context.Context, electionID string) error
	AddCandidate(ctx context.Context, electionID, positionID string, in models.CandidateInput) (*models.Candidate, error)
	RemoveCandidate(ctx context.Context, electionID, positionID, candidateID string) error
}

// ValidateCreate checks a create request before anything is written
func ValidateCreate(req models.CreateElectionRequest) error {
	if strings.TrimSpace(req.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalid)
	}
	for i, p := range req.Positions {
		if strings.TrimSpace(p.Title) == "" {
			return fmt.Errorf("%w: position %d title is required", ErrInvalid, i+1)
		}
		if p.MaxSelections < 1 {
			return fmt.Errorf("%w: position %q maxSelections must be at least 1", ErrInvalid, p.Title)
		}
		for j, c := range p.Candidates {
			if strings.TrimSpace(c.Name) == "" {
				return fmt.Errorf("%w: position %q candidate %d name is required", ErrInvalid, p.Title, j+1)
			}
		}
	}
	return nil
}

// ValidateStatus accepts the known election statuses
func ValidateStatus(status string) error {
	if status != models.StatusActive && status != models.StatusClosed {
		return fmt.Errorf("%w: unknown status %q", ErrInvalid, status)
	}
	return nil
}

// Clone deep-copies an election
func Clone(e *models.Election) *models.Election {
	out := *e
	out.Positions = make([]models.Position, len(e.Positions))
	for i, p := range e.Positions {
		out.Positions[i] = p
		out.Positions[i].Candidates = append([]models.Candidate(nil), p.Candidates...)
	}
	return &out
}

// Memory is a fixed in-memory directory
type Memory struct {
	mu        sync.RWMutex
	elections map[string]*models.Election
}

func NewMemory(elections ...models.Election) *Memory {
	m := &Memory{elections: make(map[string]*models.Election)}
	for i := range elections {
		m.Put(elections[i])
	}
	return m
}

// Put adds or replaces an election
func (m *Memory) Put(e models.Election) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.elections[e.ID] = Clone(&e)
}

// Remove deletes an election if present
func (m *Memory) Remove(electionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.elections, electionID)
}

func (m *Memory) Election(ctx context.Context, electionID string) (*models.Election, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.elections[electionID]
	if !ok {
		return nil, ErrNotFound
	}
	return Clone(e), nil
}
