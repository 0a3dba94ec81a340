package models

import "time"

// Election status constants
const (
	StatusActive = "active"
	StatusClosed = "closed"
)

// Request types

type PositionInput struct {
	Title         string           `json:"title"`
	MaxSelections int              `json:"maxSelections"`
	Candidates    []CandidateInput `json:"candidates"`
}

type CandidateInput struct {
	Name       string `json:"name"`
	RollNumber string `json:"rollNumber"`
}

type CreateElectionRequest struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Timeline    Timeline        `json:"timeline"`
	Positions   []PositionInput `json:"positions"`
}

// Empty fields are left unchanged
type UpdateElectionRequest struct {
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	Timeline    *Timeline `json:"timeline,omitempty"`
	Status      *string   `json:"status,omitempty"`
}

// position_id -> candidate ids
type SubmitVoteRequest struct {
	VoterID    string              `json:"voterId"`
	Selections map[string][]string `json:"votes"`
}

type SetEligibleVotersRequest struct {
	Count int `json:"count"`
}

// Response types

type SubmitVoteResponse struct {
	ReceiptID  string    `json:"receiptId"`
	Message    string    `json:"message"`
	RecordedAt time.Time `json:"recordedAt"`
	TotalVoted int       `json:"totalVoted"`
}

type VoterStatusResponse struct {
	ElectionID string `json:"electionId"`
	HasVoted   bool   `json:"hasVoted"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// Directory types

type Timeline struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

type Election struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Timeline    Timeline   `json:"timeline"`
	Status      string     `json:"status"`
	Positions   []Position `json:"positions"`
	CreatedAt   time.Time  `json:"createdAt"`
}

type Position struct {
	ID            string      `json:"id"`
	Title         string      `json:"title"`
	MaxSelections int         `json:"maxSelections"`
	Candidates    []Candidate `json:"candidates"`
}

type Candidate struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	RollNumber string `json:"rollNumber"`
}

// Position returns the position with the given id
func (e *Election) Position(positionID string) (*Position, bool) {
	for i := range e.Positions {
		if e.Positions[i].ID == positionID {
			return &e.Positions[i], true
		}
	}
	return nil, false
}

// HasCandidate reports whether candidateID belongs to p
func (p *Position) HasCandidate(candidateID string) bool {
	for _, c := range p.Candidates {
		if c.ID == candidateID {
			return true
		}
	}
	return false
}

// Tally types (persisted)

type CandidateTally struct {
	Votes       int       `json:"votes"`
	LastUpdated time.Time `json:"lastUpdated"`
}

type Turnout struct {
	TotalEligibleVoters int        `json:"totalEligibleVoters"`
	TotalVoted          int        `json:"totalVoted"`
	LastUpdated         *time.Time `json:"lastUpdated,omitempty"`
}

// TallySnapshot is the full persisted state of one election's counters.
// Votes is keyed position_id -> candidate_id. Voters holds hashed voter ids.
type TallySnapshot struct {
	ElectionID string                               `json:"electionId"`
	Version    int64                                `json:"version"`
	Votes      map[string]map[string]CandidateTally `json:"votes"`
	Turnout    Turnout                              `json:"voterStatus"`
	Voters     map[string]time.Time                 `json:"voters"`
}

// Results types

type CandidateResult struct {
	CandidateID string     `json:"candidateId"`
	Name        string     `json:"name"`
	RollNumber  string     `json:"rollNumber"`
	Votes       int        `json:"votes"`
	LastUpdated *time.Time `json:"lastUpdated"`
	Rank        int        `json:"rank"` // 1-indexed ranking
}

type PositionResult struct {
	PositionID    string            `json:"positionId"`
	Title         string            `json:"title"`
	MaxSelections int               `json:"maxSelections"`
	Candidates    []CandidateResult `json:"candidates"`
	TotalVotes    int               `json:"totalVotes"`
	WinnerID      string            `json:"winnerId,omitempty"`
	RunnerUpID    string            `json:"runnerUpId,omitempty"`
	Margin        float64           `json:"margin"` // percent of winner's votes
}

type Statistics struct {
	TotalVoters      int        `json:"totalVoters"`
	TotalVoted       int        `json:"totalVoted"`
	VotingPercentage float64    `json:"votingPercentage"`
	LastUpdated      *time.Time `json:"lastUpdated"`
}

type ResultsSnapshot struct {
	ElectionID string           `json:"electionId"`
	Version    int64            `json:"version"`
	Positions  []PositionResult `json:"positions"`
	Statistics Statistics       `json:"statistics"`
}

// Change events

type ChangeEvent struct {
	ElectionID string    `json:"election_id"`
	At         time.Time `json:"at"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
