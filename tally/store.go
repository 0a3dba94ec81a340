// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package tally

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/danielhkuo/campus-tally/auth"
	"github.com/danielhkuo/campus-tally/directory"
	"github.com/danielhkuo/campus-tally/metrics"
	"github.com/danielhkuo/campus-tally/models"
	"github.com/danielhkuo/campus-tally/storage"
)

const (
	defaultLockTimeout    = 5 * time.Second
	defaultStorageTimeout = 5 * time.Second
)

// Publisher receives a call after every committed change to an election
type Publisher interface {
	Publish(electionID string)
}

// RecordResult describes a counted ballot
type RecordResult struct {
	ElectionID string
	ReceiptID  string
	RecordedAt time.Time
	Selected   int // candidates incremented
	TotalVoted int
}

// Store owns every election's vote counters, turnout and voted set.
// Writes to one election are serialized; different elections run in
// parallel. Reads never block on writes.
type Store struct {
	dir       directory.Directory
	snapshots storage.SnapshotStore
	publisher Publisher
	salt      string

	lockTimeout    time.Duration
	storageTimeout time.Duration
	metrics        *metrics.TallyMetrics
	now            func() time.Time

	mu    sync.Mutex
	slots map[string]*slot
}

// slot is one election's write lock and its current committed tally.
// The tally behind the pointer is never mutated once published.
type slot struct {
	sem   chan struct{}
	tally atomic.Pointer[models.TallySnapshot]
}

// lease is one acquisition of a slot's lock. When a storage call overruns
// its deadline the lease is handed off to that call, which releases the
// lock once it returns.
type lease struct {
	sl        *slot
	handedOff bool
}

type Option func(*Store)

// WithLockTimeout bounds how long a writer waits for an election's lock
func WithLockTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.lockTimeout = d
		}
	}
}

// WithStorageTimeout bounds a single snapshot load or save
func WithStorageTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.storageTimeout = d
		}
	}
}

func WithMetrics(m *metrics.TallyMetrics) Option {
	return func(s *Store) { s.metrics = m }
}

// WithClock overrides time.Now, for tests
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New creates a Store. salt keys the voter id hashes kept in voted sets.
func New(dir directory.Directory, snapshots storage.SnapshotStore, publisher Publisher, salt string, opts ...Option) *Store {
	s := &Store{
		dir:            dir,
		snapshots:      snapshots,
		publisher:      publisher,
		salt:           salt,
		lockTimeout:    defaultLockTimeout,
		storageTimeout: defaultStorageTimeout,
		now:            time.Now,
		slots:          make(map[string]*slot),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RecordVote counts one voter's ballot. selections maps position id to
// the chosen candidate ids. Either every increment, the turnout bump and
// the voted marker are committed together, or nothing is.
func (s *Store) RecordVote(ctx context.Context, electionID, voterID string, selections map[string][]string) (RecordResult, error) {
	start := time.Now()
	res, err := s.recordVote(ctx, electionID, voterID, selections)
	s.observe(electionID, time.Since(start), err)
	return res, err
}

func (s *Store) recordVote(ctx context.Context, electionID, voterID string, selections map[string][]string) (RecordResult, error) {
	if err := auth.ValidateVoterID(voterID); err != nil {
		return RecordResult{}, fmt.Errorf("%w: %v", ErrInvalidVoter, err)
	}

	election, err := s.election(ctx, electionID)
	if err != nil {
		return RecordResult{}, err
	}

	sl := s.slot(electionID)
	l, err := s.lock(ctx, sl)
	if err != nil {
		return RecordResult{}, err
	}
	defer l.release()

	if err := validateSelections(election, selections); err != nil {
		return RecordResult{}, err
	}

	cur, err := s.load(ctx, electionID, l)
	if err != nil {
		return RecordResult{}, err
	}

	voterKey := auth.HashVoterID(electionID, voterID, s.salt)
	if _, voted := cur.Voters[voterKey]; voted {
		return RecordResult{}, ErrAlreadyVoted
	}

	now := s.now().UTC()
	next := cloneTally(cur)
	selected := 0
	for positionID, candidateIDs := range selections {
		counts := next.Votes[positionID]
		if counts == nil {
			counts = make(map[string]models.CandidateTally)
			next.Votes[positionID] = counts
		}
		for _, candidateID := range candidateIDs {
			ct := counts[candidateID]
			ct.Votes++
			ct.LastUpdated = now
			counts[candidateID] = ct
			selected++
		}
	}
	next.Turnout.TotalVoted++
	next.Turnout.LastUpdated = &now
	next.Voters[voterKey] = now
	next.Version++

	if err := s.commit(ctx, electionID, l, next); err != nil {
		return RecordResult{}, err
	}

	return RecordResult{
		ElectionID: electionID,
		ReceiptID:  uuid.NewString(),
		RecordedAt: now,
		Selected:   selected,
		TotalVoted: next.Turnout.TotalVoted,
	}, nil
}

// SetEligibleVoterCount sets the turnout denominator. Setting the same
// value again is a no-op.
func (s *Store) SetEligibleVoterCount(ctx context.Context, electionID string, count int) error {
	if count < 0 {
		return ErrInvalidCount
	}

	if _, err := s.election(ctx, electionID); err != nil {
		return err
	}

	sl := s.slot(electionID)
	l, err := s.lock(ctx, sl)
	if err != nil {
		return err
	}
	defer l.release()

	cur, err := s.load(ctx, electionID, l)
	if err != nil {
		return err
	}
	if cur.Turnout.TotalEligibleVoters == count {
		return nil
	}

	next := cloneTally(cur)
	next.Turnout.TotalEligibleVoters = count
	next.Version++

	return s.commit(ctx, electionID, l, next)
}

// HasVoted reports whether voterID's ballot was counted in electionID
func (s *Store) HasVoted(ctx context.Context, electionID, voterID string) (bool, error) {
	if err := auth.ValidateVoterID(voterID); err != nil {
		return false, fmt.Errorf("%w: %v", ErrInvalidVoter, err)
	}
	if _, err := s.election(ctx, electionID); err != nil {
		return false, err
	}

	cur, err := s.snapshot(ctx, electionID)
	if err != nil {
		return false, err
	}

	_, voted := cur.Voters[auth.HashVoterID(electionID, voterID, s.salt)]
	return voted, nil
}

// Forget drops an election's tally from memory and storage. It is called
// after the election itself has been removed from the directory.
func (s *Store) Forget(ctx context.Context, electionID string) error {
	sl := s.slot(electionID)
	l, err := s.lock(ctx, sl)
	if err != nil {
		return err
	}
	defer l.release()

	err = s.bounded(context.WithoutCancel(ctx), l, func(dctx context.Context) error {
		return s.snapshots.Delete(dctx, electionID)
	})
	if err != nil {
		sl.tally.Store(nil)
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	s.mu.Lock()
	delete(s.slots, electionID)
	s.mu.Unlock()
	sl.tally.Store(nil)

	s.publisher.Publish(electionID)
	return nil
}

// snapshot returns the committed tally without taking the write lock
// unless it first has to be loaded from storage
func (s *Store) snapshot(ctx context.Context, electionID string) (*models.TallySnapshot, error) {
	sl := s.slot(electionID)
	if t := sl.tally.Load(); t != nil {
		return t, nil
	}

	l, err := s.lock(ctx, sl)
	if err != nil {
		return nil, err
	}
	defer l.release()
	return s.load(ctx, electionID, l)
}

// commit persists next and only then makes it visible. Persistence is
// detached from ctx: once started it finishes or times out on its own.
func (s *Store) commit(ctx context.Context, electionID string, l *lease, next *models.TallySnapshot) error {
	err := s.bounded(context.WithoutCancel(ctx), l, func(sctx context.Context) error {
		return s.snapshots.Save(sctx, electionID, next)
	})
	if err != nil {
		// The write may or may not have landed; reload on next use
		l.sl.tally.Store(nil)
		slog.Error("failed to save tally snapshot", "election_id", electionID, "version", next.Version, "error", err)
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	l.sl.tally.Store(next)
	s.publisher.Publish(electionID)
	return nil
}

// load returns the cached tally or reads it from storage under l
func (s *Store) load(ctx context.Context, electionID string, l *lease) (*models.TallySnapshot, error) {
	if t := l.sl.tally.Load(); t != nil {
		return t, nil
	}

	var snap *models.TallySnapshot
	err := s.bounded(ctx, l, func(lctx context.Context) error {
		var err error
		snap, err = s.snapshots.Load(lctx, electionID)
		return err
	})
	if errors.Is(err, storage.ErrNotFound) {
		snap = &models.TallySnapshot{ElectionID: electionID}
	} else if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		slog.Error("failed to load tally snapshot", "election_id", electionID, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	if snap.Votes == nil {
		snap.Votes = make(map[string]map[string]models.CandidateTally)
	}
	if snap.Voters == nil {
		snap.Voters = make(map[string]time.Time)
	}

	l.sl.tally.Store(snap)
	return snap, nil
}

// bounded runs op with the storage timeout and returns once either op
// finishes or the deadline passes. An op that overruns keeps running and
// keeps the election lock until it returns, so its late effect cannot race
// a newer write.
func (s *Store) bounded(ctx context.Context, l *lease, op func(context.Context) error) error {
	octx, cancel := context.WithTimeout(ctx, s.storageTimeout)
	done := make(chan error, 1)
	go func() { done <- op(octx) }()

	select {
	case err := <-done:
		cancel()
		return err
	case <-octx.Done():
		l.handedOff = true
		go func() {
			<-done
			cancel()
			<-l.sl.sem
		}()
		return octx.Err()
	}
}

func (s *Store) election(ctx context.Context, electionID string) (*models.Election, error) {
	e, err := s.dir.Election(ctx, electionID)
	if errors.Is(err, directory.ErrNotFound) {
		return nil, ErrElectionNotFound
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: directory: %v", ErrStorageUnavailable, err)
	}
	return e, nil
}

func (s *Store) slot(electionID string) *slot {
	s.mu.Lock()
	defer s.mu.Unlock()

	sl, ok := s.slots[electionID]
	if !ok {
		sl = &slot{sem: make(chan struct{}, 1)}
		s.slots[electionID] = sl
	}
	return sl
}

// lock waits for the election's write lock, bounded by ctx and lockTimeout
func (s *Store) lock(ctx context.Context, sl *slot) (*lease, error) {
	timer := time.NewTimer(s.lockTimeout)
	defer timer.Stop()

	select {
	case sl.sem <- struct{}{}:
		return &lease{sl: sl}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return nil, fmt.Errorf("%w: timed out waiting for election lock", ErrStorageUnavailable)
	}
}

func (l *lease) release() {
	if l.handedOff {
		return
	}
	<-l.sl.sem
}

func (s *Store) observe(electionID string, elapsed time.Duration, err error) {
	if s.metrics == nil {
		return
	}

	s.metrics.RecordDuration.WithLabelValues(electionID).Observe(elapsed.Seconds())

	var reason string
	switch {
	case err == nil:
		s.metrics.VotesRecorded.WithLabelValues(electionID).Inc()
		return
	case errors.Is(err, ErrAlreadyVoted):
		reason = metrics.ReasonAlreadyVoted
	case errors.Is(err, ErrPositionMismatch), errors.Is(err, ErrInvalidVoter):
		reason = metrics.ReasonPositionMismatch
	case errors.Is(err, ErrElectionNotFound):
		reason = metrics.ReasonElectionNotFound
	default:
		reason = metrics.ReasonStorageUnavailable
	}
	s.metrics.VotesRejected.WithLabelValues(electionID, reason).Inc()
}

// validateSelections checks a ballot against the election's positions
func validateSelections(e *models.Election, selections map[string][]string) error {
	if len(selections) == 0 {
		return fmt.Errorf("%w: no positions selected", ErrPositionMismatch)
	}

	for positionID, candidateIDs := range selections {
		p, ok := e.Position(positionID)
		if !ok {
			return fmt.Errorf("%w: unknown position %q", ErrPositionMismatch, positionID)
		}
		if len(candidateIDs) != p.MaxSelections {
			return fmt.Errorf("%w: position %q requires %d selections, got %d",
				ErrPositionMismatch, positionID, p.MaxSelections, len(candidateIDs))
		}

		seen := make(map[string]bool, len(candidateIDs))
		for _, candidateID := range candidateIDs {
			if seen[candidateID] {
				return fmt.Errorf("%w: candidate %q selected twice for position %q",
					ErrPositionMismatch, candidateID, positionID)
			}
			seen[candidateID] = true

			if !p.HasCandidate(candidateID) {
				return fmt.Errorf("%w: candidate %q is not running for position %q",
					ErrPositionMismatch, candidateID, positionID)
			}
		}
	}
	return nil
}

func cloneTally(t *models.TallySnapshot) *models.TallySnapshot {
	out := &models.TallySnapshot{
		ElectionID: t.ElectionID,
		Version:    t.Version,
		Votes:      make(map[string]map[string]models.CandidateTally, len(t.Votes)),
		Turnout:    t.Turnout,
		Voters:     make(map[string]time.Time, len(t.Voters)+1),
	}
	if t.Turnout.LastUpdated != nil {
		lu := *t.Turnout.LastUpdated
		out.Turnout.LastUpdated = &lu
	}
	for positionID, counts := range t.Votes {
		c := make(map[string]models.CandidateTally, len(counts))
		for candidateID, ct := range counts {
			c[candidateID] = ct
		}
		out.Votes[positionID] = c
	}
	for k, v := range t.Voters {
		out.Voters[k] = v
	}
	return out
}
