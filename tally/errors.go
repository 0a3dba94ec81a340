// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package tally

import "errors"

var (
	// ErrElectionNotFound: the directory has no such election
	ErrElectionNotFound = errors.New("election not found")
	// ErrPositionMismatch: wrong selection count, unknown position or
	// candidate, duplicate candidate, or an empty ballot
	ErrPositionMismatch = errors.New("selections do not match the ballot")
	// ErrAlreadyVoted: the voter's earlier submission was counted; nothing changed
	ErrAlreadyVoted = errors.New("voter has already voted in this election")
	// ErrStorageUnavailable: nothing was committed and the call is safe to retry
	ErrStorageUnavailable = errors.New("tally storage unavailable")
	// ErrInvalidVoter: empty or oversized voter id
	ErrInvalidVoter = errors.New("invalid voter id")
	// ErrInvalidCount: negative eligible voter count
	ErrInvalidCount = errors.New("eligible voter count must not be negative")
)
