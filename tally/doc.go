// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package tally counts votes.

Store is the only writer of vote counters, turnout and voted sets:

	store := tally.New(dir, snapshots, hub, salt,
		tally.WithLockTimeout(5*time.Second),
		tally.WithStorageTimeout(5*time.Second),
	)

	res, err := store.RecordVote(ctx, "E1", "V1", map[string][]string{
		"P1": {"C1"},
	})

# Submission Rules

A ballot is accepted when every listed position belongs to the election,
each lists exactly maxSelections distinct candidates, and each candidate
runs for that position. Positions may be left out of the ballot.

A voter counts once per election. The voted set stores HMAC digests of
voter ids, and a second submission fails with ErrAlreadyVoted whatever
it contains.

# Atomicity

Each election has a one-token write lock. A writer validates, clones the
committed tally, applies the increments, saves the whole snapshot and only
then swaps it in. If the save fails the caller gets ErrStorageUnavailable,
the cached tally is discarded and the next call reloads from storage. A
retry after such a failure is safe: either the earlier write landed and
the retry sees ErrAlreadyVoted, or it did not and the retry counts once.

Persistence runs detached from the caller's context, so a disconnecting
client cannot abort a half-applied ballot. The storage timeout is enforced
here even for adapters that ignore their context: the caller gets
ErrStorageUnavailable at the deadline while the stalled write keeps the
election's lock until it returns.

Readers take the current pointer without locking; a snapshot is always
either entirely before or entirely after any given write.

# Ranking

GetResults sorts candidates by votes, highest first. Ties keep the
directory's candidate insertion order. The first two are reported as
winner and runner-up once a position has any votes; margin is the gap as
a percentage of the winner's votes.
*/
package tally
