// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides id generation and voter id hashing.

There is no login here: voters arrive with an opaque voter id issued by the
campus authentication flow. This package only makes sure that id is usable
and that it is never stored in the clear.

# Voter IDs

	if err := auth.ValidateVoterID(voterID); err != nil {
		// reject
	}
	key := auth.HashVoterID(electionID, voterID, salt)

HashVoterID is HMAC-SHA256 over the election id and voter id. Hashes are
scoped per election so voted sets from two elections cannot be joined.

# ID Generation

Random hex IDs for directory records:

	id, err := auth.GenerateID(16)                  // 32 hex characters
	id, err := auth.GeneratePrefixedID("cand", 8)   // cand_<16 hex>
*/
package auth
