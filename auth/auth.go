// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// MaxVoterIDLength bounds opaque voter ids accepted from callers
const MaxVoterIDLength = 256

var (
	ErrInvalidVoterID = errors.New("invalid voter id")
)

// GenerateID creates a random hex ID of the specified byte length
func GenerateID(byteLen int) (string, error) {
	b := make([]byte, byteLen)
	_, err := rand.Read(b)
	if err != nil {
		return "", fmt.Errorf("failed to generate random ID: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// GeneratePrefixedID creates an ID like "election_3fa9c1d2e4b5a6f7"
func GeneratePrefixedID(prefix string, byteLen int) (string, error) {
	id, err := GenerateID(byteLen)
	if err != nil {
		return "", err
	}
	return prefix + "_" + id, nil
}

// ValidateVoterID checks that an opaque voter id is usable as a key
func ValidateVoterID(voterID string) error {
	if strings.TrimSpace(voterID) == "" {
		return fmt.Errorf("%w: empty", ErrInvalidVoterID)
	}
	if len(voterID) > MaxVoterIDLength {
		return fmt.Errorf("%w: longer than %d bytes", ErrInvalidVoterID, MaxVoterIDLength)
	}
	return nil
}

// HashVoterID creates a one-way, election-scoped digest of a voter id.
// The same voter hashes differently in different elections.
func HashVoterID(electionID, voterID, salt string) string {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(electionID))
	h.Write([]byte{0})
	h.Write([]byte(voterID))
	return hex.EncodeToString(h.Sum(nil))
}
