// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/danielhkuo/campus-tally/models"
)

var (
	ErrNotFound = errors.New("snapshot not found")
)

// SnapshotStore persists one tally snapshot per election.
// Save replaces the whole document; there are no partial writes.
type SnapshotStore interface {
	// Load returns ErrNotFound if nothing was saved for electionID
	Load(ctx context.Context, electionID string) (*models.TallySnapshot, error)
	Save(ctx context.Context, electionID string, snap *models.TallySnapshot) error
	// Delete is not an error when nothing is stored
	Delete(ctx context.Context, electionID string) error
	Close() error
}

func encode(snap *models.TallySnapshot) ([]byte, error) {
	data, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return data, nil
}

func decode(data []byte) (*models.TallySnapshot, error) {
	var snap models.TallySnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return &snap, nil
}

func snapshotKey(electionID string) string {
	return "tally:" + electionID
}
