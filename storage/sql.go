// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/danielhkuo/campus-tally/models"
)

// SQLStore keeps snapshots in the tally_snapshot table (see db.CreateSchema).
// Works with both lib/pq and modernc.org/sqlite.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) Load(ctx context.Context, electionID string) (*models.TallySnapshot, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `
		SELECT payload FROM tally_snapshot WHERE election_id = $1
	`, electionID).Scan(&payload)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshot: %w", err)
	}

	return decode([]byte(payload))
}

func (s *SQLStore) Save(ctx context.Context, electionID string, snap *models.TallySnapshot) error {
	data, err := encode(snap)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO tally_snapshot (election_id, version, payload, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (election_id) DO UPDATE
		SET version = excluded.version, payload = excluded.payload, updated_at = excluded.updated_at
	`, electionID, snap.Version, string(data), time.Now().UTC().Format(time.RFC3339Nano))

	if err != nil {
		return fmt.Errorf("failed to upsert snapshot: %w", err)
	}
	return nil
}

func (s *SQLStore) Delete(ctx context.Context, electionID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM tally_snapshot WHERE election_id = $1`, electionID)
	if err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return nil
}

// Close is a no-op; the *sql.DB is owned by the caller
func (s *SQLStore) Close() error {
	return nil
}
