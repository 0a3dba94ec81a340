// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package storage

import (
	"context"
	"fmt"

	"github.com/cockroachdb/pebble"

	"github.com/danielhkuo/campus-tally/models"
)

// PebbleStore keeps snapshots in an embedded Pebble database.
// Every write is synced before Save returns.
type PebbleStore struct {
	db *pebble.DB
}

func NewPebbleStore(path string) (*PebbleStore, error) {
	opts := &pebble.Options{
		Cache:        pebble.NewCache(8 << 20), // 8 MB cache
		MemTableSize: 4 << 20,                  // 4 MB memtable
	}

	db, err := pebble.Open(path, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open pebble: %w", err)
	}

	return &PebbleStore{db: db}, nil
}

func (p *PebbleStore) Load(ctx context.Context, electionID string) (*models.TallySnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	value, closer, err := p.db.Get([]byte(snapshotKey(electionID)))
	if err == pebble.ErrNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	defer closer.Close()

	// value is only valid until closer.Close(); decode copies out of it
	return decode(value)
}

func (p *PebbleStore) Save(ctx context.Context, electionID string, snap *models.TallySnapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := encode(snap)
	if err != nil {
		return err
	}

	if err := p.db.Set([]byte(snapshotKey(electionID)), data, pebble.Sync); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}

func (p *PebbleStore) Delete(ctx context.Context, electionID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := p.db.Delete([]byte(snapshotKey(electionID)), pebble.Sync); err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return nil
}

func (p *PebbleStore) Close() error {
	return p.db.Close()
}
