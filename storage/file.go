// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"

	"github.com/danielhkuo/campus-tally/models"
)

// FileStore writes one JSON document per election into a directory.
// Writes go to a temp file that is fsynced and renamed over the old one.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (f *FileStore) path(electionID string) string {
	return filepath.Join(f.dir, url.PathEscape(electionID)+".json")
}

func (f *FileStore) Load(ctx context.Context, electionID string) (*models.TallySnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(f.path(electionID))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	return decode(data)
}

func (f *FileStore) Save(ctx context.Context, electionID string, snap *models.TallySnapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := encode(snap)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(f.dir, ".tally-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close snapshot: %w", err)
	}

	if err := os.Rename(tmpName, f.path(electionID)); err != nil {
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}
	return nil
}

func (f *FileStore) Delete(ctx context.Context, electionID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := os.Remove(f.path(electionID))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return nil
}

func (f *FileStore) Close() error {
	return nil
}
