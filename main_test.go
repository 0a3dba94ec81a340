package main

import (
	"context"
	"testing"

	"github.com/danielhkuo/campus-tally/cliparse"
	"github.com/danielhkuo/campus-tally/models"
	"github.com/danielhkuo/campus-tally/testutil"
)

func TestOpenSnapshotStore(t *testing.T) {
	dbConn := testutil.SetupTestDB(t)

	for _, backend := range []string{cliparse.BackendSQL, cliparse.BackendFile, cliparse.BackendPebble, cliparse.BackendMemory} {
		t.Run(backend, func(t *testing.T) {
			cfg := testutil.GetTestConfig()
			cfg.StorageBackend = backend
			cfg.DataDir = t.TempDir()

			store, err := openSnapshotStore(context.Background(), cfg, dbConn)
			if err != nil {
				t.Fatalf("Failed to open %s store: %v", backend, err)
			}
			defer store.Close()

			snap := &models.TallySnapshot{ElectionID: "election_1", Version: 1}
			if err := store.Save(context.Background(), "election_1", snap); err != nil {
				t.Fatalf("Save failed: %v", err)
			}
			got, err := store.Load(context.Background(), "election_1")
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			if got.Version != 1 {
				t.Errorf("Expected version 1, got %d", got.Version)
			}
		})
	}

	t.Run("unknown backend", func(t *testing.T) {
		cfg := testutil.GetTestConfig()
		cfg.StorageBackend = "tape"
		if _, err := openSnapshotStore(context.Background(), cfg, dbConn); err == nil {
			t.Error("Expected error for unknown backend")
		}
	})
}
