// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package storage persists tally snapshots.

All backends implement SnapshotStore and store the same JSON document
(models.TallySnapshot), one per election:

  - MemoryStore: map, for tests and throwaway runs
  - FileStore: <dir>/<election id>.json, replaced atomically via rename
  - SQLStore: tally_snapshot table on PostgreSQL or SQLite
  - PebbleStore: embedded github.com/cockroachdb/pebble, synced writes
  - RedisStore: github.com/redis/go-redis/v9, key tally:<election id>

Save must be durable when it returns nil. The tally store relies on that:
it only publishes a mutation after Save succeeds.

Callers serialize writes per election; the stores themselves do not order
concurrent Saves for the same id.
*/
package storage
