// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db opens the database and creates the schema.

# Connecting

	conn, err := db.Open("sqlite", "file:campus.db")
	conn, err := db.Open("postgres", "postgres://...")

The postgres driver is github.com/lib/pq and the sqlite driver is
modernc.org/sqlite (pure Go, no cgo). SQLite connections are limited to a
single open connection and have foreign keys enabled.

# Schema Creation

	if err := db.CreateSchema(conn); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.
The DDL sticks to the subset both engines accept; timestamps are stored
as RFC 3339 text.

# Tables

  - election: Election metadata and status
  - election_position: Positions per election with max_selections
  - candidate: Candidates per position
  - tally_snapshot: One JSON tally document per election

# Relationships

	election 1──* election_position 1──* candidate
	election 1──1 tally_snapshot (by id, no foreign key)

tally_snapshot has no foreign key so the tally store can be pointed at a
different backend than the directory.
*/
package db
