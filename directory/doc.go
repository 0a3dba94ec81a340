// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package directory holds the election directory: elections, positions and
candidates.

The tally store only ever needs Directory.Election. The admin API uses the
wider Manager interface, implemented by SQLDirectory.

	dir := directory.NewSQLDirectory(conn)
	e, err := dir.Create(ctx, models.CreateElectionRequest{...})

Candidates keep their insertion order (ordinal column). That order is the
tie-break when results are ranked, so it must never be reshuffled.

Memory is a fixed directory for tests.
*/
package directory
