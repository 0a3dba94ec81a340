// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the campus-tally API server.

campus-tally records college election ballots, keeps live per-candidate
counts and turnout, and pushes "results changed" markers to result
viewers.

# Starting the Server

	DATABASE_URL=file:campus.db VOTER_ID_SALT=... go run .

Or with flags:

	go run . -p 3318 -t postgres -d "postgres://..." -s redis -redis redis://localhost:6379/0

A .env file in the working directory is loaded first if present.

# Configuration

Required settings:

  - DATABASE_URL (-d): election database connection string
  - VOTER_ID_SALT (-voter-salt): secret for hashing voter ids

Optional settings:

  - PORT (-p): server port (default: 3318)
  - DATABASE_TYPE (-t): sqlite or postgres (default: sqlite)
  - STORAGE_BACKEND (-s): sql, file, pebble, redis or memory (default: sql)
  - DATA_DIR (-data-dir): root for file and pebble storage (default: data)
  - REDIS_URL (-redis): required for the redis backend
  - STORAGE_TIMEOUT, LOCK_TIMEOUT: write bounds (default: 5s each)
  - KAFKA_BROKERS (-kafka), KAFKA_TOPIC (-kafka-topic): forward change markers
  - SUBSCRIBER_BUFFER (-buffer): per-viewer marker buffer (default: 16)

# Architecture

  - tally: vote counters, turnout and the voted set
  - notify: change marker fan-out
  - storage: tally snapshot persistence backends
  - directory: elections, positions and candidates
  - handlers, router, middleware: HTTP API
  - events: Kafka forwarding
  - metrics: Prometheus collectors
  - auth: id generation and voter id hashing
  - db: connection and schema
  - cliparse: configuration parsing
*/
package main
