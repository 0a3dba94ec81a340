// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

	if err := cliparse.LoadDotEnv(".env"); err != nil { ... }
	cfg, err := cliparse.ParseFlags(os.Args[1:])

# Flags and Environment

	-p                PORT               server port (3318)
	-d                DATABASE_URL       election database (required)
	-t                DATABASE_TYPE      sqlite or postgres (sqlite)
	-s                STORAGE_BACKEND    sql, file, pebble, redis, memory (sql)
	-data-dir         DATA_DIR           file and pebble root (data)
	-redis            REDIS_URL          required for the redis backend
	-storage-timeout  STORAGE_TIMEOUT    bound on one snapshot write (5s)
	-lock-timeout     LOCK_TIMEOUT       bound on waiting for an election (5s)
	-kafka            KAFKA_BROKERS      comma separated; empty disables
	-kafka-topic      KAFKA_TOPIC        (election-updates)
	-buffer           SUBSCRIBER_BUFFER  per-viewer buffer (16)
	-voter-salt       VOTER_ID_SALT      voter id hashing secret (required)

CLI flags take precedence over environment variables. LoadDotEnv never
overrides variables that are already set.
*/
package cliparse
