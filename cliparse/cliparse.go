// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package cliparse

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage backends for tally snapshots
const (
	BackendSQL    = "sql"
	BackendFile   = "file"
	BackendPebble = "pebble"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

type Config struct {
	Port             int
	DatabaseURL      string
	DatabaseType     string
	StorageBackend   string
	DataDir          string
	RedisURL         string
	KafkaBrokers     []string
	KafkaTopic       string
	VoterIDSalt      string
	StorageTimeout   time.Duration
	LockTimeout      time.Duration
	SubscriberBuffer int
}

// LoadDotEnv loads KEY=VALUE pairs from path into the environment.
// A missing file is not an error. Existing variables are not overridden.
func LoadDotEnv(path string) error {
	err := godotenv.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// ParseFlags validates flags and fills defaults from the environment
func ParseFlags(args []string) (Config, error) {
	var cfg Config
	var brokers string

	fs := flag.NewFlagSet("campus-tally", flag.ContinueOnError)

	// Network config (can be CLI args or env)
	fs.IntVar(&cfg.Port, "p", 0, "Server port")
	fs.StringVar(&cfg.DatabaseURL, "d", "", "Database URL")
	fs.StringVar(&cfg.DatabaseType, "t", "", "Database type (sqlite or postgres)")

	// Tally storage
	fs.StringVar(&cfg.StorageBackend, "s", "", "Tally storage backend (sql, file, pebble, redis, memory)")
	fs.StringVar(&cfg.DataDir, "data-dir", "", "Directory for file and pebble backends")
	fs.StringVar(&cfg.RedisURL, "redis", "", "Redis URL for the redis backend")
	fs.DurationVar(&cfg.StorageTimeout, "storage-timeout", 0, "Bound on a single snapshot write")
	fs.DurationVar(&cfg.LockTimeout, "lock-timeout", 0, "Bound on waiting for an election's write lock")

	// Notifications
	fs.StringVar(&brokers, "kafka", "", "Comma separated Kafka brokers for change events")
	fs.StringVar(&cfg.KafkaTopic, "kafka-topic", "", "Kafka topic for change events")
	fs.IntVar(&cfg.SubscriberBuffer, "buffer", 0, "Per-subscriber change event buffer")

	// Secrets (prefer env variables, but allow CLI for dev)
	fs.StringVar(&cfg.VoterIDSalt, "voter-salt", "", "Voter id hashing salt (prefer env)")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	// Fall back to environment variables
	if cfg.Port == 0 {
		if portStr := os.Getenv("PORT"); portStr != "" {
			port, err := strconv.Atoi(portStr)
			if err != nil {
				return Config{}, errors.New("invalid PORT env variable")
			}
			cfg.Port = port
		} else {
			cfg.Port = 3318 // default
		}
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("database URL required (use -d or DATABASE_URL env)")
	}

	if cfg.DatabaseType == "" {
		cfg.DatabaseType = os.Getenv("DATABASE_TYPE")
		if cfg.DatabaseType == "" {
			cfg.DatabaseType = "sqlite"
		}
	}
	if cfg.DatabaseType != "sqlite" && cfg.DatabaseType != "postgres" {
		return Config{}, fmt.Errorf("unsupported database type %q", cfg.DatabaseType)
	}

	if cfg.StorageBackend == "" {
		cfg.StorageBackend = os.Getenv("STORAGE_BACKEND")
		if cfg.StorageBackend == "" {
			cfg.StorageBackend = BackendSQL
		}
	}
	if cfg.DataDir == "" {
		cfg.DataDir = os.Getenv("DATA_DIR")
		if cfg.DataDir == "" {
			cfg.DataDir = "data"
		}
	}
	if cfg.RedisURL == "" {
		cfg.RedisURL = os.Getenv("REDIS_URL")
	}

	switch cfg.StorageBackend {
	case BackendSQL, BackendFile, BackendPebble, BackendMemory:
	case BackendRedis:
		if cfg.RedisURL == "" {
			return Config{}, errors.New("redis URL required for redis backend (use -redis or REDIS_URL env)")
		}
	default:
		return Config{}, fmt.Errorf("unsupported storage backend %q", cfg.StorageBackend)
	}

	var err error
	if cfg.StorageTimeout, err = durationOrEnv(cfg.StorageTimeout, "STORAGE_TIMEOUT", 5*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.LockTimeout, err = durationOrEnv(cfg.LockTimeout, "LOCK_TIMEOUT", 5*time.Second); err != nil {
		return Config{}, err
	}

	if brokers == "" {
		brokers = os.Getenv("KAFKA_BROKERS")
	}
	for _, b := range strings.Split(brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
		}
	}
	if cfg.KafkaTopic == "" {
		cfg.KafkaTopic = os.Getenv("KAFKA_TOPIC")
		if cfg.KafkaTopic == "" {
			cfg.KafkaTopic = "election-updates"
		}
	}

	if cfg.SubscriberBuffer == 0 {
		if s := os.Getenv("SUBSCRIBER_BUFFER"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || n <= 0 {
				return Config{}, errors.New("invalid SUBSCRIBER_BUFFER env variable")
			}
			cfg.SubscriberBuffer = n
		} else {
			cfg.SubscriberBuffer = 16
		}
	}
	if cfg.SubscriberBuffer < 0 {
		return Config{}, errors.New("subscriber buffer must be positive")
	}

	// Secrets - MUST be provided
	if cfg.VoterIDSalt == "" {
		cfg.VoterIDSalt = os.Getenv("VOTER_ID_SALT")
	}
	if cfg.VoterIDSalt == "" {
		return Config{}, errors.New("VOTER_ID_SALT required")
	}

	return cfg, nil
}

func durationOrEnv(v time.Duration, key string, def time.Duration) (time.Duration, error) {
	if v > 0 {
		return v, nil
	}
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s env variable", key)
	}
	return d, nil
}
