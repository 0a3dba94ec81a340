package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/danielhkuo/campus-tally/cliparse"
	"github.com/danielhkuo/campus-tally/db"
	"github.com/danielhkuo/campus-tally/directory"
	"github.com/danielhkuo/campus-tally/events"
	"github.com/danielhkuo/campus-tally/metrics"
	"github.com/danielhkuo/campus-tally/middleware"
	"github.com/danielhkuo/campus-tally/notify"
	"github.com/danielhkuo/campus-tally/router"
	"github.com/danielhkuo/campus-tally/storage"
	"github.com/danielhkuo/campus-tally/tally"
)

func main() {
	var err error

	if err := cliparse.LoadDotEnv(".env"); err != nil {
		slog.Error("Error loading .env", "error", err)
		os.Exit(1)
	}

	// Parse configuration
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		os.Exit(1)
	}

	// Connect to the election database
	dbConn, err := db.Open(cfg.DatabaseType, cfg.DatabaseURL)
	if err != nil {
		slog.Error("database connection failed", "error", err, "type", cfg.DatabaseType)
		os.Exit(1)
	}
	defer dbConn.Close()

	// Create schema (tables)
	if err := db.CreateSchema(dbConn); err != nil {
		slog.Error("schema creation failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database schema ready", "type", cfg.DatabaseType)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	snapshots, err := openSnapshotStore(ctx, cfg, dbConn)
	if err != nil {
		slog.Error("tally storage unavailable", "error", err, "backend", cfg.StorageBackend)
		os.Exit(1)
	}
	defer snapshots.Close()
	slog.Info("Tally storage ready", "backend", cfg.StorageBackend)

	dir := directory.NewSQLDirectory(dbConn)
	hub := notify.NewHub(cfg.SubscriberBuffer)
	m := metrics.NewTallyMetrics("campus_tally")
	store := tally.New(dir, snapshots, hub, cfg.VoterIDSalt,
		tally.WithLockTimeout(cfg.LockTimeout),
		tally.WithStorageTimeout(cfg.StorageTimeout),
		tally.WithMetrics(m),
	)

	if len(cfg.KafkaBrokers) > 0 {
		fwd := events.NewForwarder(hub, events.NewKafkaWriter(cfg.KafkaBrokers, cfg.KafkaTopic))
		go fwd.Run(ctx)
		slog.Info("Kafka forwarding enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}

	// Create router
	mux := router.NewRouter(router.Deps{
		Elections: dir,
		Tally:     store,
		Hub:       hub,
		Metrics:   m,
	})

	// Create server; request contexts end with ctx so open streams close on shutdown
	server := http.Server{
		Handler:     middleware.CORS(mux),
		Addr:        ":" + strconv.Itoa(cfg.Port),
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	go func() {
		// Wait for Ctrl-C signal
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Warn("graceful shutdown incomplete", "error", err)
			server.Close()
		}
	}()

	// Start server
	slog.Info("Listening", "port", cfg.Port)
	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		slog.Error("Server closed", "error", err)
	} else {
		slog.Info("Server closed", "error", err)
	}
}

// openSnapshotStore builds the configured tally storage backend
func openSnapshotStore(ctx context.Context, cfg cliparse.Config, dbConn *sql.DB) (storage.SnapshotStore, error) {
	switch cfg.StorageBackend {
	case cliparse.BackendSQL:
		return storage.NewSQLStore(dbConn), nil
	case cliparse.BackendFile:
		return storage.NewFileStore(filepath.Join(cfg.DataDir, "tallies"))
	case cliparse.BackendPebble:
		return storage.NewPebbleStore(filepath.Join(cfg.DataDir, "pebble"))
	case cliparse.BackendRedis:
		pingCtx, cancel := context.WithTimeout(ctx, cfg.StorageTimeout)
		defer cancel()
		return storage.NewRedisStore(pingCtx, cfg.RedisURL)
	case cliparse.BackendMemory:
		slog.Warn("memory tally storage: votes are lost on restart")
		return storage.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported storage backend %q", cfg.StorageBackend)
	}
}
