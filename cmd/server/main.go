/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the slotkeeper reservation server. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (.env + environment + flags)
  2. Initialize the chosen store backend
  3. Seed default settings and the bootstrap admin account
  4. Create ledger, handler, router
  5. Start the completion sweeper
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port     HTTP server port (overrides PORT)
  -backend  memory | jsonfile | sqlite | postgres (overrides STORE_BACKEND)
  -db       File path or DSN for the backend (overrides STORE_PATH)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Stop the sweeper, close the store
  4. Exit

EXAMPLES:
  # Embedded SQLite
  ./server -db="./data/slotkeeper.db"

  # In-memory (demo)
  ./server -backend=memory

  # Managed PostgreSQL
  DATABASE_URL=postgres://... ./server -backend=postgres

SEE ALSO:
  - config/config.go: Environment variables
  - api/server.go: Router configuration
  - store/sqldb/sqldb.go: Database implementation
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/warp/slotkeeper/api"
	"github.com/warp/slotkeeper/config"
	"github.com/warp/slotkeeper/parking"
	"github.com/warp/slotkeeper/store/jsonfile"
	"github.com/warp/slotkeeper/store/memory"
	"github.com/warp/slotkeeper/store/sqldb"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	// Flags override the environment.
	port := flag.Int("port", cfg.Port, "HTTP server port")
	backend := flag.String("backend", cfg.StoreBackend, "store backend (memory|jsonfile|sqlite|postgres)")
	dbPath := flag.String("db", cfg.StorePath, "file path or DSN for the store backend")
	flag.Parse()
	cfg.Port = *port
	cfg.StoreBackend = *backend
	cfg.StorePath = *dbPath

	logger := newLogger(cfg)

	store, closeStore, err := openStore(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize store")
	}
	defer closeStore()

	ctx := context.Background()
	if err := parking.SeedDefaultSettings(ctx, store); err != nil {
		logger.Fatal().Err(err).Msg("failed to seed settings")
	}

	ledger := parking.NewLedger(store, logger)
	if err := seedAdmin(ctx, store, ledger, cfg); err != nil {
		logger.Fatal().Err(err).Msg("failed to seed admin account")
	}

	handler := api.NewHandler(store, ledger, logger, []byte(cfg.JWTSecret))
	router := api.NewRouter(handler)

	sweeper := api.NewCompletionSweeper(ledger, logger)
	if err := sweeper.Start(); err != nil {
		logger.Fatal().Err(err).Msg("failed to start completion sweeper")
	}
	defer sweeper.Stop()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().
			Int("port", cfg.Port).
			Str("backend", cfg.StoreBackend).
			Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("forced shutdown")
	}
	logger.Info().Msg("server stopped")
}

// newLogger builds the process logger: pretty console output in dev, JSON
// lines in prod.
func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}

	if cfg.IsProd() {
		return zerolog.New(os.Stdout).Level(level).With().Timestamp().Logger()
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
		Level(level).With().Timestamp().Logger()
}

// openStore builds the configured backend and its close function.
func openStore(cfg *config.Config) (parking.Store, func(), error) {
	switch cfg.StoreBackend {
	case config.BackendMemory:
		return memory.New(), func() {}, nil
	case config.BackendJSONFile:
		s, err := jsonfile.New(cfg.StorePath)
		if err != nil {
			return nil, nil, err
		}
		return s, func() {}, nil
	case config.BackendSQLite:
		s, err := sqldb.New(sqldb.DriverSQLite, cfg.StorePath)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { s.Close() }, nil
	case config.BackendPostgres:
		s, err := sqldb.New(sqldb.DriverPostgres, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { s.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown backend %q", cfg.StoreBackend)
	}
}

// seedAdmin ensures the bootstrap admin account exists so a fresh deployment
// can be logged into.
func seedAdmin(ctx context.Context, store parking.Store, ledger *parking.Ledger, cfg *config.Config) error {
	_, err := store.GetUserByUsername(ctx, cfg.AdminUser)
	if err == nil {
		return nil
	}
	if !errors.Is(err, parking.ErrNotFound) {
		return err
	}
	_, err = ledger.CreateUser(ctx, cfg.AdminUser, cfg.AdminPass, parking.RoleAdmin)
	return err
}
