/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the inventory ledger HTTP server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (env, .env, config.yaml)
  2. Build the logger
  3. Open the configured store (memory, sqlite or redis)
  4. Build the ledger and restore the persisted admin
  5. Configure HTTP router
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port    Overrides PORT
  -db      Overrides SQLITE_PATH (sqlite driver only)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close the store
  4. Exit

EXAMPLES:
  ADMIN_IDENTITY=ops STORE_DRIVER=sqlite ./server -db=./data/inventory.db
  ADMIN_IDENTITY=ops STORE_DRIVER=redis REDIS_ADDR=redis:6379 ./server
  ADMIN_IDENTITY=ops STORE_DRIVER=memory ./server -port=3000

SEE ALSO:
  - config/config.go: Configuration keys
  - api/server.go: Router configuration
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/warp/inventory-ledger/api"
	"github.com/warp/inventory-ledger/config"
	"github.com/warp/inventory-ledger/inventory"
	"github.com/warp/inventory-ledger/inventory/store"
	"github.com/warp/inventory-ledger/logging"
	"github.com/warp/inventory-ledger/store/redisstore"
	"github.com/warp/inventory-ledger/store/sqlite"
	"go.uber.org/zap"
)

func main() {
	port := flag.String("port", "", "HTTP server port (overrides PORT)")
	dbPath := flag.String("db", "", "SQLite database path (overrides SQLITE_PATH)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *port != "" {
		cfg.Port = *port
	}
	if *dbPath != "" {
		cfg.SQLitePath = *dbPath
	}

	logger, err := logging.New(cfg.IsProduction(), cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx := context.Background()

	policy, err := inventory.ParseReallocationPolicy(cfg.ReallocationPolicy)
	if err != nil {
		return err
	}
	opts := inventory.Options{
		Logger:                 logger,
		Reallocation:           policy,
		RequireChannelOperator: cfg.RequireChannelOperator,
	}

	st, closer, err := openStore(ctx, cfg, logger, &opts)
	if err != nil {
		return err
	}
	defer closer.Close()

	ledger := inventory.New(st, inventory.Identity(cfg.AdminIdentity), opts)
	if err := ledger.LoadAdmin(ctx); err != nil {
		return err
	}
	admin, err := ledger.Admin(ctx)
	if err != nil {
		return err
	}
	logger.Info("ledger ready",
		zap.String("store", cfg.StoreDriver),
		zap.String("admin", string(admin)),
		zap.String("reallocation", string(policy)),
		zap.Bool("require_channel_operator", cfg.RequireChannelOperator),
	)

	router := api.NewRouter(api.NewHandler(ledger, st, logger), api.RouterOptions{
		AllowedOrigins:  cfg.CORSAllowedOrigins,
		RateLimitPerMin: cfg.RateLimitPerMin,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case <-quit:
	}

	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// openStore builds the configured backend. The redis driver also installs
// the cross-process slot locker into opts.
func openStore(ctx context.Context, cfg config.Config, logger *zap.Logger, opts *inventory.Options) (inventory.Store, io.Closer, error) {
	switch cfg.StoreDriver {
	case "memory":
		logger.Warn("using in-memory store; state is lost on exit")
		return store.NewMemory(), nopCloser{}, nil

	case "sqlite":
		st, err := sqlite.New(cfg.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		return st, st, nil

	case "redis":
		st, err := redisstore.Connect(ctx, redisstore.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.RedisPrefix,
		})
		if err != nil {
			return nil, nil, err
		}
		opts.Locker = redisstore.NewLocker(st.Client(), redisstore.LockerOptions{
			Prefix: cfg.RedisPrefix,
			TTL:    cfg.RedisLockTTL,
			Wait:   cfg.RedisLockWait,
			Logger: logger,
		})
		return st, st, nil

	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}
