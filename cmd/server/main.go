/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the rebate engine HTTP server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags, load configuration
  2. Build the zap logger
  3. Initialize SQLite store and evaluation cache
  4. Load seed programs/assumptions (built-in or from configured files)
  5. Load the service (seeds an empty store), start the reloader
  6. Configure HTTP router and start server with graceful shutdown

COMMAND-LINE FLAGS:
  -config  Config file (default: ./configs/config.yaml if present)
  -port    HTTP server port, overrides server.port
  -db      SQLite database path, overrides database.path
           Use ":memory:" for an in-memory database

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (server.shutdown_timeout)
  3. Stop the reloader, close cache and database
  4. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/rebates.db"

  # Run with in-memory database and redis cache
  REBATE_CACHE_BACKEND=redis ./server -db=":memory:"

ENVIRONMENT:
  Every config key can be set as REBATE_<SECTION>_<KEY>; see config/config.go.

SEE ALSO:
  - api/server.go: Router configuration
  - service/service.go: Evaluation service
  - store/sqlite/sqlite.go: Database implementation
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

	"go.uber.org/zap"

	"github.com/warp/rebate-engine/api"
	"github.com/warp/rebate-engine/assumptions"
	"github.com/warp/rebate-engine/cache"
	"github.com/warp/rebate-engine/config"
	"github.com/warp/rebate-engine/factory"
	"github.com/warp/rebate-engine/logger"
	"github.com/warp/rebate-engine/service"
	"github.com/warp/rebate-engine/store/sqlite"
)

func main() {
	// Flags
	configPath := flag.String("config", "", "Config file path")
	port := flag.Int("port", 0, "HTTP server port (overrides config)")
	dbPath := flag.String("db", "", "SQLite database path (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *dbPath != "" {
		cfg.Database.Path = *dbPath
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("server failed", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx := context.Background()

	// Initialize store
	store, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}
	defer store.Close()

	evalCache, err := newCache(ctx, cfg.Cache)
	if err != nil {
		return err
	}
	defer evalCache.Close()

	seed, err := loadSeed(cfg)
	if err != nil {
		return err
	}

	svc := service.New(store, evalCache, log, seed)
	if err := svc.Load(ctx); err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	reloader := service.NewReloader(svc, cfg.Server.ReloadInterval, log)
	reloader.Start()
	defer reloader.Stop()

	// Create router
	router := api.NewRouter(api.NewHandler(svc, log), api.RouterOptions{
		CORSOrigins: cfg.Server.CORSOrigins,
		Logger:      log,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting",
			zap.Int("port", cfg.Server.Port),
			zap.String("database", cfg.Database.Path),
			zap.String("cache", cfg.Cache.Backend))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case sig := <-quit:
		log.Info("shutting down server", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}

	log.Info("server stopped")
	return nil
}

func newCache(ctx context.Context, cfg config.CacheConfig) (cache.Cache, error) {
	switch cfg.Backend {
	case config.CacheRedis:
		c, err := cache.NewRedis(ctx, cache.RedisConfig{
			Address:  cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			TTL:      cfg.Redis.TTL,
		})
		if err != nil {
			return nil, fmt.Errorf("connect redis cache: %w", err)
		}
		return c, nil
	case config.CacheNone:
		return cache.Nop{}, nil
	default:
		return cache.NewMemory(cfg.MaxEntries), nil
	}
}

// loadSeed returns the configuration an empty store is seeded with.
func loadSeed(cfg *config.Config) (service.Seed, error) {
	seed := service.DefaultSeed()

	if path := cfg.Assumptions.File; path != "" {
		table, err := assumptions.LoadFile(path)
		if err != nil {
			return seed, fmt.Errorf("assumptions file: %w", err)
		}
		seed.Assumptions = table
	}

	if path := cfg.Programs.File; path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return seed, fmt.Errorf("programs file: %w", err)
		}
		progs, err := factory.NewProgramFactory().ParseProgramsYAML(data)
		if err != nil {
			return seed, fmt.Errorf("programs file: %w", err)
		}
		seed.Programs = progs
	}

	return seed, nil
}
