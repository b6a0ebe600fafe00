package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"

	"github.com/XavierBriggs/fortuna/services/edge-engine/internal/cache"
	"github.com/XavierBriggs/fortuna/services/edge-engine/internal/config"
	"github.com/XavierBriggs/fortuna/services/edge-engine/internal/engine"
	"github.com/XavierBriggs/fortuna/services/edge-engine/internal/handlers"
	"github.com/XavierBriggs/fortuna/services/edge-engine/internal/ledger"
	"github.com/XavierBriggs/fortuna/services/edge-engine/internal/metrics"
	"github.com/XavierBriggs/fortuna/services/edge-engine/internal/narrative"
	"github.com/XavierBriggs/fortuna/services/edge-engine/internal/providers/oddsfeed"
	"github.com/XavierBriggs/fortuna/services/edge-engine/internal/providers/statsfeed"
	"github.com/XavierBriggs/fortuna/services/edge-engine/pkg/contracts"
)

func main() {
	fmt.Println("=== Fortuna Edge Engine v0 ===")

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("❌ Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// Connect to the prediction ledger
	db, err := connectDB(cfg.LedgerDSN)
	if err != nil {
		fmt.Printf("❌ Failed to connect to ledger DB: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	fmt.Println("✓ Connected to ledger DB")

	store := ledger.NewStore(db)

	ctx := context.Background()
	if err := store.EnsureSchema(ctx); err != nil {
		fmt.Printf("❌ Failed to ensure ledger schema: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("✓ Ledger schema ready")

	// Connect to Redis for the response cache and sweep lease
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPassword,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		fmt.Printf("❌ Failed to connect to Redis: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("✓ Connected to Redis")

	responseCache := cache.NewRedisCache(redisClient, cfg.CacheLongTTL, cfg.CacheShortTTL)
	sweepLock := cache.NewSweepLock(redisClient, cfg.SweepLockTTL)

	// Providers
	oddsProvider := oddsfeed.New(cfg.OddsFeedURL, cfg.OddsFeedAPIKey)
	statsProvider := statsfeed.New(cfg.StatsFeedURL, cfg.StatsFeedKey)

	var oracle contracts.NarrativeOracle
	if cfg.OracleURL != "" {
		oracle = narrative.NewHTTPOracle(cfg.OracleURL)
		fmt.Printf("✓ Narrative oracle at %s\n", cfg.OracleURL)
	} else {
		fmt.Println("✓ Narrative oracle disabled, using deterministic insights")
	}

	m := metrics.New()

	eng := engine.New(
		oddsProvider,
		statsProvider,
		oracle,
		store,
		responseCache,
		sweepLock,
		cfg.Catalog,
		cfg.Market,
		cfg.ValueBet,
		m,
		engine.Options{
			FetchParallelism: cfg.FetchParallelism,
			MatchDelay:       cfg.MatchDelay,
			SweepBudget:      cfg.SweepBudget,
		},
	)

	// Scheduled sweeps
	scheduler := cron.New()
	for _, sportKey := range cfg.SweepSports {
		sport := sportKey
		_, err := scheduler.AddFunc(cfg.SweepCron, func() {
			runSweep(eng, sport)
		})
		if err != nil {
			fmt.Printf("❌ Invalid sweep schedule %q: %v\n", cfg.SweepCron, err)
			os.Exit(1)
		}
	}
	scheduler.Start()
	defer scheduler.Stop()
	fmt.Printf("✓ Sweeps scheduled (%s) for: %v\n", cfg.SweepCron, cfg.SweepSports)

	// Setup router
	handler := handlers.NewHandler(eng, store)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Mount("/", handler.Routes())
	r.Handle("/metrics", m.Handler())

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		fmt.Printf("✓ Edge engine listening on %s\n", cfg.HTTPAddr)
		fmt.Println("  Endpoints:")
		fmt.Println("    GET  /health")
		fmt.Println("    GET  /api/v1/analysis")
		fmt.Println("    GET  /api/v1/predictions/{id}")
		fmt.Println("    POST /api/v1/predictions/{id}/outcome")
		fmt.Println("    GET  /api/v1/snapshots/{sportKey}")
		fmt.Println("    GET  /metrics")
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		fmt.Printf("❌ Server error: %v\n", err)
		os.Exit(1)
	case sig := <-shutdown:
		fmt.Printf("\n✓ Shutdown signal received: %v\n", sig)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			fmt.Printf("❌ Graceful shutdown failed: %v\n", err)
			srv.Close()
		}
	}

	fmt.Println("✓ Edge engine stopped")
}

// runSweep analyzes every fixture for a sport today
func runSweep(eng *engine.Engine, sportKey string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Hour)
	defer cancel()

	stats, err := eng.Sweep(ctx, sportKey, time.Now().UTC())
	if err != nil {
		fmt.Printf("❌ Sweep failed for %s: %v\n", sportKey, err)
		return
	}

	fmt.Printf("✓ Sweep %s complete for %s: %d/%d analyzed, %d failed, %d skipped in %s\n",
		stats.RunID, sportKey, stats.Analyzed, stats.Total, stats.Failed, stats.Skipped, stats.Elapsed)
}

func connectDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return db, nil
}
