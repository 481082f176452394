package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	_ "modernc.org/sqlite"

	"inspection-route-service/internal/adapters/cache"
	"inspection-route-service/internal/adapters/distance"
	"inspection-route-service/internal/adapters/repositories"
	"inspection-route-service/internal/api"
	"inspection-route-service/internal/config"
	"inspection-route-service/internal/platform/db"
	"inspection-route-service/internal/platform/obs"
	"inspection-route-service/internal/ports"
	"inspection-route-service/internal/services"
)

const version = "1.0.0"

// main is the application composition root.
// It wires concrete adapters (SQLite, Redis/Postgres, Mapbox) behind ports
// and starts the HTTP server.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	cfg, err := config.Load(config.Get("CONFIG_PATH", "config.yaml"))
	if err != nil {
		log.Fatal(err)
	}

	if strings.TrimSpace(cfg.Mapbox.APIKey) == "" {
		log.Fatal("MAPBOX_API_KEY is required")
	}

	loc, err := time.LoadLocation(cfg.Optimizer.Timezone)
	if err != nil {
		log.Fatalf("load timezone %q: %v", cfg.Optimizer.Timezone, err)
	}

	sqldb, err := openDB(cfg.Database.Path)
	if err != nil {
		log.Fatal(err)
	}
	defer sqldb.Close()

	// Initialize schema and seed demo data on startup for local runs.
	if err := initAndSeed(context.Background(), sqldb, cfg.Seed.Path); err != nil {
		log.Fatal(err)
	}

	travelCache, err := selectTravelCache(cfg, sqldb)
	if err != nil {
		log.Fatal(err)
	}

	provider, err := distance.NewMapboxTravelProvider(cfg.Mapbox.APIKey, cfg.Mapbox.RPS, cfg.Mapbox.Burst)
	if err != nil {
		log.Fatal(err)
	}

	coordinator := &services.Coordinator{
		Inspectors:          repositories.NewSqliteInspectorDirectory(sqldb, loc),
		Inspections:         repositories.NewSqliteInspectionDirectory(sqldb),
		Resolver:            services.NewTravelResolver(travelCache, provider),
		Runs:                repositories.NewSqliteRunStore(sqldb),
		Workers:             cfg.Optimizer.Workers,
		DefaultAlignMinutes: cfg.Optimizer.AlignMinutes,
	}

	obs.RegisterDefault()
	router := api.NewRouter(coordinator, loc, version)

	// Timeouts are tuned for cold-cache optimization runs (external API latency).
	log.Printf("Server listening addr=:%s", cfg.Server.Port)
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	log.Fatal(srv.ListenAndServe())
}

func openDB(dbPath string) (*sql.DB, error) {
	sqldb, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("openDB: open sqlite database %q: %w", dbPath, err)
	}

	if err := sqldb.Ping(); err != nil {
		return nil, fmt.Errorf("openDB: verify sqlite connection to %q: %w", dbPath, err)
	}

	return sqldb, nil
}

func initAndSeed(ctx context.Context, sqldb *sql.DB, seedPath string) error {
	if err := repositories.InitSchema(ctx, sqldb); err != nil {
		return fmt.Errorf("init and seed: %w", err)
	}

	if _, err := os.Stat(seedPath); os.IsNotExist(err) {
		log.Printf("seed file %s not found, skipping seed", seedPath)
		return nil
	}

	if err := repositories.SeedFromJSON(ctx, sqldb, seedPath); err != nil {
		return fmt.Errorf("init and seed: %w", err)
	}

	return nil
}

// selectTravelCache picks the travel cache backend: Redis when configured,
// then PostgreSQL, otherwise the embedded SQLite database.
func selectTravelCache(cfg config.Config, sqldb *sql.DB) (ports.TravelCache, error) {
	if url := strings.TrimSpace(cfg.Redis.URL); url != "" {
		opts, err := redis.ParseURL(url)
		if err != nil {
			return nil, fmt.Errorf("parse REDIS_URL: %w", err)
		}
		log.Printf("travel cache backend=redis addr=%s", opts.Addr)
		return cache.NewRedisTravelCache(redis.NewClient(opts), 0), nil
	}

	if url := strings.TrimSpace(cfg.Database.URL); url != "" {
		pg, err := db.Open(url)
		if err != nil {
			return nil, err
		}
		log.Printf("travel cache backend=postgres")
		return cache.NewSQLTravelCache(pg), nil
	}

	log.Printf("travel cache backend=sqlite path=%s", cfg.Database.Path)
	return cache.NewSqliteTravelCache(sqldb), nil
}
