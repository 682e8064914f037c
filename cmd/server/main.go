package main

import (
	"context"
	"crs-scheduling-service/internal/adapters/cache"
	"crs-scheduling-service/internal/adapters/geocode"
	"crs-scheduling-service/internal/adapters/notify"
	"crs-scheduling-service/internal/adapters/repositories"
	"crs-scheduling-service/internal/api"
	"crs-scheduling-service/internal/config"
	"crs-scheduling-service/internal/platform/db"
	"crs-scheduling-service/internal/ports"
	"crs-scheduling-service/internal/services"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

const geocodeCacheTTL = 30 * 24 * time.Hour

// main is the application composition root.
// It wires concrete adapters (PostgreSQL or SQLite, Redis, ORS) behind ports and starts the HTTP server.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	estimator, err := cfg.Estimator()
	if err != nil {
		log.Fatal(err)
	}

	conn, repo, sqlCache, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer conn.Close()

	// Redis, when configured, replaces the database-backed geocode cache.
	var geoCache ports.GeocodeCache = sqlCache
	if cfg.RedisURL != "" {
		rc, err := cache.NewRedisGeocodeCache(cfg.RedisURL, geocodeCacheTTL)
		if err != nil {
			log.Fatal(err)
		}
		defer rc.Close()
		geoCache = rc
	}

	geocoder, err := newGeocoder(cfg, geoCache)
	if err != nil {
		log.Fatal(err)
	}

	scheduler, err := services.NewScheduler(cfg.Scheduler, estimator, repo, geocoder)
	if err != nil {
		log.Fatal(err)
	}
	jobs, err := services.NewJobService(repo, geocoder, notify.NewLogNotifier(nil), cfg.Scheduler.Location)
	if err != nil {
		log.Fatal(err)
	}

	router := api.NewRouter(api.Deps{
		Scheduler: scheduler,
		Jobs:      jobs,
		Geocoder:  geocoder,
	})

	// Timeouts allow for cold-cache geocoding (external API latency) during availability searches.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}()

	log.Printf("Server listening addr=:%s tz=%s", cfg.Port, cfg.Scheduler.Location)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}

// openStore selects PostgreSQL when DATABASE_URL is set and otherwise a local
// SQLite file that is initialised and seeded on startup.
func openStore(ctx context.Context, cfg config.Config) (*sql.DB, ports.JobRepository, ports.GeocodeCache, error) {
	loc := cfg.Scheduler.Location

	if cfg.DatabaseURL != "" {
		conn, err := db.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, nil, err
		}
		log.Println("store=postgres")
		return conn, repositories.NewSQLJobRepository(conn, loc), cache.NewSQLGeocodeCache(conn), nil
	}

	conn, err := db.OpenSQLite(ctx, cfg.DBPath)
	if err != nil {
		return nil, nil, nil, err
	}
	repo := repositories.NewSqliteJobRepository(conn, loc)

	if err := initAndSeed(ctx, conn, repo, cfg.SeedPath, loc); err != nil {
		conn.Close()
		return nil, nil, nil, err
	}
	log.Printf("store=sqlite path=%s", cfg.DBPath)

	return conn, repo, cache.NewSqliteGeocodeCache(conn), nil
}

func initAndSeed(ctx context.Context, conn *sql.DB, repo ports.JobRepository, seedPath string, loc *time.Location) error {
	if err := repositories.InitSchema(conn); err != nil {
		return fmt.Errorf("init and seed: %w", err)
	}

	if _, err := os.Stat(seedPath); errors.Is(err, os.ErrNotExist) {
		log.Printf("seed file %q not found, starting empty", seedPath)
		return nil
	}
	if err := repositories.SeedFromJSON(ctx, repo, seedPath, loc); err != nil {
		return fmt.Errorf("init and seed: %w", err)
	}

	return nil
}

func newGeocoder(cfg config.Config, c ports.GeocodeCache) (ports.Geocoder, error) {
	if cfg.ORSKey == "" {
		log.Printf("ORS_API_KEY not set, geocoding from %s", cfg.PostcodesPath)
		return geocode.LoadStaticGeocoder(cfg.PostcodesPath)
	}

	return geocode.NewORSGeocoder(
		cfg.ORSKey,
		geocode.WithCache(c),
		geocode.WithRateLimit(cfg.GeocodeRPS),
	)
}
