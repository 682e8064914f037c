package main

import (
	"context"
	"crs-scheduling-service/internal/adapters/repositories"
	"crs-scheduling-service/internal/config"
	"crs-scheduling-service/internal/platform/db"
	"flag"
	"log"
	"time"
)

// dbtool prepares a PostgreSQL database: creates the schema and optionally
// loads the demo jobs.
func main() {
	seed := flag.Bool("seed", true, "load demo jobs from SEED_PATH after creating the schema")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	conn, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	defer conn.Close()

	log.Println("Initializing database schema...")
	if err := repositories.InitPostgresSchema(ctx, conn); err != nil {
		log.Fatalf("schema initialization failed: %v", err)
	}
	log.Println("Schema ready.")

	if !*seed {
		return
	}

	log.Println("Seeding database...")
	repo := repositories.NewSQLJobRepository(conn, cfg.Scheduler.Location)
	if err := repositories.SeedFromJSON(ctx, repo, cfg.SeedPath, cfg.Scheduler.Location); err != nil {
		log.Fatalf("seeding failed: %v", err)
	}
	log.Println("Seeding complete.")
}
