package repositories

import (
	"context"
	"crs-scheduling-service/internal/domain"
	"crs-scheduling-service/internal/ports"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// Initialize the SQLite database schema.
func InitSchema(db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createJobsQuery := `
	CREATE TABLE IF NOT EXISTS jobs (
		reference TEXT PRIMARY KEY,
		quote_reference TEXT NOT NULL DEFAULT '',
		company_name TEXT NOT NULL DEFAULT '',
		contact_name TEXT NOT NULL DEFAULT '',
		phone TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL DEFAULT '',
		address TEXT NOT NULL DEFAULT '',
		postcode TEXT NOT NULL,
		lat REAL NOT NULL,
		lon REAL NOT NULL,
		access_notes TEXT NOT NULL DEFAULT '',
		size TEXT NOT NULL,
		area_sqm REAL NOT NULL DEFAULT 0,
		price_pence INTEGER NOT NULL DEFAULT 0,
		scheduled_date TEXT NOT NULL,
		arrival_time TEXT,
		departure_time TEXT,
		status TEXT NOT NULL,
		on_way_notified INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		updated_at TEXT
	);
	`

	createGeocodeCacheQuery := `
	CREATE TABLE IF NOT EXISTS geocode_cache (
        postcode TEXT PRIMARY KEY,
        lat REAL NOT NULL,
        lon REAL NOT NULL
    );
	`

	createIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_jobs_scheduled_date
    ON jobs(scheduled_date);
	`

	statements := []string{
		createJobsQuery,
		createGeocodeCacheQuery,
		createIndexQuery,
	}

	for i, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}

type JobSeed struct {
	Reference     string  `json:"reference"`
	CompanyName   string  `json:"company_name"`
	Address       string  `json:"address"`
	Postcode      string  `json:"postcode"`
	Lat           float64 `json:"lat"`
	Lon           float64 `json:"lon"`
	Size          string  `json:"size"`
	PricePence    int64   `json:"price_pence"`
	ScheduledDate string  `json:"scheduled_date"`
	Status        string  `json:"status"`
}

// Populate a job repository with demo jobs from a JSON file.
func SeedFromJSON(ctx context.Context, repo ports.JobRepository, jsonPath string, loc *time.Location) error {
	bytes, err := os.ReadFile(jsonPath)
	if err != nil {
		return fmt.Errorf("seed jobs: read %q: %w", jsonPath, err)
	}

	var data []JobSeed
	if err := json.Unmarshal(bytes, &data); err != nil {
		return fmt.Errorf("seed jobs: parse json: %w", err)
	}

	jobs := make([]*domain.Job, 0, len(data))
	for i, item := range data {
		ref := strings.TrimSpace(item.Reference)
		if ref == "" {
			return fmt.Errorf("seed jobs: item at index %d: reference cannot be empty", i+1)
		}

		postcode := strings.TrimSpace(item.Postcode)
		if postcode == "" {
			return fmt.Errorf("seed jobs: item %s: postcode cannot be empty", ref)
		}

		date, err := domain.ParseDate(item.ScheduledDate, loc)
		if err != nil {
			return fmt.Errorf("seed jobs: item %s: scheduled_date: %w", ref, err)
		}

		status := domain.JobStatus(item.Status)
		if status == "" {
			status = domain.StatusScheduled
		}
		if !status.Valid() {
			return fmt.Errorf("seed jobs: item %s: invalid status %q", ref, item.Status)
		}

		jobs = append(jobs, &domain.Job{
			Reference:     ref,
			CompanyName:   item.CompanyName,
			Address:       item.Address,
			Postcode:      postcode,
			Coordinates:   domain.Coordinates{Lat: item.Lat, Lon: item.Lon},
			Size:          domain.ParseSizeCategory(item.Size),
			Price:         item.PricePence,
			ScheduledDate: date,
			Status:        status,
			CreatedAt:     time.Now(),
		})
	}

	for _, j := range jobs {
		if err := repo.SaveJob(ctx, j); err != nil {
			return fmt.Errorf("seed jobs: save %s: %w", j.Reference, err)
		}
	}

	return nil
}
