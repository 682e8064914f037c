package config

import (
	"crs-scheduling-service/internal/domain"
	"crs-scheduling-service/internal/services"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the process configuration, read from the environment
// (optionally seeded from a .env file).
type Config struct {
	Port string

	// DatabaseURL selects PostgreSQL; when empty the SQLite file at DBPath is used.
	DatabaseURL string
	DBPath      string
	SeedPath    string

	RedisURL string
	ORSKey   string
	// Postcode table used when no ORS key is configured.
	PostcodesPath string
	// Outbound geocoding requests per second.
	GeocodeRPS float64

	EstimatesPath string

	Scheduler services.SchedulerConfig
}

// Get returns the value of key, or fallback when it is unset or blank.
func Get(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func GetFloat(key string, fallback float64) (float64, error) {
	v := Get(key, "")
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return f, nil
}

func GetInt(key string, fallback int) (int, error) {
	v := Get(key, "")
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return n, nil
}

// Load reads .env (if present) and then the environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}
	return FromEnv()
}

// FromEnv builds a Config from the current environment only.
func FromEnv() (Config, error) {
	sched := services.DefaultSchedulerConfig()

	cfg := Config{
		Port:          Get("PORT", "8080"),
		DatabaseURL:   Get("DATABASE_URL", ""),
		DBPath:        Get("DB_PATH", "data/app.db"),
		SeedPath:      Get("SEED_PATH", "data/seeds/jobs.json"),
		RedisURL:      Get("REDIS_URL", ""),
		ORSKey:        Get("ORS_API_KEY", ""),
		PostcodesPath: Get("POSTCODES_PATH", "data/seeds/postcodes.json"),
		EstimatesPath: Get("ESTIMATES_PATH", ""),
	}

	var err error
	if cfg.GeocodeRPS, err = GetFloat("GEOCODE_RPS", 5); err != nil {
		return Config{}, err
	}

	if sched.Depot.Lat, err = GetFloat("DEPOT_LAT", sched.Depot.Lat); err != nil {
		return Config{}, err
	}
	if sched.Depot.Lon, err = GetFloat("DEPOT_LON", sched.Depot.Lon); err != nil {
		return Config{}, err
	}
	if sched.ClusterRadiusKm, err = GetFloat("CLUSTER_RADIUS_KM", sched.ClusterRadiusKm); err != nil {
		return Config{}, err
	}
	if sched.ProximityRadiusKm, err = GetFloat("PROXIMITY_RADIUS_KM", sched.ProximityRadiusKm); err != nil {
		return Config{}, err
	}
	if sched.LookaheadDays, err = GetInt("LOOKAHEAD_DAYS", sched.LookaheadDays); err != nil {
		return Config{}, err
	}

	tz := Get("TIMEZONE", "Europe/London")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("unknown TIMEZONE=%q, falling back to UTC: %v", tz, err)
		loc = time.UTC
	}
	sched.Location = loc

	cfg.Scheduler = sched
	return cfg, nil
}

// Estimator returns the duration/materials table, from EstimatesPath when set.
func (c Config) Estimator() (*domain.Estimator, error) {
	if c.EstimatesPath == "" {
		return domain.DefaultEstimator(), nil
	}
	e, err := domain.LoadEstimator(c.EstimatesPath)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return e, nil
}
