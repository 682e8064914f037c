package cache

import (
	"context"
	"crs-scheduling-service/internal/domain"
	"crs-scheduling-service/internal/platform/obs"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// SQLGeocodeCache is a PostgreSQL-backed cache mapping postcodes to coordinates.
type SQLGeocodeCache struct {
	DB *sql.DB
}

func NewSQLGeocodeCache(db *sql.DB) *SQLGeocodeCache {
	return &SQLGeocodeCache{DB: db}
}

// Fetch cached coordinates for the given postcodes.
func (s *SQLGeocodeCache) GetMany(
	ctx context.Context,
	postcodes []string,
) (_ map[string]domain.Coordinates, err error) {
	defer obs.Time(ctx, "geocode.cache.GetMany")(&err)

	if s.DB == nil {
		return nil, errors.New("geocode cache: db is nil")
	}

	uniq := uniqueKeys(postcodes)
	if len(uniq) == 0 {
		return map[string]domain.Coordinates{}, nil
	}

	q := `
	SELECT postcode, lat, lon
    FROM geocode_cache
    WHERE postcode = ANY($1::text[]);
	`

	rows, err := s.DB.QueryContext(ctx, q, uniq)
	if err != nil {
		return nil, fmt.Errorf("get geocode cache: query geocode_cache table: %w", err)
	}
	defer rows.Close()

	out := make(map[string]domain.Coordinates, len(uniq))
	for rows.Next() {
		var postcode string
		var lat, lon float64
		if err := rows.Scan(&postcode, &lat, &lon); err != nil {
			return nil, fmt.Errorf("get geocode cache: scan rows: %w", err)
		}
		out[postcode] = domain.Coordinates{Lat: lat, Lon: lon}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get geocode cache: row iteration: %w", err)
	}

	return out, nil
}

// Upsert postcode -> coordinate mappings in a single statement by
// unnesting parallel arrays.
func (s *SQLGeocodeCache) PutMany(ctx context.Context, results map[string]domain.Coordinates) (err error) {
	defer obs.Time(ctx, "geocode.cache.PutMany")(&err)

	if s.DB == nil {
		return errors.New("geocode cache: db is nil")
	}
	if len(results) == 0 {
		return nil
	}

	postcodes := make([]string, 0, len(results))
	lats := make([]float64, 0, len(results))
	lons := make([]float64, 0, len(results))
	for postcode, c := range results {
		if strings.TrimSpace(postcode) == "" {
			return errors.New("put geocode cache: empty postcode key")
		}
		postcodes = append(postcodes, postcode)
		lats = append(lats, c.Lat)
		lons = append(lons, c.Lon)
	}

	q := `
	INSERT INTO geocode_cache (postcode, lat, lon)
	SELECT * FROM unnest($1::text[], $2::double precision[], $3::double precision[])
	ON CONFLICT (postcode) DO UPDATE
	SET lat = EXCLUDED.lat,
		lon = EXCLUDED.lon;
	`
	if _, err := s.DB.ExecContext(ctx, q, postcodes, lats, lons); err != nil {
		return fmt.Errorf("put geocode cache: upsert %d postcodes: %w", len(postcodes), err)
	}

	return nil
}

// uniqueKeys trims keys and drops blanks and duplicates, keeping first-seen order.
func uniqueKeys(keys []string) []string {
	seen := map[string]struct{}{}
	uniq := make([]string, 0, len(keys))
	for _, k := range keys {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}

		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		uniq = append(uniq, k)
	}
	return uniq
}
