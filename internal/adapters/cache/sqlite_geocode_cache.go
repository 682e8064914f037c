package cache

import (
	"context"
	"crs-scheduling-service/internal/domain"
	"database/sql"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Keeps every statement well under SQLITE_MAX_VARIABLE_NUMBER.
const sqliteBatchSize = 200

// SqliteGeocodeCache maps normalized postcodes to coordinates in the
// geocode_cache table created by repositories.InitSchema.
type SqliteGeocodeCache struct {
	DB *sql.DB
}

func NewSqliteGeocodeCache(db *sql.DB) *SqliteGeocodeCache {
	return &SqliteGeocodeCache{DB: db}
}

func placeholders(n, perRow int) string {
	row := "(" + strings.TrimSuffix(strings.Repeat("?,", perRow), ",") + ")"
	if perRow == 1 {
		row = "?"
	}
	return strings.TrimSuffix(strings.Repeat(row+",", n), ",")
}

func (s *SqliteGeocodeCache) GetMany(ctx context.Context, postcodes []string) (map[string]domain.Coordinates, error) {
	if s.DB == nil {
		return nil, errors.New("geocode cache: db is nil")
	}

	uniq := uniqueKeys(postcodes)
	out := make(map[string]domain.Coordinates, len(uniq))

	for batch := range slices.Chunk(uniq, sqliteBatchSize) {
		args := make([]any, 0, len(batch))
		for _, p := range batch {
			args = append(args, p)
		}

		// Only placeholders are interpolated; values stay bound.
		q := `SELECT postcode, lat, lon FROM geocode_cache WHERE postcode IN (` + placeholders(len(batch), 1) + `);`

		if err := s.scanInto(ctx, out, q, args); err != nil {
			return nil, err
		}
	}

	return out, nil
}

func (s *SqliteGeocodeCache) scanInto(ctx context.Context, out map[string]domain.Coordinates, q string, args []any) error {
	rows, err := s.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("get geocode cache: query geocode_cache table: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var postcode string
		var c domain.Coordinates
		if err := rows.Scan(&postcode, &c.Lat, &c.Lon); err != nil {
			return fmt.Errorf("get geocode cache: scan rows: %w", err)
		}
		out[postcode] = c
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("get geocode cache: row iteration: %w", err)
	}
	return nil
}

// PutMany upserts mappings with one multi-row INSERT per batch inside a transaction.
func (s *SqliteGeocodeCache) PutMany(ctx context.Context, results map[string]domain.Coordinates) error {
	if s.DB == nil {
		return errors.New("geocode cache: db is nil")
	}
	if len(results) == 0 {
		return nil
	}

	keys := slices.Sorted(maps.Keys(results))

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("put geocode cache: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for batch := range slices.Chunk(keys, sqliteBatchSize) {
		args := make([]any, 0, 3*len(batch))
		for _, k := range batch {
			if strings.TrimSpace(k) == "" {
				return errors.New("put geocode cache: empty postcode key")
			}
			c := results[k]
			args = append(args, k, c.Lat, c.Lon)
		}

		q := `INSERT INTO geocode_cache (postcode, lat, lon) VALUES ` + placeholders(len(batch), 3) + `
		ON CONFLICT (postcode) DO UPDATE SET lat = excluded.lat, lon = excluded.lon;`

		if _, err := tx.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("put geocode cache: upsert batch of %d: %w", len(batch), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("put geocode cache: commit tx: %w", err)
	}
	return nil
}
