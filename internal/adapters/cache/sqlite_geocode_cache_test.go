package cache

import (
	"context"
	"crs-scheduling-service/internal/adapters/repositories"
	"crs-scheduling-service/internal/domain"
	"crs-scheduling-service/internal/platform/db"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSqliteGeocodeCache(t *testing.T) {
	ctx := context.Background()

	conn, err := db.OpenSQLite(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, repositories.InitSchema(conn))

	c := NewSqliteGeocodeCache(conn)

	got, err := c.GetMany(ctx, []string{"CV1 5FB"})
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, c.PutMany(ctx, map[string]domain.Coordinates{
		"CV1 5FB": {Lat: 52.4070, Lon: -1.5190},
		"LE1 6TE": {Lat: 52.6339, Lon: -1.1323},
	}))
	// Replacing an entry keeps a single row.
	require.NoError(t, c.PutMany(ctx, map[string]domain.Coordinates{
		"LE1 6TE": {Lat: 52.6340, Lon: -1.1320},
	}))

	got, err = c.GetMany(ctx, []string{"CV1 5FB", "LE1 6TE", "B1 1BB"})
	require.NoError(t, err)
	assert.Equal(t, map[string]domain.Coordinates{
		"CV1 5FB": {Lat: 52.4070, Lon: -1.5190},
		"LE1 6TE": {Lat: 52.6340, Lon: -1.1320},
	}, got)
}

func TestSqliteGeocodeCacheLargeBatch(t *testing.T) {
	ctx := context.Background()

	conn, err := db.OpenSQLite(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, repositories.InitSchema(conn))

	c := NewSqliteGeocodeCache(conn)

	in := make(map[string]domain.Coordinates, 450)
	keys := make([]string, 0, 450)
	for i := 0; i < 450; i++ {
		k := fmt.Sprintf("CV%d 1AA", i)
		in[k] = domain.Coordinates{Lat: 52 + float64(i)/1000, Lon: -1.5}
		keys = append(keys, k)
	}
	require.NoError(t, c.PutMany(ctx, in))

	got, err := c.GetMany(ctx, keys)
	require.NoError(t, err)
	assert.Equal(t, in, got)

	assert.Error(t, c.PutMany(ctx, map[string]domain.Coordinates{"": {}}))
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, "?,?,?", placeholders(3, 1))
	assert.Equal(t, "(?,?,?),(?,?,?)", placeholders(2, 3))
}

func TestUniqueKeys(t *testing.T) {
	assert.Equal(t, []string{"A", "B"}, uniqueKeys([]string{"A", " ", "B", "A", ""}))
}
