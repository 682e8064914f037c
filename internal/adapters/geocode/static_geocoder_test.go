package geocode

import (
	"context"
	"crs-scheduling-service/internal/domain"
	"crs-scheduling-service/internal/ports"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePostcode(t *testing.T) {
	assert.Equal(t, "CV1 5FB", NormalizePostcode("  cv1   5fb "))
	assert.Equal(t, "LE16TE", NormalizePostcode("le16te"))
	assert.Equal(t, "", NormalizePostcode("   "))
}

func TestStaticGeocoder(t *testing.T) {
	g := NewStaticGeocoder(map[string]domain.Coordinates{
		"cv1 5fb": {Lat: 52.4070, Lon: -1.5190},
	})

	c, err := g.Coordinates(context.Background(), "CV1  5FB")
	require.NoError(t, err)
	assert.Equal(t, domain.Coordinates{Lat: 52.4070, Lon: -1.5190}, c)

	_, err = g.Coordinates(context.Background(), "ZZ9 9ZZ")
	assert.ErrorIs(t, err, ports.ErrUnknownPostcode)
}

func TestLoadStaticGeocoder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "postcodes.json")
	body := `{"LE1 6TE": {"lat": 52.6339, "lon": -1.1323}}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	g, err := LoadStaticGeocoder(path)
	require.NoError(t, err)

	c, err := g.Coordinates(context.Background(), "le1 6te")
	require.NoError(t, err)
	assert.Equal(t, domain.Coordinates{Lat: 52.6339, Lon: -1.1323}, c)

	_, err = LoadStaticGeocoder(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
