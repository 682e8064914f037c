package geocode

import (
	"context"
	"crs-scheduling-service/internal/domain"
	"crs-scheduling-service/internal/ports"
	"encoding/json"
	"fmt"
	"os"
)

// StaticGeocoder resolves postcodes from a fixed table. Used in tests and
// when no geocoding API key is configured.
type StaticGeocoder struct {
	m map[string]domain.Coordinates
}

func NewStaticGeocoder(table map[string]domain.Coordinates) *StaticGeocoder {
	m := make(map[string]domain.Coordinates, len(table))
	for k, v := range table {
		m[NormalizePostcode(k)] = v
	}
	return &StaticGeocoder{m: m}
}

func (g *StaticGeocoder) Coordinates(ctx context.Context, postcode string) (domain.Coordinates, error) {
	c, ok := g.m[NormalizePostcode(postcode)]
	if !ok {
		return domain.Coordinates{}, fmt.Errorf("static geocoder %q: %w", postcode, ports.ErrUnknownPostcode)
	}
	return c, nil
}

type tableEntry struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// LoadStaticGeocoder reads a {"POSTCODE": {"lat": .., "lon": ..}} JSON table.
func LoadStaticGeocoder(path string) (*StaticGeocoder, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load postcode table %q: %w", path, err)
	}

	var raw map[string]tableEntry
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("load postcode table %q: parse json: %w", path, err)
	}

	table := make(map[string]domain.Coordinates, len(raw))
	for k, v := range raw {
		table[k] = domain.Coordinates{Lat: v.Lat, Lon: v.Lon}
	}
	return NewStaticGeocoder(table), nil
}
