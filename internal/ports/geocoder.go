package ports

import (
	"context"
	"crs-scheduling-service/internal/domain"
	"errors"
)

// ErrUnknownPostcode is returned (wrapped) when a postcode cannot be resolved.
var ErrUnknownPostcode = errors.New("unknown postcode")

// Contract for resolving a postcode to geographic coordinates.
type Geocoder interface {
	Coordinates(ctx context.Context, postcode string) (domain.Coordinates, error)
}

// Persistent postcode -> coordinate cache used by geocoders.
type GeocodeCache interface {
	GetMany(ctx context.Context, postcodes []string) (map[string]domain.Coordinates, error)
	PutMany(ctx context.Context, results map[string]domain.Coordinates) error
}
