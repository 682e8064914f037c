package geocode

import (
	"context"
	"crs-scheduling-service/internal/domain"
	"crs-scheduling-service/internal/platform/obs"
	"crs-scheduling-service/internal/ports"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

type geocodeResponse struct {
	Features []struct {
		Geometry struct {
			Coordinates []float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"features"`
}

// ORSGeocoder implements Geocoder using the OpenRouteService search API.
//
// It coordinates:
//   - Postcode normalization
//   - Read-through persistent caching
//   - De-duplication of concurrent lookups for the same postcode
//   - Outbound rate limiting and retry/backoff
//
// The geocoder is safe for concurrent use.
type ORSGeocoder struct {
	session     *http.Client
	apiKey      string
	baseURL     string
	country     string
	cache       ports.GeocodeCache
	limiter     *rate.Limiter
	group       singleflight.Group
	maxAttempts int
	backoff     time.Duration
}

// Upper bound on one de-duplicated lookup, retries included.
const sharedLookupTimeout = 30 * time.Second

type ORSOption func(*ORSGeocoder)

func WithBaseURL(u string) ORSOption { return func(o *ORSGeocoder) { o.baseURL = u } }

func WithCache(c ports.GeocodeCache) ORSOption { return func(o *ORSGeocoder) { o.cache = c } }

// WithRateLimit caps outbound requests per second; rps <= 0 disables the limit.
func WithRateLimit(rps float64) ORSOption {
	return func(o *ORSGeocoder) {
		if rps <= 0 {
			o.limiter = nil
			return
		}
		o.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

func WithRetry(attempts int, backoff time.Duration) ORSOption {
	return func(o *ORSGeocoder) {
		if attempts > 0 {
			o.maxAttempts = attempts
		}
		if backoff > 0 {
			o.backoff = backoff
		}
	}
}

func WithHTTPClient(c *http.Client) ORSOption { return func(o *ORSGeocoder) { o.session = c } }

func NewORSGeocoder(apiKey string, opts ...ORSOption) (*ORSGeocoder, error) {
	if apiKey == "" {
		return nil, errors.New("ORS api key is empty")
	}

	g := &ORSGeocoder{
		session:     &http.Client{Timeout: 10 * time.Second},
		apiKey:      apiKey,
		baseURL:     "https://api.openrouteservice.org",
		country:     "GB",
		limiter:     rate.NewLimiter(rate.Limit(5), 1),
		maxAttempts: 4,
		backoff:     200 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(g)
	}

	return g, nil
}

// Coordinates resolves a postcode, consulting the cache before the API.
func (o *ORSGeocoder) Coordinates(ctx context.Context, postcode string) (_ domain.Coordinates, err error) {
	defer obs.Time(ctx, "ors.Coordinates")(&err)

	norm := NormalizePostcode(postcode)
	if norm == "" {
		return domain.Coordinates{}, errors.New("geocode: postcode must be non-empty")
	}

	if o.cache != nil {
		hits, err := o.cache.GetMany(ctx, []string{norm})
		if err != nil {
			// A broken cache should not stop scheduling; fall through to the API.
			log.Printf("req_id=%s geocode cache read failed: %v", obs.RequestID(ctx), err)
			obs.GeocodeLookups.WithLabelValues("cache", "error").Inc()
		} else if c, ok := hits[norm]; ok {
			obs.GeocodeLookups.WithLabelValues("cache", "hit").Inc()
			return c, nil
		} else {
			obs.GeocodeLookups.WithLabelValues("cache", "miss").Inc()
		}
	}

	if err := ctx.Err(); err != nil {
		return domain.Coordinates{}, fmt.Errorf("geocode %q: %w", norm, err)
	}

	// The shared lookup outlives any single waiter; each caller stops
	// waiting when its own context ends.
	ch := o.group.DoChan(norm, func() (any, error) {
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedLookupTimeout)
		defer cancel()
		return o.search(sctx, norm)
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		obs.GeocodeLookups.WithLabelValues("remote", "abandoned").Inc()
		return domain.Coordinates{}, fmt.Errorf("geocode %q: %w", norm, ctx.Err())
	case res = <-ch:
	}
	if res.Err != nil {
		obs.GeocodeLookups.WithLabelValues("remote", "error").Inc()
		return domain.Coordinates{}, fmt.Errorf("geocode %q: %w", norm, res.Err)
	}
	obs.GeocodeLookups.WithLabelValues("remote", "ok").Inc()
	coords := res.Val.(domain.Coordinates)

	if o.cache != nil {
		if err := o.cache.PutMany(ctx, map[string]domain.Coordinates{norm: coords}); err != nil {
			log.Printf("req_id=%s geocode cache write failed: %v", obs.RequestID(ctx), err)
		}
	}

	return coords, nil
}

// search resolves a single postcode via /geocode/search.
func (o *ORSGeocoder) search(ctx context.Context, postcode string) (domain.Coordinates, error) {
	endpoint := o.baseURL + "/geocode/search"

	resp, err := o.doWithRetry(ctx, func() (*http.Request, error) {
		req, err := o.newRequest(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		q := req.URL.Query()
		q.Set("text", postcode)
		q.Set("boundary.country", o.country)
		q.Set("size", "1")
		req.URL.RawQuery = q.Encode()
		return req, nil
	})
	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.Coordinates{}, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var decoded geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return domain.Coordinates{}, fmt.Errorf("decode geocode response: %w", err)
	}

	if len(decoded.Features) == 0 {
		return domain.Coordinates{}, fmt.Errorf("no geocode results for %q: %w", postcode, ports.ErrUnknownPostcode)
	}

	coords := decoded.Features[0].Geometry.Coordinates
	if len(coords) != 2 {
		return domain.Coordinates{}, fmt.Errorf("invalid coordinate format for %q", postcode)
	}

	// ORS returns GeoJSON [lon, lat].
	return domain.Coordinates{Lon: coords[0], Lat: coords[1]}, nil
}
