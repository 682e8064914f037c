package geocode

import (
	"context"
	"crs-scheduling-service/internal/domain"
	"crs-scheduling-service/internal/ports"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapCache struct {
	mu     sync.Mutex
	m      map[string]domain.Coordinates
	getErr error
}

func newMapCache() *mapCache { return &mapCache{m: map[string]domain.Coordinates{}} }

func (c *mapCache) GetMany(_ context.Context, keys []string) (map[string]domain.Coordinates, error) {
	if c.getErr != nil {
		return nil, c.getErr
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	out := map[string]domain.Coordinates{}
	for _, k := range keys {
		if v, ok := c.m[k]; ok {
			out[k] = v
		}
	}
	return out, nil
}

func (c *mapCache) PutMany(_ context.Context, results map[string]domain.Coordinates) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, v := range results {
		c.m[k] = v
	}
	return nil
}

const featureBody = `{"features":[{"geometry":{"coordinates":[-1.519,52.407]}}]}`

func newTestORS(t *testing.T, srv *httptest.Server, opts ...ORSOption) *ORSGeocoder {
	t.Helper()
	opts = append([]ORSOption{
		WithBaseURL(srv.URL),
		WithHTTPClient(srv.Client()),
		WithRateLimit(0),
		WithRetry(3, time.Millisecond),
	}, opts...)

	g, err := NewORSGeocoder("test-key", opts...)
	require.NoError(t, err)
	return g
}

func TestNewORSGeocoderRequiresKey(t *testing.T) {
	_, err := NewORSGeocoder("")
	assert.Error(t, err)
}

func TestORSGeocoderSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/geocode/search", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "CV1 5FB", r.URL.Query().Get("text"))
		assert.Equal(t, "GB", r.URL.Query().Get("boundary.country"))
		assert.Equal(t, "1", r.URL.Query().Get("size"))
		_, _ = w.Write([]byte(featureBody))
	}))
	defer srv.Close()

	cache := newMapCache()
	g := newTestORS(t, srv, WithCache(cache))

	c, err := g.Coordinates(context.Background(), "cv1 5fb")
	require.NoError(t, err)
	assert.Equal(t, domain.Coordinates{Lat: 52.407, Lon: -1.519}, c)

	// Stored under the normalized key.
	assert.Equal(t, c, cache.m["CV1 5FB"])
}

func TestORSGeocoderUsesCache(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(featureBody))
	}))
	defer srv.Close()

	cache := newMapCache()
	cache.m["LE1 6TE"] = domain.Coordinates{Lat: 52.6339, Lon: -1.1323}
	g := newTestORS(t, srv, WithCache(cache))

	c, err := g.Coordinates(context.Background(), "LE1 6TE")
	require.NoError(t, err)
	assert.Equal(t, 52.6339, c.Lat)
	assert.Zero(t, hits.Load())

	_, err = g.Coordinates(context.Background(), "CV1 5FB")
	require.NoError(t, err)
	_, err = g.Coordinates(context.Background(), "CV1 5FB")
	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load())
}

func TestORSGeocoderCacheReadFailureFallsThrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(featureBody))
	}))
	defer srv.Close()

	cache := newMapCache()
	cache.getErr = errors.New("cache down")
	g := newTestORS(t, srv, WithCache(cache))

	_, err := g.Coordinates(context.Background(), "CV1 5FB")
	assert.NoError(t, err)
}

func TestORSGeocoderRetriesTransientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "slow down", http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(featureBody))
	}))
	defer srv.Close()

	g := newTestORS(t, srv)

	_, err := g.Coordinates(context.Background(), "CV1 5FB")
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestORSGeocoderDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad key", http.StatusForbidden)
	}))
	defer srv.Close()

	g := newTestORS(t, srv)

	_, err := g.Coordinates(context.Background(), "CV1 5FB")
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())

	var he *httpStatusError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusForbidden, he.Code)
}

func TestORSGeocoderGivesUpAfterMaxAttempts(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	g := newTestORS(t, srv)

	_, err := g.Coordinates(context.Background(), "CV1 5FB")
	require.Error(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestORSGeocoderNoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"features":[]}`))
	}))
	defer srv.Close()

	g := newTestORS(t, srv)

	_, err := g.Coordinates(context.Background(), "ZZ9 9ZZ")
	assert.ErrorIs(t, err, ports.ErrUnknownPostcode)
}

func TestORSGeocoderEmptyPostcode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request")
	}))
	defer srv.Close()

	_, err := newTestORS(t, srv).Coordinates(context.Background(), "  ")
	assert.Error(t, err)
}

func TestORSGeocoderContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestORS(t, srv, WithRetry(5, time.Hour)).Coordinates(ctx, "CV1 5FB")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestORSGeocoderCancelledCallerLeavesSharedLookupRunning(t *testing.T) {
	arrived := make(chan struct{}, 4)
	release := make(chan struct{})
	var once sync.Once
	releaseAll := func() { once.Do(func() { close(release) }) }

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		arrived <- struct{}{}
		<-release
		_, _ = w.Write([]byte(featureBody))
	}))
	defer srv.Close()
	defer releaseAll()

	g := newTestORS(t, srv)

	ctxA, cancelA := context.WithCancel(context.Background())
	errA := make(chan error, 1)
	go func() {
		_, err := g.Coordinates(ctxA, "CV1 5FB")
		errA <- err
	}()
	<-arrived

	type result struct {
		c   domain.Coordinates
		err error
	}
	resB := make(chan result, 1)
	go func() {
		c, err := g.Coordinates(context.Background(), "CV1 5FB")
		resB <- result{c, err}
	}()
	// Give the second caller time to join the in-flight lookup.
	time.Sleep(20 * time.Millisecond)

	cancelA()
	assert.ErrorIs(t, <-errA, context.Canceled)

	releaseAll()
	r := <-resB
	require.NoError(t, r.err)
	assert.Equal(t, domain.Coordinates{Lat: 52.407, Lon: -1.519}, r.c)
}

func TestParseRetryAfter(t *testing.T) {
	assert.Equal(t, 2*time.Second, parseRetryAfter("2"))
	assert.Zero(t, parseRetryAfter(""))
	assert.Zero(t, parseRetryAfter("-1"))
	assert.Zero(t, parseRetryAfter("Wed, 21 Oct 2015 07:28:00 GMT"))
}
