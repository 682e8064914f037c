package cache

import (
	"context"
	"crs-scheduling-service/internal/domain"
	"crs-scheduling-service/internal/platform/obs"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"
)

const geocodeKeyPrefix = "geocode:"

// RedisGeocodeCache stores postcode -> coordinate mappings in Redis with a TTL.
type RedisGeocodeCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisGeocodeCache connects to the Redis server at url (redis://...).
func NewRedisGeocodeCache(url string, ttl time.Duration) (*RedisGeocodeCache, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis geocode cache: parse url: %w", err)
	}
	return NewRedisGeocodeCacheFromClient(redis.NewClient(opt), ttl), nil
}

func NewRedisGeocodeCacheFromClient(rdb *redis.Client, ttl time.Duration) *RedisGeocodeCache {
	return &RedisGeocodeCache{rdb: rdb, ttl: ttl}
}

func (c *RedisGeocodeCache) key(postcode string) string { return geocodeKeyPrefix + postcode }

// Fetch cached coordinates for the given postcodes; missing keys are omitted.
func (c *RedisGeocodeCache) GetMany(
	ctx context.Context,
	postcodes []string,
) (_ map[string]domain.Coordinates, err error) {
	defer obs.Time(ctx, "geocode.redis.GetMany")(&err)

	if c.rdb == nil {
		return nil, errors.New("geocode cache: redis client is nil")
	}

	uniq := uniqueKeys(postcodes)
	if len(uniq) == 0 {
		return map[string]domain.Coordinates{}, nil
	}

	keys := make([]string, 0, len(uniq))
	for _, p := range uniq {
		keys = append(keys, c.key(p))
	}

	vals, err := c.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("get geocode cache: mget: %w", err)
	}

	out := make(map[string]domain.Coordinates, len(uniq))
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			continue
		}
		var coords domain.Coordinates
		if err := json.Unmarshal([]byte(s), &coords); err != nil {
			return nil, fmt.Errorf("get geocode cache: decode %q: %w", uniq[i], err)
		}
		out[uniq[i]] = coords
	}

	return out, nil
}

// Store postcode -> coordinate mappings, each with the cache TTL.
func (c *RedisGeocodeCache) PutMany(ctx context.Context, results map[string]domain.Coordinates) error {
	if c.rdb == nil {
		return errors.New("geocode cache: redis client is nil")
	}

	if len(results) == 0 {
		return nil
	}

	pipe := c.rdb.TxPipeline()
	for postcode, coords := range results {
		if strings.TrimSpace(postcode) == "" {
			return fmt.Errorf("insert geocode cache: empty postcode key")
		}

		b, err := json.Marshal(coords)
		if err != nil {
			return fmt.Errorf("insert geocode cache postcode=%q: encode: %w", postcode, err)
		}
		pipe.Set(ctx, c.key(postcode), b, c.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("insert geocode cache: exec pipeline: %w", err)
	}

	return nil
}

func (c *RedisGeocodeCache) Close() error { return c.rdb.Close() }
