package geocode

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"

	"najah-search-go/internal/extractor"
	"najah-search-go/internal/model"
	"najah-search-go/pkg/log"
)

// cachedEntry is the Redis value for a resolved (or known-missing) place.
type cachedEntry struct {
	Found      bool                  `json:"found"`
	Coords     *model.GeoCoordinates `json:"coords,omitempty"`
	Confidence float64               `json:"confidence,omitempty"`
}

// redisCache is the slice of the redis client the resolver uses.
// *redis.Client satisfies it.
type redisCache interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// CachedResolver decorates a CoordinateResolver with a Redis cache so the
// same place name is not geocoded twice across a batch. Cache trouble falls
// through to the inner resolver; only resolver errors stay uncached, so a
// transient failure can be retried on the next mention.
type CachedResolver struct {
	inner extractor.CoordinateResolver
	rdb   redisCache
	ttl   time.Duration
}

// NewCachedResolver wraps inner with a Redis cache using the given TTL.
func NewCachedResolver(inner extractor.CoordinateResolver, rdb redisCache, ttl time.Duration) *CachedResolver {
	return &CachedResolver{inner: inner, rdb: rdb, ttl: ttl}
}

func cacheKey(placeName string) string {
	return "geocode:" + strings.ToLower(strings.TrimSpace(placeName))
}

// Resolve implements extractor.CoordinateResolver.
func (r *CachedResolver) Resolve(ctx context.Context, placeName string) (*model.GeoCoordinates, float64, error) {
	key := cacheKey(placeName)

	if payload, err := r.rdb.Get(ctx, key).Result(); err == nil {
		var entry cachedEntry
		if json.Unmarshal([]byte(payload), &entry) == nil {
			if !entry.Found {
				return nil, 0, nil
			}
			return entry.Coords, entry.Confidence, nil
		}
	} else if err != redis.Nil {
		log.Warnf("[Geocode] cache read failed for %q: %v", placeName, err)
	}

	coords, confidence, err := r.inner.Resolve(ctx, placeName)
	if err != nil {
		return nil, 0, err
	}

	entry := cachedEntry{Found: coords != nil, Coords: coords, Confidence: confidence}
	if payload, merr := json.Marshal(entry); merr == nil {
		if serr := r.rdb.Set(ctx, key, payload, r.ttl).Err(); serr != nil {
			log.Warnf("[Geocode] cache write failed for %q: %v", placeName, serr)
		}
	}
	return coords, confidence, nil
}
