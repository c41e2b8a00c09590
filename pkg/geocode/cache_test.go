package geocode

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"najah-search-go/internal/model"
)

// fakeRedis is an in-memory stand-in for the Get/Set slice of the client.
type fakeRedis struct {
	store   map[string]string
	getErr  error
	lastTTL time.Duration
	sets    int
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{store: map[string]string{}}
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	if f.getErr != nil {
		return redis.NewStringResult("", f.getErr)
	}
	v, ok := f.store[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(_ context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	f.sets++
	f.lastTTL = expiration
	switch v := value.(type) {
	case []byte:
		f.store[key] = string(v)
	case string:
		f.store[key] = v
	}
	return redis.NewStatusResult("OK", nil)
}

// countingResolver records calls and replays a fixed answer.
type countingResolver struct {
	coords     *model.GeoCoordinates
	confidence float64
	err        error
	calls      int
}

func (c *countingResolver) Resolve(context.Context, string) (*model.GeoCoordinates, float64, error) {
	c.calls++
	return c.coords, c.confidence, c.err
}

func TestCachedResolve_HitSkipsInnerResolver(t *testing.T) {
	inner := &countingResolver{coords: &model.GeoCoordinates{Lat: 32.2211, Lon: 35.2544}, confidence: 0.72}
	rdb := newFakeRedis()
	r := NewCachedResolver(inner, rdb, time.Hour)

	coords, confidence, err := r.Resolve(context.Background(), "Nablus")
	require.NoError(t, err)
	require.NotNil(t, coords)
	assert.Equal(t, 1, inner.calls)
	assert.Equal(t, 1, rdb.sets)
	assert.Equal(t, time.Hour, rdb.lastTTL)

	coords, confidence, err = r.Resolve(context.Background(), "  NABLUS ")
	require.NoError(t, err)
	require.NotNil(t, coords)
	assert.InDelta(t, 32.2211, coords.Lat, 1e-6)
	assert.InDelta(t, 0.72, confidence, 1e-9)
	assert.Equal(t, 1, inner.calls, "the second lookup must come from the cache")
}

func TestCachedResolve_UnknownPlaceCachedNegatively(t *testing.T) {
	inner := &countingResolver{}
	r := NewCachedResolver(inner, newFakeRedis(), time.Hour)

	coords, confidence, err := r.Resolve(context.Background(), "Nowhereville")
	require.NoError(t, err)
	assert.Nil(t, coords)
	assert.Zero(t, confidence)

	_, _, err = r.Resolve(context.Background(), "Nowhereville")
	require.NoError(t, err)
	assert.Equal(t, 1, inner.calls, "a known-missing place is not re-geocoded")
}

func TestCachedResolve_ResolverErrorNotCached(t *testing.T) {
	inner := &countingResolver{err: errors.New("geocoder timeout")}
	rdb := newFakeRedis()
	r := NewCachedResolver(inner, rdb, time.Hour)

	_, _, err := r.Resolve(context.Background(), "Nablus")
	require.Error(t, err)
	assert.Equal(t, 0, rdb.sets, "failures must stay uncached")

	inner.err = nil
	inner.coords = &model.GeoCoordinates{Lat: 32.2211, Lon: 35.2544}
	coords, _, err := r.Resolve(context.Background(), "Nablus")
	require.NoError(t, err, "the next mention retries the resolver")
	require.NotNil(t, coords)
	assert.Equal(t, 2, inner.calls)
}

func TestCachedResolve_CacheReadFailureFallsThrough(t *testing.T) {
	inner := &countingResolver{coords: &model.GeoCoordinates{Lat: 31.9, Lon: 35.2}, confidence: 0.5}
	rdb := newFakeRedis()
	rdb.getErr = errors.New("redis: connection refused")
	r := NewCachedResolver(inner, rdb, time.Hour)

	coords, _, err := r.Resolve(context.Background(), "Jerusalem")
	require.NoError(t, err, "cache trouble must not fail resolution")
	require.NotNil(t, coords)
	assert.Equal(t, 1, inner.calls)
}
