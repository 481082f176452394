package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inspection-route-service/internal/adapters/cache"
	"inspection-route-service/internal/adapters/distance"
	"inspection-route-service/internal/domain"
)

var (
	pointA = domain.Point{Lng: 12.00, Lat: 55.60}
	pointB = domain.Point{Lng: 12.01, Lat: 55.61}
	pointC = domain.Point{Lng: 12.02, Lat: 55.62}
)

func TestResolveCachesProviderResults(t *testing.T) {
	provider := distance.NewMockTravelProvider([]distance.MockPair{
		{From: pointA, To: pointB, Km: 4.2, Minutes: 9},
	})
	r := NewTravelResolver(cache.NewMemoryTravelCache(), provider)

	first, err := r.Resolve(context.Background(), pointA, pointB)
	require.NoError(t, err)
	assert.Equal(t, domain.TravelCost{Km: 4.2, Minutes: 9}, first)

	second, err := r.Resolve(context.Background(), pointA, pointB)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	assert.Equal(t, 1, provider.Calls(), "second lookup must come from the cache")
}

func TestResolveWritesBack(t *testing.T) {
	provider := distance.NewMockTravelProvider([]distance.MockPair{
		{From: pointA, To: pointB, Km: 4.2, Minutes: 9},
	})
	mem := cache.NewMemoryTravelCache()
	r := NewTravelResolver(mem, provider)

	_, err := r.Resolve(context.Background(), pointA, pointB)
	require.NoError(t, err)

	key := domain.PairKey(pointA, pointB)
	stored, err := mem.GetMany(context.Background(), []string{key})
	require.NoError(t, err)
	assert.Equal(t, domain.TravelCost{Km: 4.2, Minutes: 9}, stored[key])
}

func TestResolveConcurrentLookupsCoalesce(t *testing.T) {
	provider := distance.NewMockTravelProvider([]distance.MockPair{
		{From: pointA, To: pointB, Km: 4.2, Minutes: 9},
	})
	provider.Delay = 50 * time.Millisecond
	r := NewTravelResolver(cache.NewMemoryTravelCache(), provider)

	const n = 8
	start := make(chan struct{})
	results := make([]domain.TravelCost, n)
	errs := make([]error, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			results[i], errs[i] = r.Resolve(context.Background(), pointA, pointB)
		}(i)
	}
	close(start)
	wg.Wait()

	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, domain.TravelCost{Km: 4.2, Minutes: 9}, results[i])
	}
	assert.Equal(t, 1, provider.Calls(), "concurrent misses on one pair must share a single provider call")
}

func TestResolvePairsBatchesMisses(t *testing.T) {
	provider := distance.NewMockTravelProvider([]distance.MockPair{
		{From: pointA, To: pointB, Km: 4.2, Minutes: 9},
		{From: pointA, To: pointC, Km: 6.1, Minutes: 13},
		{From: pointB, To: pointC, Km: 2.0, Minutes: 5},
	})
	r := NewTravelResolver(cache.NewMemoryTravelCache(), provider)

	pairs := []domain.PointPair{
		{From: pointA, To: pointB},
		{From: pointA, To: pointC},
		{From: pointB, To: pointC},
		{From: pointA, To: pointB}, // duplicate
	}
	costs, err := r.ResolvePairs(context.Background(), pairs)
	require.NoError(t, err)
	assert.Len(t, costs, 3)

	assert.Equal(t, 1, provider.Calls(), "all misses of one call travel in one batch")
	assert.Equal(t, 3, provider.PairsSeen(), "duplicates are collapsed before the provider sees them")
}

func TestResolveIdenticalPointsSkipIO(t *testing.T) {
	provider := distance.NewMockTravelProvider(nil)
	r := NewTravelResolver(cache.NewMemoryTravelCache(), provider)

	c, err := r.Resolve(context.Background(), pointA, pointA)
	require.NoError(t, err)
	assert.Equal(t, domain.TravelCost{}, c)
	assert.Equal(t, 0, provider.Calls())
}

func TestResolveNilCacheGoesToProvider(t *testing.T) {
	provider := distance.NewMockTravelProvider([]distance.MockPair{
		{From: pointA, To: pointB, Km: 4.2, Minutes: 9},
	})
	r := NewTravelResolver(nil, provider)

	_, err := r.Resolve(context.Background(), pointA, pointB)
	require.NoError(t, err)
	_, err = r.Resolve(context.Background(), pointA, pointB)
	require.NoError(t, err)

	assert.Equal(t, 2, provider.Calls(), "without a cache every lookup is a provider call")
}

func TestResolveProviderFailureKeepsCacheHits(t *testing.T) {
	provider := distance.NewMockTravelProvider(nil)
	provider.Err = fmt.Errorf("%w: matrix service down", domain.ErrProviderUnavailable)

	mem := cache.NewMemoryTravelCache()
	keyAB := domain.PairKey(pointA, pointB)
	require.NoError(t, mem.PutMany(context.Background(), map[string]domain.TravelCost{
		keyAB: {Km: 4.2, Minutes: 9},
	}))

	r := NewTravelResolver(mem, provider)
	costs, err := r.ResolvePairs(context.Background(), []domain.PointPair{
		{From: pointA, To: pointB},
		{From: pointA, To: pointC},
	})

	assert.ErrorIs(t, err, domain.ErrProviderUnavailable)
	assert.Equal(t, domain.TravelCost{Km: 4.2, Minutes: 9}, costs[keyAB],
		"cache hits gathered before the failure stay in the result")
	assert.NotContains(t, costs, domain.PairKey(pointA, pointC))
}

func TestResolvePairsEmptyInput(t *testing.T) {
	provider := distance.NewMockTravelProvider(nil)
	r := NewTravelResolver(cache.NewMemoryTravelCache(), provider)

	costs, err := r.ResolvePairs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, costs)
	assert.Equal(t, 0, provider.Calls())
}
