package cache

import (
	"context"
	"sync"

	"inspection-route-service/internal/domain"
	"inspection-route-service/internal/platform/obs"
)

// MemoryTravelCache is an in-process travel cost cache. It backs tests and
// deployments without any cache infrastructure; entries live until the
// process exits.
type MemoryTravelCache struct {
	mu sync.RWMutex
	m  map[string]domain.TravelCost
}

func NewMemoryTravelCache() *MemoryTravelCache {
	return &MemoryTravelCache{m: make(map[string]domain.TravelCost)}
}

func (c *MemoryTravelCache) GetMany(ctx context.Context, keys []string) (map[string]domain.TravelCost, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]domain.TravelCost, len(keys))
	for _, k := range keys {
		if v, ok := c.m[k]; ok {
			out[k] = v
		}
	}

	obs.CacheLookups.WithLabelValues("memory", "hit").Add(float64(len(out)))
	obs.CacheLookups.WithLabelValues("memory", "miss").Add(float64(len(keys) - len(out)))
	return out, nil
}

func (c *MemoryTravelCache) PutMany(ctx context.Context, costs map[string]domain.TravelCost) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for k, v := range costs {
		c.m[k] = v
	}
	return nil
}
