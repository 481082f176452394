package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"inspection-route-service/internal/domain"
	"inspection-route-service/internal/platform/obs"
)

const redisKeyPrefix = "travel:"

// RedisTravelCache shares travel costs between service instances through
// Redis. Entries expire after the configured TTL so stale road data ages
// out on its own.
type RedisTravelCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisTravelCache(client *redis.Client, ttl time.Duration) *RedisTravelCache {
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &RedisTravelCache{client: client, ttl: ttl}
}

type redisCost struct {
	Km      float64 `json:"km"`
	Minutes int     `json:"minutes"`
}

// Fetch cached costs for the given pair keys.
func (r *RedisTravelCache) GetMany(ctx context.Context, keys []string) (map[string]domain.TravelCost, error) {
	if len(keys) == 0 {
		return map[string]domain.TravelCost{}, nil
	}

	full := make([]string, 0, len(keys))
	for _, k := range keys {
		full = append(full, redisKeyPrefix+k)
	}

	vals, err := r.client.MGet(ctx, full...).Result()
	if err != nil {
		return nil, fmt.Errorf("get travel cache: redis mget: %w", err)
	}

	out := make(map[string]domain.TravelCost, len(keys))
	for i, v := range vals {
		if v == nil {
			continue
		}
		s, ok := v.(string)
		if !ok {
			continue
		}

		var c redisCost
		if err := json.Unmarshal([]byte(s), &c); err != nil {
			// Unreadable entries count as misses; the write-back overwrites them.
			continue
		}
		out[keys[i]] = domain.TravelCost{Km: c.Km, Minutes: c.Minutes}
	}

	obs.CacheLookups.WithLabelValues("redis", "hit").Add(float64(len(out)))
	obs.CacheLookups.WithLabelValues("redis", "miss").Add(float64(len(keys) - len(out)))
	return out, nil
}

// Store many travel costs, overwriting existing entries.
func (r *RedisTravelCache) PutMany(ctx context.Context, costs map[string]domain.TravelCost) error {
	if len(costs) == 0 {
		return nil
	}

	pipe := r.client.Pipeline()
	for k, c := range costs {
		payload, err := json.Marshal(redisCost{Km: c.Km, Minutes: c.Minutes})
		if err != nil {
			return fmt.Errorf("insert travel cache: marshal %q: %w", k, err)
		}
		pipe.Set(ctx, redisKeyPrefix+k, payload, r.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("insert travel cache: redis pipeline: %w", err)
	}
	return nil
}
