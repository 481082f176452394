package services

import (
	"context"
	"fmt"
	"log"
	"sync"

	"inspection-route-service/internal/domain"
	"inspection-route-service/internal/ports"
)

// flight is one in-progress provider fetch for a single pair key. Callers
// that miss on a key already in flight wait on done instead of issuing a
// second external call.
type flight struct {
	done chan struct{}
	cost domain.TravelCost
	err  error
}

// TravelResolver answers travel cost lookups cache-first, falling back to
// the external provider for misses and writing fresh results back.
//
// Concurrent misses on the same pair key coalesce into a single provider
// call; all misses of one ResolvePairs invocation are batched into one
// provider request. The resolver is safe for concurrent use.
type TravelResolver struct {
	cache    ports.TravelCache
	provider ports.TravelProvider

	mu       sync.Mutex
	inflight map[string]*flight
}

// NewTravelResolver builds a resolver. cache may be nil, in which case
// every lookup goes to the provider.
func NewTravelResolver(cache ports.TravelCache, provider ports.TravelProvider) *TravelResolver {
	return &TravelResolver{
		cache:    cache,
		provider: provider,
		inflight: make(map[string]*flight),
	}
}

// Resolve returns the travel cost for a single directed pair. Identical
// points resolve to a zero cost without any I/O.
func (r *TravelResolver) Resolve(ctx context.Context, from, to domain.Point) (domain.TravelCost, error) {
	if from.Key() == to.Key() {
		return domain.TravelCost{}, nil
	}

	pair := domain.PointPair{From: from, To: to}
	costs, err := r.ResolvePairs(ctx, []domain.PointPair{pair})
	if err != nil {
		return domain.TravelCost{}, err
	}

	c, ok := costs[pair.Key()]
	if !ok {
		return domain.TravelCost{}, fmt.Errorf("resolve travel cost %s: no result", pair.Key())
	}
	return c, nil
}

// ResolvePairs returns travel costs for the given directed pairs, keyed by
// pair key. Cache hits gathered before a provider failure are still
// returned alongside the error, so callers can substitute estimates for
// the remaining pairs.
func (r *TravelResolver) ResolvePairs(ctx context.Context, pairs []domain.PointPair) (map[string]domain.TravelCost, error) {
	out := make(map[string]domain.TravelCost, len(pairs))
	if len(pairs) == 0 {
		return out, nil
	}

	byKey := make(map[string]domain.PointPair, len(pairs))
	keys := make([]string, 0, len(pairs))
	for _, p := range pairs {
		k := p.Key()
		if p.From.Key() == p.To.Key() {
			out[k] = domain.TravelCost{}
			continue
		}
		if _, ok := byKey[k]; ok {
			continue
		}
		byKey[k] = p
		keys = append(keys, k)
	}

	if len(keys) == 0 {
		return out, nil
	}

	var hits map[string]domain.TravelCost
	if r.cache != nil {
		var err error
		hits, err = r.cache.GetMany(ctx, keys)
		if err != nil {
			// A broken cache degrades to a full miss rather than failing the run.
			log.Printf("travel cache read failed: %v", err)
			hits = nil
		}
	}

	misses := make([]string, 0, len(keys))
	for _, k := range keys {
		if c, ok := hits[k]; ok {
			out[k] = c
			continue
		}
		misses = append(misses, k)
	}

	if len(misses) == 0 {
		return out, nil
	}

	// Partition misses into pairs this call will fetch and pairs already in
	// flight elsewhere.
	owned := make([]string, 0, len(misses))
	ownedPairs := make([]domain.PointPair, 0, len(misses))
	joined := make(map[string]*flight)

	r.mu.Lock()
	for _, k := range misses {
		if f, ok := r.inflight[k]; ok {
			joined[k] = f
			continue
		}
		f := &flight{done: make(chan struct{})}
		r.inflight[k] = f
		owned = append(owned, k)
		ownedPairs = append(ownedPairs, byKey[k])
	}
	r.mu.Unlock()

	var firstErr error

	if len(owned) > 0 {
		fetched, err := r.provider.BatchTravelCost(ctx, ownedPairs)
		if err == nil {
			for _, k := range owned {
				if _, ok := fetched[k]; !ok {
					err = fmt.Errorf("provider returned no cost for pair %s", k)
					break
				}
			}
		}

		r.mu.Lock()
		for _, k := range owned {
			f := r.inflight[k]
			if err != nil {
				f.err = err
			} else {
				f.cost = fetched[k]
			}
			delete(r.inflight, k)
			close(f.done)
		}
		r.mu.Unlock()

		if err != nil {
			firstErr = err
		} else {
			writeBack := make(map[string]domain.TravelCost, len(owned))
			for _, k := range owned {
				out[k] = fetched[k]
				writeBack[k] = fetched[k]
			}
			if r.cache != nil {
				if err := r.cache.PutMany(ctx, writeBack); err != nil {
					log.Printf("travel cache write failed: %v", err)
				}
			}
		}
	}

	for k, f := range joined {
		select {
		case <-f.done:
			if f.err != nil {
				if firstErr == nil {
					firstErr = f.err
				}
				continue
			}
			out[k] = f.cost
		case <-ctx.Done():
			return out, ctx.Err()
		}
	}

	if firstErr != nil {
		return out, fmt.Errorf("resolve travel costs: %w", firstErr)
	}
	return out, nil
}
