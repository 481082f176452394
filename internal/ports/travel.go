package ports

import (
	"context"

	"inspection-route-service/internal/domain"
)

// Contract for fetching travel costs from an external routing service.
type TravelProvider interface {
	// Return the travel cost for every requested directed pair, keyed by
	// the pair's cache key. One call may cover many pairs so resolvers can
	// bound external round-trips.
	BatchTravelCost(ctx context.Context, pairs []domain.PointPair) (map[string]domain.TravelCost, error)
}

// Contract for persistent travel cost caching keyed by directed pair key.
// Single lookups are expressed as one-element batches.
type TravelCache interface {
	// Return the cached costs found for the given keys. Missing keys are
	// simply absent from the result.
	GetMany(ctx context.Context, keys []string) (map[string]domain.TravelCost, error)
	// Store the given costs, overwriting existing entries.
	PutMany(ctx context.Context, costs map[string]domain.TravelCost) error
}
