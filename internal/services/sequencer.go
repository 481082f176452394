package services

import (
	"context"
	"errors"
	"fmt"
	"math"

	"inspection-route-service/internal/domain"
)

// Route searches switch from exhaustive enumeration to a greedy heuristic
// above this stop count; factorial growth stops being worth the CPU there.
const exactSearchLimit = 7

// SequencedRoute is a chosen visiting order together with the per-leg
// travel costs the search already paid for, so scheduling can reuse them
// without resolving anything twice.
type SequencedRoute struct {
	Stops              []domain.Stop
	Legs               []domain.TravelCost
	TotalKm            float64
	TotalTravelMinutes int
	Degraded           bool
}

// SequenceRoute chooses the visiting order for one inspector's stops.
//
// Small stop sets are solved exactly by enumerating every ordering; larger
// sets fall back to a greedy nearest-neighbor walk. Both minimize total
// travel minutes over an open path starting at home, with no return leg.
// All pairwise costs are resolved once up front and memoized for the whole
// search. When the routing provider is unavailable the missing pairs are
// filled with straight-line estimates and the result is marked degraded.
func SequenceRoute(ctx context.Context, home domain.Point, stops []domain.Stop, resolver *TravelResolver) (*SequencedRoute, error) {
	if home.IsZero() {
		return nil, fmt.Errorf("sequence route: %w: home point must carry coordinates", domain.ErrInvalidInput)
	}

	if len(stops) == 0 {
		return &SequencedRoute{Stops: []domain.Stop{}, Legs: []domain.TravelCost{}}, nil
	}

	for _, s := range stops {
		if s.Point.IsZero() {
			return nil, fmt.Errorf("sequence route: %w: stop %s has no coordinates", domain.ErrInvalidInput, s.ID)
		}
	}

	pairs := routePairs(home, stops)

	costs, err := resolver.ResolvePairs(ctx, pairs)
	degraded := false
	if err != nil {
		if !errors.Is(err, domain.ErrProviderUnavailable) {
			return nil, fmt.Errorf("sequence route: %w", err)
		}

		// Fill the gaps with straight-line estimates so one provider outage
		// does not sink the whole run.
		if costs == nil {
			costs = make(map[string]domain.TravelCost, len(pairs))
		}
		for _, p := range pairs {
			if _, ok := costs[p.Key()]; !ok {
				costs[p.Key()] = EstimateTravelCost(p.From, p.To)
			}
		}
		degraded = true
	}

	var order []int
	if len(stops) <= exactSearchLimit {
		order = exactOrder(home, stops, costs)
	} else {
		order = nearestNeighborOrder(home, stops, costs)
	}

	ordered := make([]domain.Stop, 0, len(stops))
	legs := make([]domain.TravelCost, 0, len(stops))
	totalKm := 0.0
	totalMinutes := 0

	prev := home
	for _, idx := range order {
		s := stops[idx]
		leg := costs[domain.PairKey(prev, s.Point)]

		ordered = append(ordered, s)
		legs = append(legs, leg)
		totalKm += leg.Km
		totalMinutes += leg.Minutes
		prev = s.Point
	}

	return &SequencedRoute{
		Stops:              ordered,
		Legs:               legs,
		TotalKm:            totalKm,
		TotalTravelMinutes: totalMinutes,
		Degraded:           degraded,
	}, nil
}

// routePairs lists every directed pair the search may consult: home to each
// stop, and stop to stop in both directions. Routes are open paths, so no
// pair points back home.
func routePairs(home domain.Point, stops []domain.Stop) []domain.PointPair {
	pairs := make([]domain.PointPair, 0, len(stops)*len(stops))
	for _, s := range stops {
		pairs = append(pairs, domain.PointPair{From: home, To: s.Point})
	}
	for i := range stops {
		for j := range stops {
			if i == j {
				continue
			}
			pairs = append(pairs, domain.PointPair{From: stops[i].Point, To: stops[j].Point})
		}
	}
	return pairs
}

// exactOrder evaluates every visiting order and returns the cheapest one by
// total travel minutes. Orders are enumerated depth-first in input index
// order and only a strictly cheaper candidate replaces the current best, so
// equal-cost orders always resolve to the first one encountered.
func exactOrder(home domain.Point, stops []domain.Stop, costs map[string]domain.TravelCost) []int {
	n := len(stops)
	best := make([]int, 0, n)
	bestTotal := math.MaxInt

	perm := make([]int, 0, n)
	used := make([]bool, n)

	var walk func(prev domain.Point, total int)
	walk = func(prev domain.Point, total int) {
		// Legs only add cost, so a partial order at or above the best
		// complete one cannot improve on it.
		if total >= bestTotal {
			return
		}
		if len(perm) == n {
			bestTotal = total
			best = append(best[:0], perm...)
			return
		}
		for i := 0; i < n; i++ {
			if used[i] {
				continue
			}
			leg := costs[domain.PairKey(prev, stops[i].Point)].Minutes

			used[i] = true
			perm = append(perm, i)
			walk(stops[i].Point, total+leg)
			perm = perm[:len(perm)-1]
			used[i] = false
		}
	}
	walk(home, 0)

	return best
}

// nearestNeighborOrder greedily picks the closest unvisited stop at each
// step. It does not attempt global optimization; determinism and bounded
// cost matter more at this size.
func nearestNeighborOrder(home domain.Point, stops []domain.Stop, costs map[string]domain.TravelCost) []int {
	n := len(stops)
	order := make([]int, 0, n)
	visited := make([]bool, n)

	current := home
	for len(order) < n {
		best := -1
		minMinutes := math.MaxInt

		for i := 0; i < n; i++ {
			if visited[i] {
				continue
			}
			m := costs[domain.PairKey(current, stops[i].Point)].Minutes
			// Tie-breaker on stop id keeps the ordering deterministic when
			// travel times are equal.
			if m < minMinutes || (m == minMinutes && (best < 0 || stops[i].ID < stops[best].ID)) {
				minMinutes = m
				best = i
			}
		}

		visited[best] = true
		order = append(order, best)
		current = stops[best].Point
	}

	return order
}
