package distance

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"inspection-route-service/internal/domain"
	"inspection-route-service/internal/platform/obs"
)

// Matrix requests are capped by the API at 25 coordinates for the driving
// profile.
const maxMatrixCoordinates = 25

// MapboxTravelProvider implements TravelProvider using the Mapbox
// directions-matrix API.
//
// It coordinates:
//   - Point deduplication so one matrix call covers many pairs
//   - Chunked per-origin rows when a request would exceed the API limit
//   - External API calls with retry/backoff and client-side rate limiting
//
// The provider is safe for concurrent use. Caching is not its concern; the
// travel resolver sits in front of it.
type MapboxTravelProvider struct {
	session *http.Client
	apiKey  string
	baseURL string
	profile string
	limiter *rate.Limiter
}

func NewMapboxTravelProvider(apiKey string, rps float64, burst int) (*MapboxTravelProvider, error) {
	if apiKey == "" {
		return nil, errors.New("mapbox api key is empty")
	}

	if rps <= 0 {
		rps = 5
	}
	if burst <= 0 {
		burst = 10
	}

	provider := &MapboxTravelProvider{
		session: &http.Client{Timeout: 10 * time.Second},
		apiKey:  apiKey,
		baseURL: "https://api.mapbox.com",
		profile: "mapbox/driving",
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}

	return provider, nil
}

// BatchTravelCost resolves every requested pair through the matrix API.
func (m *MapboxTravelProvider) BatchTravelCost(ctx context.Context, pairs []domain.PointPair) (_ map[string]domain.TravelCost, err error) {
	defer obs.Time(ctx, "mapbox.BatchTravelCost")(&err)

	if len(pairs) == 0 {
		return map[string]domain.TravelCost{}, nil
	}

	index := make(map[string]int)
	points := make([]domain.Point, 0, 2*len(pairs))
	addPoint := func(p domain.Point) int {
		k := p.Key()
		if i, ok := index[k]; ok {
			return i
		}
		index[k] = len(points)
		points = append(points, p)
		return len(points) - 1
	}

	type pairIdx struct {
		from, to int
		key      string
	}
	idxPairs := make([]pairIdx, 0, len(pairs))
	for _, p := range pairs {
		idxPairs = append(idxPairs, pairIdx{from: addPoint(p.From), to: addPoint(p.To), key: p.Key()})
	}

	if len(points) > maxMatrixCoordinates {
		return m.batchByOrigin(ctx, pairs)
	}

	// All points fit into one many-to-many matrix request.
	durations, distances, ferr := m.fetchMatrix(ctx, points, nil, nil)
	if ferr != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrProviderUnavailable, ferr)
	}

	out := make(map[string]domain.TravelCost, len(idxPairs))
	for _, ip := range idxPairs {
		seconds := durations[ip.from][ip.to]
		meters := distances[ip.from][ip.to]
		if seconds == nil || meters == nil {
			return nil, fmt.Errorf("%w: matrix returned no value for pair %s", domain.ErrProviderUnavailable, ip.key)
		}
		out[ip.key] = toTravelCost(*meters, *seconds)
	}

	return out, nil
}

// batchByOrigin splits an oversized pair set into one-origin rows, chunking
// destinations under the coordinate limit.
func (m *MapboxTravelProvider) batchByOrigin(ctx context.Context, pairs []domain.PointPair) (map[string]domain.TravelCost, error) {
	type group struct {
		from  domain.Point
		dests []domain.Point
		seen  map[string]struct{}
	}

	groups := make(map[string]*group)
	order := make([]string, 0)
	for _, p := range pairs {
		fk := p.From.Key()
		g, ok := groups[fk]
		if !ok {
			g = &group{from: p.From, seen: make(map[string]struct{})}
			groups[fk] = g
			order = append(order, fk)
		}
		dk := p.To.Key()
		if _, ok := g.seen[dk]; ok {
			continue
		}
		g.seen[dk] = struct{}{}
		g.dests = append(g.dests, p.To)
	}

	out := make(map[string]domain.TravelCost, len(pairs))
	for _, fk := range order {
		g := groups[fk]

		for start := 0; start < len(g.dests); start += maxMatrixCoordinates - 1 {
			end := start + maxMatrixCoordinates - 1
			if end > len(g.dests) {
				end = len(g.dests)
			}
			chunk := g.dests[start:end]

			coords := make([]domain.Point, 0, 1+len(chunk))
			coords = append(coords, g.from)
			coords = append(coords, chunk...)

			destIdx := make([]int, 0, len(chunk))
			for i := 1; i < len(coords); i++ {
				destIdx = append(destIdx, i)
			}

			durations, distances, err := m.fetchMatrix(ctx, coords, []int{0}, destIdx)
			if err != nil {
				return nil, fmt.Errorf("%w: row from %s: %v", domain.ErrProviderUnavailable, fk, err)
			}

			for i, d := range chunk {
				seconds := durations[0][i]
				meters := distances[0][i]
				key := domain.PairKey(g.from, d)
				if seconds == nil || meters == nil {
					return nil, fmt.Errorf("%w: matrix returned no value for pair %s", domain.ErrProviderUnavailable, key)
				}
				out[key] = toTravelCost(*meters, *seconds)
			}
		}
	}

	return out, nil
}
