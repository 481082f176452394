package services

import (
	"context"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inspection-route-service/internal/adapters/distance"
	"inspection-route-service/internal/domain"
)

// scenario wires the fixture shared by the sequencing and scheduling
// tests: three stops near home where visiting them in A, B, C order is
// strictly cheapest (33 minutes).
func scenario() (domain.Point, []domain.Stop, *distance.MockTravelProvider) {
	home := domain.Point{Lng: 12.00, Lat: 55.60}
	a := domain.Stop{ID: "stop-a", Address: "A", Point: domain.Point{Lng: 12.01, Lat: 55.61}, ServiceMinutes: 30}
	b := domain.Stop{ID: "stop-b", Address: "B", Point: domain.Point{Lng: 12.02, Lat: 55.62}, ServiceMinutes: 45}
	c := domain.Stop{ID: "stop-c", Address: "C", Point: domain.Point{Lng: 12.05, Lat: 55.60}, ServiceMinutes: 20}

	provider := distance.NewMockTravelProvider([]distance.MockPair{
		{From: home, To: a.Point, Km: 5.0, Minutes: 10},
		{From: home, To: b.Point, Km: 10.0, Minutes: 20},
		{From: home, To: c.Point, Km: 12.5, Minutes: 25},
		{From: a.Point, To: b.Point, Km: 4.0, Minutes: 8},
		{From: b.Point, To: a.Point, Km: 4.0, Minutes: 8},
		{From: a.Point, To: c.Point, Km: 6.0, Minutes: 12},
		{From: c.Point, To: a.Point, Km: 6.0, Minutes: 12},
		{From: b.Point, To: c.Point, Km: 7.5, Minutes: 15},
		{From: c.Point, To: b.Point, Km: 7.5, Minutes: 15},
	})
	return home, []domain.Stop{a, b, c}, provider
}

func stopIDs(stops []domain.Stop) []string {
	ids := make([]string, len(stops))
	for i, s := range stops {
		ids[i] = s.ID
	}
	return ids
}

func TestSequenceFindsCheapestOrder(t *testing.T) {
	home, stops, provider := scenario()
	r := NewTravelResolver(nil, provider)

	seq, err := SequenceRoute(context.Background(), home, stops, r)
	require.NoError(t, err)

	assert.Equal(t, []string{"stop-a", "stop-b", "stop-c"}, stopIDs(seq.Stops))
	assert.Equal(t, 33, seq.TotalTravelMinutes)
	assert.InDelta(t, 16.5, seq.TotalKm, 1e-9)
	assert.False(t, seq.Degraded)

	require.Len(t, seq.Legs, 3)
	assert.Equal(t, 10, seq.Legs[0].Minutes)
	assert.Equal(t, 8, seq.Legs[1].Minutes)
	assert.Equal(t, 15, seq.Legs[2].Minutes)
}

func TestSequenceInputOrderDoesNotMatter(t *testing.T) {
	home, stops, provider := scenario()
	r := NewTravelResolver(nil, provider)

	shuffled := []domain.Stop{stops[2], stops[0], stops[1]}
	seq, err := SequenceRoute(context.Background(), home, shuffled, r)
	require.NoError(t, err)

	assert.Equal(t, []string{"stop-a", "stop-b", "stop-c"}, stopIDs(seq.Stops))
	assert.Equal(t, 33, seq.TotalTravelMinutes)
}

func TestSequenceResolvesEachPairOnce(t *testing.T) {
	home, stops, provider := scenario()
	r := NewTravelResolver(nil, provider)

	_, err := SequenceRoute(context.Background(), home, stops, r)
	require.NoError(t, err)

	assert.Equal(t, 1, provider.Calls(), "the whole search runs on one batched lookup")
	assert.Equal(t, 9, provider.PairsSeen(), "3 home legs plus 6 directed stop pairs")
}

// lineWorld builds n stops on a line east of home where travel cost is
// proportional to the gap, so the cheapest open path is simply west to east.
func lineWorld(n int) (domain.Point, []domain.Stop, *distance.MockTravelProvider) {
	home := domain.Point{Lng: 12.00, Lat: 55.60}

	points := []domain.Point{home}
	stops := make([]domain.Stop, 0, n)
	for i := 0; i < n; i++ {
		p := domain.Point{Lng: 12.00 + 0.01*float64(i+1), Lat: 55.60}
		points = append(points, p)
		stops = append(stops, domain.Stop{
			ID:             fmt.Sprintf("stop-%02d", i),
			Point:          p,
			ServiceMinutes: 30,
		})
	}

	var pairs []distance.MockPair
	for _, from := range points {
		for _, to := range points {
			if from == to {
				continue
			}
			gap := math.Abs(to.Lng-from.Lng) * 100 // 0.01 lng = 1 unit
			minutes := int(math.Round(gap * 4))
			pairs = append(pairs, distance.MockPair{
				From: from, To: to,
				Km:      gap * 1.5,
				Minutes: minutes,
			})
		}
	}
	return home, stops, distance.NewMockTravelProvider(pairs)
}

// permutations feeds every ordering of n indexes to fn.
func permutations(n int, fn func(order []int)) {
	perm := make([]int, 0, n)
	used := make([]bool, n)
	var walk func()
	walk = func() {
		if len(perm) == n {
			fn(perm)
			return
		}
		for i := 0; i < n; i++ {
			if used[i] {
				continue
			}
			used[i] = true
			perm = append(perm, i)
			walk()
			perm = perm[:len(perm)-1]
			used[i] = false
		}
	}
	walk()
}

func TestSequenceExactMatchesBruteForce(t *testing.T) {
	home, stops, provider := lineWorld(6)
	r := NewTravelResolver(nil, provider)

	seq, err := SequenceRoute(context.Background(), home, stops, r)
	require.NoError(t, err)

	// Recompute the optimum the slow way.
	bestTotal := math.MaxInt
	permutations(len(stops), func(order []int) {
		total := 0
		prev := home
		for _, idx := range order {
			gap := math.Abs(stops[idx].Point.Lng-prev.Lng) * 100
			total += int(math.Round(gap * 4))
			prev = stops[idx].Point
		}
		if total < bestTotal {
			bestTotal = total
		}
	})

	assert.Equal(t, bestTotal, seq.TotalTravelMinutes)
	assert.Equal(t, []string{"stop-00", "stop-01", "stop-02", "stop-03", "stop-04", "stop-05"}, stopIDs(seq.Stops),
		"on a line the optimal open path sweeps outward")
}

func TestSequenceEqualCostOrdersAreDeterministic(t *testing.T) {
	home := domain.Point{Lng: 12.00, Lat: 55.60}
	x := domain.Stop{ID: "stop-x", Point: domain.Point{Lng: 12.01, Lat: 55.61}, ServiceMinutes: 30}
	y := domain.Stop{ID: "stop-y", Point: domain.Point{Lng: 12.01, Lat: 55.59}, ServiceMinutes: 30}

	// Perfectly symmetric: both orders cost 15 minutes.
	provider := distance.NewMockTravelProvider([]distance.MockPair{
		{From: home, To: x.Point, Km: 5, Minutes: 10},
		{From: home, To: y.Point, Km: 5, Minutes: 10},
		{From: x.Point, To: y.Point, Km: 2.5, Minutes: 5},
		{From: y.Point, To: x.Point, Km: 2.5, Minutes: 5},
	})
	r := NewTravelResolver(nil, provider)

	seq, err := SequenceRoute(context.Background(), home, []domain.Stop{x, y}, r)
	require.NoError(t, err)
	assert.Equal(t, []string{"stop-x", "stop-y"}, stopIDs(seq.Stops),
		"the first equal-cost order in enumeration order wins")

	// Reversing the input reverses which order is enumerated first.
	seq, err = SequenceRoute(context.Background(), home, []domain.Stop{y, x}, r)
	require.NoError(t, err)
	assert.Equal(t, []string{"stop-y", "stop-x"}, stopIDs(seq.Stops))
}

func TestSequenceLargeSetUsesNearestNeighbor(t *testing.T) {
	home, stops, provider := lineWorld(10)
	r := NewTravelResolver(nil, provider)

	// Present the stops out of order; the greedy walk still sweeps the line.
	shuffled := []domain.Stop{
		stops[4], stops[9], stops[0], stops[7], stops[2],
		stops[5], stops[1], stops[8], stops[3], stops[6],
	}
	seq, err := SequenceRoute(context.Background(), home, shuffled, r)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"stop-00", "stop-01", "stop-02", "stop-03", "stop-04",
		"stop-05", "stop-06", "stop-07", "stop-08", "stop-09",
	}, stopIDs(seq.Stops))
	assert.Equal(t, 1, provider.Calls())
}

func TestSequenceNearestNeighborTieBreaksOnID(t *testing.T) {
	home := domain.Point{Lng: 12.00, Lat: 55.60}

	// Two stops equidistant from home, one on each side, then a tail east so
	// the set is large enough for the greedy path.
	west := domain.Stop{ID: "stop-00-west", Point: domain.Point{Lng: 11.99, Lat: 55.60}, ServiceMinutes: 30}
	east := domain.Stop{ID: "stop-01-east", Point: domain.Point{Lng: 12.01, Lat: 55.60}, ServiceMinutes: 30}

	stops := []domain.Stop{east, west}
	for i := 2; i < 8; i++ {
		stops = append(stops, domain.Stop{
			ID:             fmt.Sprintf("stop-%02d", i),
			Point:          domain.Point{Lng: 12.00 + 0.01*float64(i), Lat: 55.60},
			ServiceMinutes: 30,
		})
	}

	points := []domain.Point{home}
	for _, s := range stops {
		points = append(points, s.Point)
	}
	var pairs []distance.MockPair
	for _, from := range points {
		for _, to := range points {
			if from == to {
				continue
			}
			gap := math.Abs(to.Lng-from.Lng) * 100
			pairs = append(pairs, distance.MockPair{
				From: from, To: to,
				Km:      gap * 1.5,
				Minutes: int(math.Round(gap * 4)),
			})
		}
	}
	r := NewTravelResolver(nil, distance.NewMockTravelProvider(pairs))

	seq, err := SequenceRoute(context.Background(), home, stops, r)
	require.NoError(t, err)

	// First step is a tie between west and east; the lower id wins even
	// though east appears first in the input.
	assert.Equal(t, "stop-00-west", seq.Stops[0].ID)
}

func TestSequenceProviderDownFallsBackToEstimates(t *testing.T) {
	home := domain.Point{Lng: 12.00, Lat: 55.60}
	near := domain.Stop{ID: "stop-near", Point: domain.Point{Lng: 12.01, Lat: 55.60}, ServiceMinutes: 30}
	far := domain.Stop{ID: "stop-far", Point: domain.Point{Lng: 12.10, Lat: 55.60}, ServiceMinutes: 30}

	provider := distance.NewMockTravelProvider(nil)
	provider.Err = fmt.Errorf("%w: matrix service down", domain.ErrProviderUnavailable)
	r := NewTravelResolver(nil, provider)

	seq, err := SequenceRoute(context.Background(), home, []domain.Stop{far, near}, r)
	require.NoError(t, err, "a provider outage degrades the route instead of failing it")

	assert.True(t, seq.Degraded)
	assert.Equal(t, []string{"stop-near", "stop-far"}, stopIDs(seq.Stops))

	wantFirst := EstimateTravelCost(home, near.Point)
	assert.Equal(t, wantFirst, seq.Legs[0])
}

func TestSequenceOtherResolveErrorsPropagate(t *testing.T) {
	home := domain.Point{Lng: 12.00, Lat: 55.60}
	s := domain.Stop{ID: "stop-a", Point: domain.Point{Lng: 12.01, Lat: 55.61}, ServiceMinutes: 30}

	provider := distance.NewMockTravelProvider(nil)
	provider.Err = fmt.Errorf("wire decode failed")
	r := NewTravelResolver(nil, provider)

	_, err := SequenceRoute(context.Background(), home, []domain.Stop{s}, r)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrProviderUnavailable)
}

func TestSequenceEmptyStops(t *testing.T) {
	home, _, provider := scenario()
	r := NewTravelResolver(nil, provider)

	seq, err := SequenceRoute(context.Background(), home, nil, r)
	require.NoError(t, err)
	assert.Empty(t, seq.Stops)
	assert.Equal(t, 0, seq.TotalTravelMinutes)
	assert.Equal(t, 0, provider.Calls())
}

func TestSequenceRejectsMissingCoordinates(t *testing.T) {
	_, stops, provider := scenario()
	r := NewTravelResolver(nil, provider)

	_, err := SequenceRoute(context.Background(), domain.Point{}, stops, r)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	home := domain.Point{Lng: 12.00, Lat: 55.60}
	bad := append([]domain.Stop{}, stops...)
	bad[1].Point = domain.Point{}
	_, err = SequenceRoute(context.Background(), home, bad, r)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Contains(t, err.Error(), "stop-b")
}
