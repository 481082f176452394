package distance

import (
	"context"
	"fmt"
	"sync"
	"time"

	"inspection-route-service/internal/domain"
)

type MockPair struct {
	From, To domain.Point
	Km       float64
	Minutes  int
}

// MockTravelProvider serves travel costs from a fixed pair table and counts
// provider traffic, for tests that assert caching, batching and coalescing
// behavior.
type MockTravelProvider struct {
	// Err, when set, fails every call. Delay stretches each call so tests
	// can overlap concurrent lookups. Both must be set before first use.
	Err   error
	Delay time.Duration

	mu        sync.Mutex
	m         map[string]domain.TravelCost
	calls     int
	pairsSeen int
}

func NewMockTravelProvider(pairs []MockPair) *MockTravelProvider {
	m := make(map[string]domain.TravelCost, len(pairs))
	for _, p := range pairs {
		m[domain.PairKey(p.From, p.To)] = domain.TravelCost{Km: p.Km, Minutes: p.Minutes}
	}
	return &MockTravelProvider{m: m}
}

func (p *MockTravelProvider) BatchTravelCost(ctx context.Context, pairs []domain.PointPair) (map[string]domain.TravelCost, error) {
	if p.Delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(p.Delay):
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	p.pairsSeen += len(pairs)

	if p.Err != nil {
		return nil, p.Err
	}

	out := make(map[string]domain.TravelCost, len(pairs))
	for _, pair := range pairs {
		k := pair.Key()
		c, ok := p.m[k]
		if !ok {
			return nil, fmt.Errorf("missing pair %s", k)
		}
		out[k] = c
	}
	return out, nil
}

// Calls returns how many batch requests the provider has served.
func (p *MockTravelProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

// PairsSeen returns how many pair lookups arrived across all requests.
func (p *MockTravelProvider) PairsSeen() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pairsSeen
}
