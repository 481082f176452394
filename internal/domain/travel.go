package domain

// TravelCost is the directed cost of moving between two points.
type TravelCost struct {
	Km      float64
	Minutes int
}

// PointPair is a directed origin/destination pair.
type PointPair struct {
	From Point
	To   Point
}

// PairKey returns the cache identity of a directed point pair.
func PairKey(from, to Point) string { return from.Key() + "->" + to.Key() }

// Key returns the cache identity of the pair.
func (p PointPair) Key() string { return PairKey(p.From, p.To) }
