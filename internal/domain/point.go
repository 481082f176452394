package domain

import "fmt"

// Immutable geographic point (longitude, latitude).
type Point struct {
	Lng float64
	Lat float64
}

// Key returns the canonical identity of the point: coordinates rounded to
// 5 decimal places (about one meter), longitude first. Points that differ
// only by sub-meter jitter share the same key and therefore the same cache
// entries.
func (p Point) Key() string {
	return fmt.Sprintf("%.5f,%.5f", p.Lng, p.Lat)
}

// IsZero reports whether the point carries no usable coordinates.
func (p Point) IsZero() bool { return p.Lng == 0 && p.Lat == 0 }
