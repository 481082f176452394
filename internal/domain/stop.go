package domain

import "time"

// Represents a single inspection visit handled by the system.
// A Stop has a unique identifier, a geocoded location and a service
// duration. Schedule timestamps are produced later, once an ordering
// has been chosen for the route the stop belongs to.
type Stop struct {
	ID             string
	Address        string
	Category       string
	Rooms          int
	Point          Point
	ServiceMinutes int
}

// Represents the inspector a route is built for, together with the
// working window resolved for the target date.
type Inspector struct {
	ID          string
	Name        string
	HomeAddress string
	Home        Point
	DayStart    time.Time
	DayEnd      time.Time
}
