package domain

import "time"

// Represents a single scheduled visit in an inspector's route.
// A ScheduledStop is a Stop placed in time: arrival and departure come
// from the schedule walk, and TravelFromPreviousMins records the leg
// that led here.
type ScheduledStop struct {
	Stop
	Sequence               int
	Start                  time.Time
	End                    time.Time
	TravelFromPreviousMins int
}

// Represents the planned working day for a single inspector.
// A Route is the output of sequencing plus scheduling and describes the
// visiting order of inspections along with aggregate travel metrics.
// It is immutable planning data and contains no side effects.
//
// Routes are open paths: they start at the inspector's home and end at
// the last inspection, with no return leg. TotalTravelMinutes equals the
// sum of TravelFromPreviousMins over all stops, home leg included.
type Route struct {
	InspectorID        string
	InspectorName      string
	HomeAddress        string
	Home               Point
	Stops              []ScheduledStop
	TotalKm            float64
	TotalTravelMinutes int
	Start              time.Time
	End                time.Time
	Degraded           bool
}
