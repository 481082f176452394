package services

import (
	"time"

	"inspection-route-service/internal/domain"
)

// ScheduleOptions control how a sequenced route is turned into timestamps.
type ScheduleOptions struct {
	// DayStart is the moment the inspector leaves home.
	DayStart time.Time
	// AlignMinutes, when positive, rounds every stop's start time up to the
	// given granularity. Zero keeps exact chaining: each start is precisely
	// the previous end plus travel.
	AlignMinutes int
}

// BuildSchedule walks a sequenced route and assigns arrival and departure
// times to every stop. The walk is pure and deterministic: a time cursor
// starts at DayStart, each arrival is the cursor plus the leg's travel
// minutes, each departure is the arrival plus the stop's service duration,
// and the cursor moves to the departure. Travel costs come from the
// sequencing pass and are never resolved again here.
func BuildSchedule(inspector domain.Inspector, seq *SequencedRoute, opts ScheduleOptions) *domain.Route {
	stops := make([]domain.ScheduledStop, 0, len(seq.Stops))

	cursor := opts.DayStart
	for i, s := range seq.Stops {
		leg := seq.Legs[i]

		start := cursor.Add(time.Duration(leg.Minutes) * time.Minute)
		if opts.AlignMinutes > 0 {
			start = roundUpTo(start, opts.AlignMinutes)
		}
		end := start.Add(time.Duration(s.ServiceMinutes) * time.Minute)

		stops = append(stops, domain.ScheduledStop{
			Stop:                   s,
			Sequence:               i + 1,
			Start:                  start,
			End:                    end,
			TravelFromPreviousMins: leg.Minutes,
		})

		cursor = end
	}

	route := &domain.Route{
		InspectorID:        inspector.ID,
		InspectorName:      inspector.Name,
		HomeAddress:        inspector.HomeAddress,
		Home:               inspector.Home,
		Stops:              stops,
		TotalKm:            seq.TotalKm,
		TotalTravelMinutes: seq.TotalTravelMinutes,
		Degraded:           seq.Degraded,
	}
	if len(stops) > 0 {
		route.Start = stops[0].Start
		route.End = stops[len(stops)-1].End
	}

	return route
}

// roundUpTo rounds t up to the next multiple of the given wall-clock
// granularity. Times already on the boundary are unchanged.
func roundUpTo(t time.Time, minutes int) time.Time {
	step := time.Duration(minutes) * time.Minute
	r := t.Truncate(step)
	if r.Equal(t) {
		return t
	}
	return r.Add(step)
}
