package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"inspection-route-service/internal/domain"
)

const (
	defaultDayStartClock = "09:00"
	defaultDayEndClock   = "17:00"

	// Travel slack between a pre-booked shift and the first routed stop.
	shiftBufferMinutes = 15
)

// SqliteInspectorDirectory reads inspector master data and working windows
// from the embedded database.
type SqliteInspectorDirectory struct {
	DB  *sql.DB
	Loc *time.Location
}

func NewSqliteInspectorDirectory(db *sql.DB, loc *time.Location) *SqliteInspectorDirectory {
	if loc == nil {
		loc = time.UTC
	}
	return &SqliteInspectorDirectory{DB: db, Loc: loc}
}

func (s *SqliteInspectorDirectory) GetInspector(ctx context.Context, inspectorID string, date time.Time) (domain.Inspector, error) {
	if s.DB == nil {
		return domain.Inspector{}, errors.New("inspector directory: database is nil")
	}

	var (
		name     string
		address  sql.NullString
		lat, lng sql.NullFloat64
	)
	err := s.DB.QueryRowContext(ctx, `
	SELECT full_name, address, lat, lng
	FROM inspectors
	WHERE inspector_id = ?;
	`, inspectorID).Scan(&name, &address, &lat, &lng)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Inspector{}, fmt.Errorf("%w: inspector %q", domain.ErrNotFound, inspectorID)
	}
	if err != nil {
		return domain.Inspector{}, fmt.Errorf("get inspector %q: %w", inspectorID, err)
	}

	inspector := domain.Inspector{
		ID:          inspectorID,
		Name:        name,
		HomeAddress: address.String,
	}
	if lat.Valid && lng.Valid {
		inspector.Home = domain.Point{Lat: lat.Float64, Lng: lng.Float64}
	}

	start, end, err := s.dayWindow(ctx, inspectorID, date)
	if err != nil {
		return domain.Inspector{}, err
	}
	inspector.DayStart = start
	inspector.DayEnd = end
	return inspector, nil
}

// dayWindow resolves the working window for the date: 09:00-17:00 unless an
// availability row overrides it, with the start pushed past any pre-booked
// shift end plus a travel buffer. The start never lands before 09:00.
func (s *SqliteInspectorDirectory) dayWindow(ctx context.Context, inspectorID string, date time.Time) (time.Time, time.Time, error) {
	dateStr := date.Format("2006-01-02")
	startClock := defaultDayStartClock
	endClock := defaultDayEndClock

	var (
		availStart, availEnd string
		isAvailable          int
	)
	err := s.DB.QueryRowContext(ctx, `
	SELECT start_time_local, end_time_local, is_available
	FROM inspector_availability
	WHERE inspector_id = ? AND date_local = ?;
	`, inspectorID, dateStr).Scan(&availStart, &availEnd, &isAvailable)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		// No row means the default window applies.
	case err != nil:
		return time.Time{}, time.Time{}, fmt.Errorf("get availability for %q: %w", inspectorID, err)
	case isAvailable == 0:
		return time.Time{}, time.Time{}, fmt.Errorf("%w: inspector %q is not available on %s", domain.ErrInvalidInput, inspectorID, dateStr)
	default:
		startClock = availStart
		endClock = availEnd
	}

	start, err := clockOn(date, startClock, s.Loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parse availability start %q: %w", startClock, err)
	}
	end, err := clockOn(date, endClock, s.Loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parse availability end %q: %w", endClock, err)
	}

	var latestShiftEnd sql.NullString
	err = s.DB.QueryRowContext(ctx, `
	SELECT MAX(end_time_local)
	FROM inspector_shifts
	WHERE inspector_id = ? AND date_local = ?;
	`, inspectorID, dateStr).Scan(&latestShiftEnd)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, time.Time{}, fmt.Errorf("get shifts for %q: %w", inspectorID, err)
	}
	if latestShiftEnd.Valid && latestShiftEnd.String != "" {
		shiftEnd, err := clockOn(date, latestShiftEnd.String, s.Loc)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("parse shift end %q: %w", latestShiftEnd.String, err)
		}
		if pushed := shiftEnd.Add(shiftBufferMinutes * time.Minute); pushed.After(start) {
			start = pushed
		}
	}

	floor, err := clockOn(date, defaultDayStartClock, s.Loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parse default day start: %w", err)
	}
	if start.Before(floor) {
		start = floor
	}

	return start, end, nil
}

// clockOn pins a wall-clock string like "09:00" onto the given calendar day.
func clockOn(date time.Time, clock string, loc *time.Location) (time.Time, error) {
	t, err := time.Parse("15:04", clock)
	if err != nil {
		t, err = time.Parse("15:04:05", clock)
		if err != nil {
			return time.Time{}, err
		}
	}
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), 0, 0, loc), nil
}
