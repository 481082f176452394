package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"inspection-route-service/internal/domain"
)

// Persisted status for an archived run. Failed agents are recorded through
// the run's partial status in the API response, not here; a row only exists
// once the run finished.
const runStatusCompleted = "COMPLETED"

// SqliteRunStore archives finished runs and their per-stop proposals.
type SqliteRunStore struct {
	DB *sql.DB
}

func NewSqliteRunStore(db *sql.DB) *SqliteRunStore {
	return &SqliteRunStore{DB: db}
}

func (s *SqliteRunStore) SaveRun(ctx context.Context, run *domain.RunResult, scope domain.RunScope) (string, error) {
	if s.DB == nil {
		return "", fmt.Errorf("%w: run store: database is nil", domain.ErrPersistence)
	}
	if run == nil {
		return "", fmt.Errorf("%w: run store: run is nil", domain.ErrPersistence)
	}

	runID := run.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	dateStr := scope.Date.Format("2006-01-02")

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("%w: save run: begin: %v", domain.ErrPersistence, err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
	INSERT INTO route_runs (
		run_id, status, target_date, requested_by, triggered_by,
		inspection_count, inspector_count, total_km, total_travel_minutes,
		execution_seconds, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
	`,
		runID,
		runStatusCompleted,
		dateStr,
		scope.RequestedBy,
		scope.TriggeredBy,
		run.Metrics.TotalScheduled,
		run.Metrics.TotalInspectors,
		run.Metrics.TotalTravelKm,
		run.Metrics.TotalTravelMinutes,
		run.Metrics.ExecutionSeconds,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return "", fmt.Errorf("%w: save run %s: %v", domain.ErrPersistence, runID, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO route_proposals (
		run_id, inspection_id, inspector_id, target_date, seq,
		start_time, end_time, travel_from_previous_mins, route_km
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?);
	`)
	if err != nil {
		return "", fmt.Errorf("%w: save run %s: prepare proposals: %v", domain.ErrPersistence, runID, err)
	}
	defer stmt.Close()

	for _, route := range run.Routes {
		if route == nil {
			continue
		}
		for _, stop := range route.Stops {
			_, err := stmt.ExecContext(ctx,
				runID,
				stop.ID,
				route.InspectorID,
				dateStr,
				stop.Sequence,
				stop.Start.Format(time.RFC3339),
				stop.End.Format(time.RFC3339),
				stop.TravelFromPreviousMins,
				route.TotalKm,
			)
			if err != nil {
				return "", fmt.Errorf("%w: save proposal %s/%s: %v", domain.ErrPersistence, runID, stop.ID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("%w: save run %s: commit: %v", domain.ErrPersistence, runID, err)
	}
	return runID, nil
}

// GetRun loads an archived run header by id.
func (s *SqliteRunStore) GetRun(ctx context.Context, runID string) (domain.RunRecord, error) {
	if s.DB == nil {
		return domain.RunRecord{}, fmt.Errorf("%w: run store: database is nil", domain.ErrPersistence)
	}

	var (
		rec     domain.RunRecord
		dateStr string
		created string
	)
	err := s.DB.QueryRowContext(ctx, `
	SELECT run_id, status, target_date, requested_by, triggered_by,
		inspection_count, inspector_count, total_km, total_travel_minutes,
		execution_seconds, created_at
	FROM route_runs
	WHERE run_id = ?;
	`, runID).Scan(
		&rec.RunID, &rec.Status, &dateStr, &rec.RequestedBy, &rec.TriggeredBy,
		&rec.InspectionCount, &rec.InspectorCount, &rec.TotalKm, &rec.TotalTravelMinutes,
		&rec.ExecutionSeconds, &created,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.RunRecord{}, fmt.Errorf("%w: run %q", domain.ErrNotFound, runID)
	}
	if err != nil {
		return domain.RunRecord{}, fmt.Errorf("get run %q: %w", runID, err)
	}

	if d, err := time.Parse("2006-01-02", dateStr); err == nil {
		rec.Date = d
	}
	if c, err := time.Parse(time.RFC3339, created); err == nil {
		rec.CreatedAt = c
	}
	return rec, nil
}
