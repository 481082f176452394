package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"inspection-route-service/internal/domain"
)

// Applied when no duration row matches the inspection's type and room count.
const defaultServiceMinutes = 45

// SqliteInspectionDirectory reads inspection master data from the embedded
// database, resolving service durations through the type mapping table.
type SqliteInspectionDirectory struct {
	DB *sql.DB
}

func NewSqliteInspectionDirectory(db *sql.DB) *SqliteInspectionDirectory {
	return &SqliteInspectionDirectory{DB: db}
}

func (s *SqliteInspectionDirectory) GetInspections(ctx context.Context, ids []string) ([]domain.Stop, error) {
	if s.DB == nil {
		return nil, errors.New("inspection directory: database is nil")
	}
	if len(ids) == 0 {
		return []domain.Stop{}, nil
	}

	seen := make(map[string]struct{}, len(ids))
	unique := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}

	// SQLite does not support binding slices directly in an IN (...) clause.
	// Only the placeholder structure is interpolated; all values remain
	// parameterized.
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(unique)), ",")
	args := make([]any, len(unique))
	for i, id := range unique {
		args[i] = id
	}

	q := fmt.Sprintf(`
	SELECT
		i.inspection_id,
		i.address,
		i.inspection_type,
		i.rooms,
		i.lat,
		i.lng,
		d.duration_minutes
	FROM inspections i
	LEFT JOIN inspection_type_mappings m ON m.type_name = i.inspection_type
	LEFT JOIN inspection_durations d ON d.type_abbrev = m.type_abbrev AND d.rooms = i.rooms
	WHERE i.inspection_id IN (%s);
	`, placeholders)

	rows, err := s.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("get inspections: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Stop, 0, len(unique))
	for rows.Next() {
		var (
			id, address string
			category    sql.NullString
			rooms       sql.NullInt64
			lat, lng    sql.NullFloat64
			duration    sql.NullInt64
		)
		if err := rows.Scan(&id, &address, &category, &rooms, &lat, &lng, &duration); err != nil {
			return nil, fmt.Errorf("scan inspection: %w", err)
		}

		stop := domain.Stop{
			ID:             id,
			Address:        address,
			Category:       category.String,
			Rooms:          int(rooms.Int64),
			ServiceMinutes: defaultServiceMinutes,
		}
		if duration.Valid {
			stop.ServiceMinutes = int(duration.Int64)
		}
		if lat.Valid && lng.Valid {
			stop.Point = domain.Point{Lat: lat.Float64, Lng: lng.Float64}
		}
		out = append(out, stop)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate inspections: %w", err)
	}
	return out, nil
}
