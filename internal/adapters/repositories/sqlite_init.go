package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
)

// InitSchema creates all tables the service uses. Safe to run more than
// once. The DDL sticks to the subset SQLite and PostgreSQL share, so the
// same statements serve both the embedded database and an external one.
func InitSchema(ctx context.Context, db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS inspectors (
			inspector_id TEXT PRIMARY KEY,
			full_name TEXT NOT NULL,
			address TEXT,
			lat DOUBLE PRECISION,
			lng DOUBLE PRECISION
		);`,
		`CREATE TABLE IF NOT EXISTS inspector_availability (
			inspector_id TEXT NOT NULL,
			date_local TEXT NOT NULL,
			start_time_local TEXT NOT NULL,
			end_time_local TEXT NOT NULL,
			is_available INTEGER NOT NULL DEFAULT 1,
			PRIMARY KEY (inspector_id, date_local)
		);`,
		`CREATE TABLE IF NOT EXISTS inspector_shifts (
			shift_id TEXT PRIMARY KEY,
			inspector_id TEXT NOT NULL,
			date_local TEXT NOT NULL,
			end_time_local TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS inspections (
			inspection_id TEXT PRIMARY KEY,
			address TEXT NOT NULL,
			inspection_type TEXT,
			rooms INTEGER,
			lat DOUBLE PRECISION,
			lng DOUBLE PRECISION
		);`,
		`CREATE TABLE IF NOT EXISTS inspection_type_mappings (
			type_name TEXT PRIMARY KEY,
			type_abbrev TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS inspection_durations (
			type_abbrev TEXT NOT NULL,
			rooms INTEGER NOT NULL,
			duration_minutes INTEGER NOT NULL,
			PRIMARY KEY (type_abbrev, rooms)
		);`,
		`CREATE TABLE IF NOT EXISTS route_runs (
			run_id TEXT PRIMARY KEY,
			status TEXT NOT NULL,
			target_date TEXT NOT NULL,
			requested_by TEXT,
			triggered_by TEXT,
			inspection_count INTEGER NOT NULL,
			inspector_count INTEGER NOT NULL,
			total_km DOUBLE PRECISION NOT NULL,
			total_travel_minutes INTEGER NOT NULL,
			execution_seconds DOUBLE PRECISION NOT NULL,
			created_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS route_proposals (
			run_id TEXT NOT NULL,
			inspection_id TEXT NOT NULL,
			inspector_id TEXT NOT NULL,
			target_date TEXT NOT NULL,
			seq INTEGER NOT NULL,
			start_time TEXT NOT NULL,
			end_time TEXT NOT NULL,
			travel_from_previous_mins INTEGER NOT NULL,
			route_km DOUBLE PRECISION NOT NULL,
			PRIMARY KEY (run_id, inspection_id)
		);`,
		`CREATE TABLE IF NOT EXISTS travel_cache (
			pair_key TEXT PRIMARY KEY,
			km DOUBLE PRECISION NOT NULL,
			minutes INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_route_proposals_inspector_date
			ON route_proposals (inspector_id, target_date);`,
		`CREATE INDEX IF NOT EXISTS idx_inspector_shifts_inspector_date
			ON inspector_shifts (inspector_id, date_local);`,
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("init schema: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit: %w", err)
	}
	return nil
}

type inspectorSeed struct {
	InspectorID string   `json:"inspector_id"`
	FullName    string   `json:"full_name"`
	Address     string   `json:"address"`
	Lat         *float64 `json:"lat"`
	Lng         *float64 `json:"lng"`
}

type availabilitySeed struct {
	InspectorID string `json:"inspector_id"`
	Date        string `json:"date"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	IsAvailable *bool  `json:"is_available"`
}

type inspectionSeed struct {
	InspectionID   string   `json:"inspection_id"`
	Address        string   `json:"address"`
	InspectionType string   `json:"inspection_type"`
	Rooms          int      `json:"rooms"`
	Lat            *float64 `json:"lat"`
	Lng            *float64 `json:"lng"`
}

type typeMappingSeed struct {
	TypeName   string `json:"type_name"`
	TypeAbbrev string `json:"type_abbrev"`
}

type durationSeed struct {
	TypeAbbrev      string `json:"type_abbrev"`
	Rooms           int    `json:"rooms"`
	DurationMinutes int    `json:"duration_minutes"`
}

type seedFile struct {
	Inspectors   []inspectorSeed    `json:"inspectors"`
	Availability []availabilitySeed `json:"availability"`
	Inspections  []inspectionSeed   `json:"inspections"`
	TypeMappings []typeMappingSeed  `json:"type_mappings"`
	Durations    []durationSeed     `json:"durations"`
}

// SeedFromJSON loads reference data from a JSON document and upserts it.
// Existing rows with the same keys are overwritten, so reseeding after an
// edit to the file converges on the file's contents.
func SeedFromJSON(ctx context.Context, db *sql.DB, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("seed: read %s: %w", path, err)
	}

	var doc seedFile
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("seed: parse %s: %w", path, err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("seed: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, ins := range doc.Inspectors {
		if ins.InspectorID == "" {
			return fmt.Errorf("seed: inspector with empty inspector_id in %s", path)
		}
		_, err := tx.ExecContext(ctx, `
		INSERT INTO inspectors (inspector_id, full_name, address, lat, lng)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (inspector_id) DO UPDATE SET
			full_name = excluded.full_name,
			address = excluded.address,
			lat = excluded.lat,
			lng = excluded.lng;
		`, ins.InspectorID, ins.FullName, ins.Address, ins.Lat, ins.Lng)
		if err != nil {
			return fmt.Errorf("seed: inspector %s: %w", ins.InspectorID, err)
		}
	}

	for _, av := range doc.Availability {
		if av.InspectorID == "" || av.Date == "" {
			return fmt.Errorf("seed: availability row missing inspector_id or date in %s", path)
		}
		available := 1
		if av.IsAvailable != nil && !*av.IsAvailable {
			available = 0
		}
		_, err := tx.ExecContext(ctx, `
		INSERT INTO inspector_availability (inspector_id, date_local, start_time_local, end_time_local, is_available)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (inspector_id, date_local) DO UPDATE SET
			start_time_local = excluded.start_time_local,
			end_time_local = excluded.end_time_local,
			is_available = excluded.is_available;
		`, av.InspectorID, av.Date, av.StartTime, av.EndTime, available)
		if err != nil {
			return fmt.Errorf("seed: availability %s/%s: %w", av.InspectorID, av.Date, err)
		}
	}

	for _, ins := range doc.Inspections {
		if ins.InspectionID == "" {
			return fmt.Errorf("seed: inspection with empty inspection_id in %s", path)
		}
		_, err := tx.ExecContext(ctx, `
		INSERT INTO inspections (inspection_id, address, inspection_type, rooms, lat, lng)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (inspection_id) DO UPDATE SET
			address = excluded.address,
			inspection_type = excluded.inspection_type,
			rooms = excluded.rooms,
			lat = excluded.lat,
			lng = excluded.lng;
		`, ins.InspectionID, ins.Address, ins.InspectionType, ins.Rooms, ins.Lat, ins.Lng)
		if err != nil {
			return fmt.Errorf("seed: inspection %s: %w", ins.InspectionID, err)
		}
	}

	for _, tm := range doc.TypeMappings {
		if tm.TypeName == "" {
			return fmt.Errorf("seed: type mapping with empty type_name in %s", path)
		}
		_, err := tx.ExecContext(ctx, `
		INSERT INTO inspection_type_mappings (type_name, type_abbrev)
		VALUES (?, ?)
		ON CONFLICT (type_name) DO UPDATE SET type_abbrev = excluded.type_abbrev;
		`, tm.TypeName, tm.TypeAbbrev)
		if err != nil {
			return fmt.Errorf("seed: type mapping %s: %w", tm.TypeName, err)
		}
	}

	for _, d := range doc.Durations {
		if d.TypeAbbrev == "" {
			return fmt.Errorf("seed: duration row with empty type_abbrev in %s", path)
		}
		_, err := tx.ExecContext(ctx, `
		INSERT INTO inspection_durations (type_abbrev, rooms, duration_minutes)
		VALUES (?, ?, ?)
		ON CONFLICT (type_abbrev, rooms) DO UPDATE SET duration_minutes = excluded.duration_minutes;
		`, d.TypeAbbrev, d.Rooms, d.DurationMinutes)
		if err != nil {
			return fmt.Errorf("seed: duration %s/%d: %w", d.TypeAbbrev, d.Rooms, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed: commit: %w", err)
	}
	return nil
}
