package repositories

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"inspection-route-service/internal/domain"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	// A pooled second connection would see a different in-memory database.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, InitSchema(context.Background(), db))
	return db
}

func TestInitSchemaIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, InitSchema(context.Background(), db))
}

func seedTestData(t *testing.T, db *sql.DB) {
	t.Helper()
	doc := `{
		"inspectors": [
			{"inspector_id": "insp-100", "full_name": "Mette Larsen", "address": "Valby Langgade 1", "lat": 55.66, "lng": 12.50},
			{"inspector_id": "insp-200", "full_name": "Jonas Holm", "address": "Amagerbrogade 2", "lat": 55.65, "lng": 12.61},
			{"inspector_id": "insp-300", "full_name": "Sofie Dam", "address": "Ukendt Vej 3"}
		],
		"availability": [
			{"inspector_id": "insp-200", "date": "2026-03-10", "start_time": "10:00", "end_time": "15:00"},
			{"inspector_id": "insp-300", "date": "2026-03-10", "start_time": "09:00", "end_time": "17:00", "is_available": false}
		],
		"inspections": [
			{"inspection_id": "case-1", "address": "Njalsgade 10", "inspection_type": "Residential Standard", "rooms": 3, "lat": 55.663, "lng": 12.589},
			{"inspection_id": "case-2", "address": "Islands Brygge 20", "inspection_type": "Unknown Type", "rooms": 2, "lat": 55.667, "lng": 12.578},
			{"inspection_id": "case-3", "address": "Ingen Koordinater 1", "inspection_type": "Residential Standard", "rooms": 3}
		],
		"type_mappings": [
			{"type_name": "Residential Standard", "type_abbrev": "RS"}
		],
		"durations": [
			{"type_abbrev": "RS", "rooms": 3, "duration_minutes": 60}
		]
	}`
	path := filepath.Join(t.TempDir(), "seed.json")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
	require.NoError(t, SeedFromJSON(context.Background(), db, path))
}

func TestSeedFromJSONIsRepeatable(t *testing.T) {
	db := openTestDB(t)
	seedTestData(t, db)
	seedTestData(t, db)

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM inspectors;`).Scan(&n))
	assert.Equal(t, 3, n)
}

func TestGetInspectorDefaultWindow(t *testing.T) {
	db := openTestDB(t)
	seedTestData(t, db)
	dir := NewSqliteInspectorDirectory(db, time.UTC)
	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	got, err := dir.GetInspector(context.Background(), "insp-100", date)
	require.NoError(t, err)

	assert.Equal(t, "Mette Larsen", got.Name)
	assert.Equal(t, "Valby Langgade 1", got.HomeAddress)
	assert.Equal(t, domain.Point{Lng: 12.50, Lat: 55.66}, got.Home)
	assert.Equal(t, time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC), got.DayStart)
	assert.Equal(t, time.Date(2026, 3, 10, 17, 0, 0, 0, time.UTC), got.DayEnd)
}

func TestGetInspectorAvailabilityOverride(t *testing.T) {
	db := openTestDB(t)
	seedTestData(t, db)
	dir := NewSqliteInspectorDirectory(db, time.UTC)
	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	got, err := dir.GetInspector(context.Background(), "insp-200", date)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC), got.DayStart)
	assert.Equal(t, time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC), got.DayEnd)

	// A different date falls back to the default window.
	other, err := dir.GetInspector(context.Background(), "insp-200", date.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC), other.DayStart)
}

func TestGetInspectorUnavailableDay(t *testing.T) {
	db := openTestDB(t)
	seedTestData(t, db)
	dir := NewSqliteInspectorDirectory(db, time.UTC)
	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	_, err := dir.GetInspector(context.Background(), "insp-300", date)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestGetInspectorShiftPushesStart(t *testing.T) {
	db := openTestDB(t)
	seedTestData(t, db)
	dir := NewSqliteInspectorDirectory(db, time.UTC)
	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	_, err := db.Exec(`
	INSERT INTO inspector_shifts (shift_id, inspector_id, date_local, end_time_local)
	VALUES ('shift-1', 'insp-100', '2026-03-10', '09:45'),
	       ('shift-2', 'insp-100', '2026-03-10', '10:30');
	`)
	require.NoError(t, err)

	got, err := dir.GetInspector(context.Background(), "insp-100", date)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 10, 10, 45, 0, 0, time.UTC), got.DayStart,
		"start moves past the latest shift end plus the travel buffer")
}

func TestGetInspectorEarlyShiftKeepsFloor(t *testing.T) {
	db := openTestDB(t)
	seedTestData(t, db)
	dir := NewSqliteInspectorDirectory(db, time.UTC)
	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	_, err := db.Exec(`
	INSERT INTO inspector_shifts (shift_id, inspector_id, date_local, end_time_local)
	VALUES ('shift-1', 'insp-100', '2026-03-10', '08:00');
	`)
	require.NoError(t, err)

	got, err := dir.GetInspector(context.Background(), "insp-100", date)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC), got.DayStart)
}

func TestGetInspectorUnknownID(t *testing.T) {
	db := openTestDB(t)
	dir := NewSqliteInspectorDirectory(db, time.UTC)

	_, err := dir.GetInspector(context.Background(), "nope", time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGetInspectionsResolvesDurations(t *testing.T) {
	db := openTestDB(t)
	seedTestData(t, db)
	dir := NewSqliteInspectionDirectory(db)

	stops, err := dir.GetInspections(context.Background(), []string{"case-1", "case-2", "case-3", "missing"})
	require.NoError(t, err)
	require.Len(t, stops, 3, "unknown ids are simply absent")

	byID := make(map[string]domain.Stop, len(stops))
	for _, s := range stops {
		byID[s.ID] = s
	}

	assert.Equal(t, 60, byID["case-1"].ServiceMinutes, "mapped type and rooms hit the duration table")
	assert.Equal(t, domain.Point{Lng: 12.589, Lat: 55.663}, byID["case-1"].Point)
	assert.Equal(t, 45, byID["case-2"].ServiceMinutes, "unmapped type falls back to the default")
	assert.True(t, byID["case-3"].Point.IsZero(), "missing coordinates leave the point zero")
}

func TestGetInspectionsEmptyInput(t *testing.T) {
	db := openTestDB(t)
	dir := NewSqliteInspectionDirectory(db)

	stops, err := dir.GetInspections(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, stops)
}

func TestSaveRunRoundTrip(t *testing.T) {
	db := openTestDB(t)
	store := NewSqliteRunStore(db)
	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	run := &domain.RunResult{
		RunID:  "run-abc",
		Status: domain.StatusSuccess,
		Routes: []*domain.Route{
			{
				InspectorID: "insp-100",
				TotalKm:     12.3,
				Stops: []domain.ScheduledStop{
					{
						Stop:                   domain.Stop{ID: "case-1"},
						Sequence:               1,
						Start:                  time.Date(2026, 3, 10, 9, 10, 0, 0, time.UTC),
						End:                    time.Date(2026, 3, 10, 9, 40, 0, 0, time.UTC),
						TravelFromPreviousMins: 10,
					},
					{
						Stop:                   domain.Stop{ID: "case-2"},
						Sequence:               2,
						Start:                  time.Date(2026, 3, 10, 9, 48, 0, 0, time.UTC),
						End:                    time.Date(2026, 3, 10, 10, 33, 0, 0, time.UTC),
						TravelFromPreviousMins: 8,
					},
				},
			},
		},
		Metrics: domain.RunMetrics{
			TotalScheduled:     2,
			TotalInspectors:    1,
			TotalTravelKm:      12.3,
			TotalTravelMinutes: 18,
			ExecutionSeconds:   0.42,
		},
	}

	id, err := store.SaveRun(context.Background(), run, domain.RunScope{Date: date, RequestedBy: "api", TriggeredBy: "api"})
	require.NoError(t, err)
	assert.Equal(t, "run-abc", id)

	rec, err := store.GetRun(context.Background(), "run-abc")
	require.NoError(t, err)
	assert.Equal(t, "COMPLETED", rec.Status)
	assert.Equal(t, "api", rec.RequestedBy)
	assert.Equal(t, 2, rec.InspectionCount)
	assert.Equal(t, 1, rec.InspectorCount)
	assert.InDelta(t, 12.3, rec.TotalKm, 1e-9)
	assert.True(t, rec.Date.Equal(date))

	var proposals int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM route_proposals WHERE run_id = 'run-abc';`).Scan(&proposals))
	assert.Equal(t, 2, proposals)
}

func TestGetRunUnknownID(t *testing.T) {
	db := openTestDB(t)
	store := NewSqliteRunStore(db)

	_, err := store.GetRun(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
