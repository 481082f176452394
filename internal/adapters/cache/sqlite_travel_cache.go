package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"inspection-route-service/internal/domain"
	"inspection-route-service/internal/platform/obs"
)

// SQLite backed cache for directed travel cost lookups. Keys are expected
// to be canonical pair keys (rounded coordinates) produced by the domain.
type SqliteTravelCache struct {
	DB *sql.DB
}

func NewSqliteTravelCache(db *sql.DB) *SqliteTravelCache {
	return &SqliteTravelCache{DB: db}
}

// Fetch cached costs for the given pair keys.
func (s *SqliteTravelCache) GetMany(ctx context.Context, keys []string) (map[string]domain.TravelCost, error) {
	if s.DB == nil {
		return nil, errors.New("travel cache: db is nil")
	}

	if len(keys) == 0 {
		return map[string]domain.TravelCost{}, nil
	}

	seen := map[string]struct{}{}
	uniq := make([]string, 0, len(keys))
	ph := make([]string, 0, len(keys))
	for _, k := range keys {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}

		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		uniq = append(uniq, k)
		ph = append(ph, "?")
	}

	if len(uniq) == 0 {
		return map[string]domain.TravelCost{}, nil
	}

	placeholders := strings.Join(ph, ",")
	args := make([]any, 0, len(uniq))
	for _, k := range uniq {
		args = append(args, k)
	}

	// SQLite does not support binding slices directly in an IN (...) clause.
	// Only the placeholder structure is interpolated; all values remain parameterized.
	q := fmt.Sprintf(`
	SELECT
        pair_key,
        km,
        minutes
    FROM travel_cache
    WHERE pair_key IN (%s);
	`, placeholders)

	rows, err := s.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("get travel cache: query travel_cache table: %w", err)
	}
	defer rows.Close()

	out := make(map[string]domain.TravelCost, len(uniq))
	for rows.Next() {
		var key string
		var km float64
		var minutes int
		if err := rows.Scan(&key, &km, &minutes); err != nil {
			return nil, fmt.Errorf("get travel cache: scan rows: %w", err)
		}
		out[key] = domain.TravelCost{Km: km, Minutes: minutes}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get travel cache: row iteration: %w", err)
	}

	obs.CacheLookups.WithLabelValues("sqlite", "hit").Add(float64(len(out)))
	obs.CacheLookups.WithLabelValues("sqlite", "miss").Add(float64(len(uniq) - len(out)))
	return out, nil
}

// Store many travel costs, overwriting existing entries.
func (s *SqliteTravelCache) PutMany(ctx context.Context, costs map[string]domain.TravelCost) error {
	if s.DB == nil {
		return errors.New("travel cache: db is nil")
	}

	if len(costs) == 0 {
		return nil
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("insert travel cache: db begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO travel_cache (pair_key, km, minutes)
    VALUES (?, ?, ?)
	ON CONFLICT (pair_key) DO UPDATE
	SET km = excluded.km,
		minutes = excluded.minutes;
	`)
	if err != nil {
		return fmt.Errorf("insert travel cache: db prepare: %w", err)
	}
	defer stmt.Close()

	for key, c := range costs {
		if strings.TrimSpace(key) == "" {
			return fmt.Errorf("insert travel cache: empty pair key")
		}

		if _, err := stmt.ExecContext(ctx, key, c.Km, c.Minutes); err != nil {
			return fmt.Errorf("insert travel cache key=%q: %w", key, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("insert travel cache commit: %w", err)
	}

	return nil
}
