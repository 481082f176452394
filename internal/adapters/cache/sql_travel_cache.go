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

// SQLTravelCache is a Postgres-backed cache for directed travel cost
// lookups, shared between service instances.
type SQLTravelCache struct {
	DB *sql.DB
}

func NewSQLTravelCache(db *sql.DB) *SQLTravelCache {
	return &SQLTravelCache{DB: db}
}

// Fetch cached costs for the given pair keys.
func (s *SQLTravelCache) GetMany(ctx context.Context, keys []string) (_ map[string]domain.TravelCost, err error) {
	defer obs.Time(ctx, "travel.cache.GetMany")(&err)

	if s.DB == nil {
		return nil, errors.New("travel cache: db is nil")
	}

	if len(keys) == 0 {
		return map[string]domain.TravelCost{}, nil
	}

	seen := map[string]struct{}{}
	uniq := make([]string, 0, len(keys))
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
	}

	if len(uniq) == 0 {
		return map[string]domain.TravelCost{}, nil
	}

	q := `
	SELECT pair_key, km, minutes
    FROM travel_cache
    WHERE pair_key = ANY($1::text[]);
	`

	rows, err := s.DB.QueryContext(ctx, q, uniq)
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

	obs.CacheLookups.WithLabelValues("postgres", "hit").Add(float64(len(out)))
	obs.CacheLookups.WithLabelValues("postgres", "miss").Add(float64(len(uniq) - len(out)))
	return out, nil
}

// Store many travel costs, overwriting existing entries.
func (s *SQLTravelCache) PutMany(ctx context.Context, costs map[string]domain.TravelCost) error {
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
    VALUES ($1, $2, $3)
	ON CONFLICT (pair_key) DO UPDATE
	SET km = EXCLUDED.km,
		minutes = EXCLUDED.minutes;
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
