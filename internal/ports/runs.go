package ports

import (
	"context"

	"inspection-route-service/internal/domain"
)

// Port: a boundary for persisting finished optimization runs.
type RunStore interface {
	// Persist the run and its proposed stop assignments, returning the
	// stored run id. Failures wrap domain.ErrPersistence.
	SaveRun(ctx context.Context, run *domain.RunResult, scope domain.RunScope) (string, error)
}
