package ports

import (
	"context"
	"time"

	"inspection-route-service/internal/domain"
)

// Port: a boundary for resolving inspector master data.
type InspectorDirectory interface {
	// Return the inspector's home location and working window for the given
	// date. Unknown inspectors fail with domain.ErrNotFound.
	GetInspector(ctx context.Context, inspectorID string, date time.Time) (domain.Inspector, error)
}

// Port: a boundary for resolving inspection attributes.
type InspectionDirectory interface {
	// Return attributes for the given inspection ids. Ids not present in the
	// directory are absent from the result; the caller decides how to treat
	// them.
	GetInspections(ctx context.Context, ids []string) ([]domain.Stop, error)
}
