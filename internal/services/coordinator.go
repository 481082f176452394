package services

import (
	"context"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"inspection-route-service/internal/domain"
	"inspection-route-service/internal/ports"
)

const defaultWorkers = 5

// Assignment pairs one inspector with the inspections they should visit.
// The pairing is taken as given; inspections are never moved between
// inspectors here.
type Assignment struct {
	InspectorID   string
	InspectionIDs []string
}

// RunRequest describes one optimization run over a set of assignments.
type RunRequest struct {
	Date         time.Time
	Assignments  []Assignment
	AlignMinutes int
	RequestedBy  string
}

// Coordinator fans one run out over all requested inspectors, sequencing
// and scheduling each one independently. A failing inspector becomes an
// error entry in the result instead of aborting the others.
type Coordinator struct {
	Inspectors  ports.InspectorDirectory
	Inspections ports.InspectionDirectory
	Resolver    *TravelResolver
	Runs        ports.RunStore
	Workers     int
	// DefaultAlignMinutes applies when a request leaves align_minutes unset.
	DefaultAlignMinutes int
}

type agentOutcome struct {
	route *domain.Route
	errs  []domain.AgentError
}

// Preview computes routes without persisting anything. The routes are
// identical to what OptimizeAndSave would produce for the same request.
func (c *Coordinator) Preview(ctx context.Context, req RunRequest) (*domain.RunResult, error) {
	return c.run(ctx, req, false)
}

// OptimizeAndSave computes routes and persists the run. When the store
// returns its own run id it replaces the locally generated one. A
// persistence failure is reported at run level; the computed routes are
// still returned.
func (c *Coordinator) OptimizeAndSave(ctx context.Context, req RunRequest) (*domain.RunResult, error) {
	return c.run(ctx, req, true)
}

func (c *Coordinator) run(ctx context.Context, req RunRequest, save bool) (*domain.RunResult, error) {
	started := time.Now()

	if req.Date.IsZero() {
		return nil, fmt.Errorf("optimize run: %w: date must be set", domain.ErrInvalidInput)
	}
	if len(req.Assignments) == 0 {
		return nil, fmt.Errorf("optimize run: %w: assignments must not be empty", domain.ErrInvalidInput)
	}
	if req.AlignMinutes <= 0 {
		req.AlignMinutes = c.DefaultAlignMinutes
	}

	workers := c.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}

	// Inspectors are independent: fan out over a bounded pool and collect
	// outcomes by input index so response order matches request order no
	// matter which worker finishes first.
	outcomes := make([]agentOutcome, len(req.Assignments))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range req.Assignments {
		idx, a := i, req.Assignments[i]
		g.Go(func() error {
			outcomes[idx] = c.runAgent(gctx, req, a)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("optimize run: %w", err)
	}

	routes := make([]*domain.Route, 0, len(req.Assignments))
	var errs []domain.AgentError
	for _, o := range outcomes {
		if o.route != nil {
			routes = append(routes, o.route)
		}
		errs = append(errs, o.errs...)
	}

	metrics := domain.RunMetrics{TotalInspectors: len(routes)}
	for _, r := range routes {
		metrics.TotalScheduled += len(r.Stops)
		metrics.TotalTravelKm += r.TotalKm
		metrics.TotalTravelMinutes += r.TotalTravelMinutes
	}
	metrics.TotalTravelKm = math.Round(metrics.TotalTravelKm*10) / 10
	metrics.ExecutionSeconds = math.Round(time.Since(started).Seconds()*100) / 100

	status := domain.StatusSuccess
	if len(errs) > 0 {
		status = domain.StatusPartial
	}

	result := &domain.RunResult{
		RunID:   uuid.NewString(),
		Status:  status,
		Routes:  routes,
		Errors:  errs,
		Metrics: metrics,
	}

	if save {
		if c.Runs == nil {
			return nil, fmt.Errorf("optimize run: no run store configured")
		}

		requestedBy := strings.TrimSpace(req.RequestedBy)
		if requestedBy == "" {
			requestedBy = "api"
		}
		scope := domain.RunScope{Date: req.Date, RequestedBy: requestedBy, TriggeredBy: "api"}

		id, err := c.Runs.SaveRun(ctx, result, scope)
		if err != nil {
			// The computed routes are still worth returning; the failure is
			// reported at run level only.
			log.Printf("run persistence failed: %v", err)
			result.Errors = append(result.Errors, domain.AgentError{
				Code:   domain.CodePersistence,
				Reason: err.Error(),
			})
			result.Status = domain.StatusPartial
		} else if id != "" {
			result.RunID = id
		}
	}

	return result, nil
}

// runAgent builds the route for a single assignment. All failures are
// returned as error entries; none of them may abort the surrounding run.
func (c *Coordinator) runAgent(ctx context.Context, req RunRequest, a Assignment) agentOutcome {
	var out agentOutcome

	inspectorID := strings.TrimSpace(a.InspectorID)
	if inspectorID == "" {
		out.errs = append(out.errs, domain.AgentError{
			Code:   domain.CodeInvalidInput,
			Reason: "inspector id must not be empty",
		})
		return out
	}
	if len(a.InspectionIDs) == 0 {
		out.errs = append(out.errs, domain.AgentError{
			InspectorID: inspectorID,
			Code:        domain.CodeInvalidInput,
			Reason:      "no inspections assigned",
		})
		return out
	}

	inspector, err := c.Inspectors.GetInspector(ctx, inspectorID, req.Date)
	if err != nil {
		out.errs = append(out.errs, domain.AgentError{
			InspectorID: inspectorID,
			Code:        domain.CodeFor(err),
			Reason:      fmt.Sprintf("inspector lookup: %v", err),
		})
		return out
	}
	if inspector.Home.IsZero() {
		out.errs = append(out.errs, domain.AgentError{
			InspectorID: inspectorID,
			Code:        domain.CodeInvalidInput,
			Reason:      "inspector home has no usable coordinates",
		})
		return out
	}

	found, err := c.Inspections.GetInspections(ctx, a.InspectionIDs)
	if err != nil {
		out.errs = append(out.errs, domain.AgentError{
			InspectorID: inspectorID,
			Code:        domain.CodeFor(err),
			Reason:      fmt.Sprintf("inspection lookup: %v", err),
		})
		return out
	}

	byID := make(map[string]domain.Stop, len(found))
	for _, s := range found {
		byID[s.ID] = s
	}

	seen := make(map[string]struct{}, len(a.InspectionIDs))
	valid := make([]domain.Stop, 0, len(a.InspectionIDs))
	for _, id := range a.InspectionIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}

		s, ok := byID[id]
		if !ok {
			out.errs = append(out.errs, domain.AgentError{
				InspectorID: inspectorID,
				StopID:      id,
				Code:        domain.CodeNotFound,
				Reason:      "inspection not found",
			})
			continue
		}
		if s.Point.IsZero() {
			log.Printf("inspection=%s has no coordinates, skipping", id)
			out.errs = append(out.errs, domain.AgentError{
				InspectorID: inspectorID,
				StopID:      id,
				Code:        domain.CodeInvalidInput,
				Reason:      "inspection has no coordinates",
			})
			continue
		}
		valid = append(valid, s)
	}

	if len(valid) == 0 {
		out.errs = append(out.errs, domain.AgentError{
			InspectorID: inspectorID,
			Code:        domain.CodeInvalidInput,
			Reason:      "no usable inspections for this inspector",
		})
		return out
	}

	seq, err := SequenceRoute(ctx, inspector.Home, valid, c.Resolver)
	if err != nil {
		out.errs = append(out.errs, domain.AgentError{
			InspectorID: inspectorID,
			Code:        domain.CodeFor(err),
			Reason:      err.Error(),
		})
		return out
	}

	out.route = BuildSchedule(inspector, seq, ScheduleOptions{
		DayStart:     inspector.DayStart,
		AlignMinutes: req.AlignMinutes,
	})
	return out
}
