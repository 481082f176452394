package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"strings"
	"time"

	"inspection-route-service/internal/api/dto"
	"inspection-route-service/internal/domain"
	"inspection-route-service/internal/platform/obs"
	"inspection-route-service/internal/services"
)

const clockLayout = "15:04"

// RouteHandler serves route optimization over the assignments in the
// request body. Optimize persists the run, Preview only computes it.
type RouteHandler struct {
	Coordinator *services.Coordinator
	Loc         *time.Location
}

func (h *RouteHandler) Optimize(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, true)
}

func (h *RouteHandler) Preview(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, false)
}

func (h *RouteHandler) handle(w http.ResponseWriter, r *http.Request, save bool) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req dto.OptimizeRequest

	dec := json.NewDecoder(r.Body)
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json body")
		return
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		writeError(w, r, http.StatusBadRequest, "body must contain only one JSON object")
		return
	}

	if req.Date == "" {
		writeError(w, r, http.StatusBadRequest, "Missing required field: date")
		return
	}
	loc := h.location()
	date, err := time.ParseInLocation("2006-01-02", req.Date, loc)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid date format. Use YYYY-MM-DD")
		return
	}
	if msg := validateAssignments(req.Assignments); msg != "" {
		writeError(w, r, http.StatusBadRequest, msg)
		return
	}

	runReq := services.RunRequest{
		Date:         date,
		Assignments:  make([]services.Assignment, 0, len(req.Assignments)),
		AlignMinutes: req.AlignMinutes,
		RequestedBy:  req.RequestedBy,
	}
	for _, a := range req.Assignments {
		runReq.Assignments = append(runReq.Assignments, services.Assignment{
			InspectorID:   a.InspectorID,
			InspectionIDs: a.InspectionIDs,
		})
	}

	mode := "preview"
	run := h.Coordinator.Preview
	if save {
		mode = "optimize"
		run = h.Coordinator.OptimizeAndSave
	}

	result, err := run(r.Context(), runReq)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			writeError(w, r, http.StatusBadRequest, "invalid request")
			return
		}
		log.Printf("%s run failed: %v", mode, err)
		obs.OptimizeRuns.WithLabelValues(mode, "error").Inc()
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	obs.OptimizeRuns.WithLabelValues(mode, result.Status).Inc()
	writeJSON(w, r, http.StatusOK, toOptimizeResponse(result, loc))
}

func (h *RouteHandler) location() *time.Location {
	if h.Loc != nil {
		return h.Loc
	}
	return time.UTC
}

// validateAssignments checks the request contract: every assignment names an
// inspector and at least one inspection. Returns the message for the first
// violation, or "" when the list is well-formed. A missing field and an
// explicitly empty array get distinct messages.
func validateAssignments(assignments []dto.AssignmentRequest) string {
	if assignments == nil {
		return "Missing required field: assignments"
	}
	if len(assignments) == 0 {
		return "Assignments array is empty"
	}
	for i, a := range assignments {
		if strings.TrimSpace(a.InspectorID) == "" {
			return fmt.Sprintf("Assignment %d missing inspector_id", i)
		}
		if len(a.InspectionIDs) == 0 {
			return fmt.Sprintf("Assignment %d missing inspection_ids", i)
		}
	}
	return ""
}

func toOptimizeResponse(result *domain.RunResult, loc *time.Location) dto.OptimizeResponse {
	res := dto.OptimizeResponse{
		Status: result.Status,
		RunID:  result.RunID,
		Routes: make([]dto.RouteResponse, 0, len(result.Routes)),
		Metrics: dto.MetricsResponse{
			TotalScheduled:     result.Metrics.TotalScheduled,
			TotalInspectors:    result.Metrics.TotalInspectors,
			TotalTravelKm:      result.Metrics.TotalTravelKm,
			TotalTravelMinutes: result.Metrics.TotalTravelMinutes,
			ExecutionSeconds:   result.Metrics.ExecutionSeconds,
		},
	}

	for _, route := range result.Routes {
		rr := dto.RouteResponse{
			InspectorID:        route.InspectorID,
			InspectorName:      route.InspectorName,
			HomeAddress:        route.HomeAddress,
			TotalInspections:   len(route.Stops),
			TotalKm:            math.Round(route.TotalKm*10) / 10,
			TotalTravelMinutes: route.TotalTravelMinutes,
			StartTime:          route.Start.In(loc).Format(clockLayout),
			EndTime:            route.End.In(loc).Format(clockLayout),
			Degraded:           route.Degraded,
			Stops:              make([]dto.StopResponse, 0, len(route.Stops)),
		}
		for _, s := range route.Stops {
			rr.Stops = append(rr.Stops, dto.StopResponse{
				Sequence:               s.Sequence,
				InspectionID:           s.ID,
				Address:                s.Address,
				InspectionType:         s.Category,
				Rooms:                  s.Rooms,
				StartTime:              s.Start.In(loc).Format(clockLayout),
				EndTime:                s.End.In(loc).Format(clockLayout),
				DurationMinutes:        s.ServiceMinutes,
				TravelFromPreviousMins: s.TravelFromPreviousMins,
			})
		}
		res.Routes = append(res.Routes, rr)
	}

	for _, e := range result.Errors {
		res.Errors = append(res.Errors, dto.ErrorEntry{
			InspectorID:  e.InspectorID,
			InspectionID: e.StopID,
			Code:         string(e.Code),
			Reason:       e.Reason,
		})
	}

	return res
}
