package dto

type AssignmentRequest struct {
	InspectorID   string   `json:"inspector_id"`
	InspectionIDs []string `json:"inspection_ids"`
}

type OptimizeRequest struct {
	Date         string              `json:"date"`
	Assignments  []AssignmentRequest `json:"assignments"`
	AlignMinutes int                 `json:"align_minutes"`
	RequestedBy  string              `json:"requested_by"`
}

type StopResponse struct {
	Sequence               int    `json:"sequence"`
	InspectionID           string `json:"inspection_id"`
	Address                string `json:"address"`
	InspectionType         string `json:"inspection_type,omitempty"`
	Rooms                  int    `json:"rooms,omitempty"`
	StartTime              string `json:"start_time"`
	EndTime                string `json:"end_time"`
	DurationMinutes        int    `json:"duration_minutes"`
	TravelFromPreviousMins int    `json:"travel_from_previous_mins"`
}

type RouteResponse struct {
	InspectorID        string         `json:"inspector_id"`
	InspectorName      string         `json:"inspector_name"`
	HomeAddress        string         `json:"home_address,omitempty"`
	TotalInspections   int            `json:"total_inspections"`
	TotalKm            float64        `json:"total_km"`
	TotalTravelMinutes int            `json:"total_travel_minutes"`
	StartTime          string         `json:"start_time"`
	EndTime            string         `json:"end_time"`
	Degraded           bool           `json:"degraded"`
	Stops              []StopResponse `json:"stops"`
}

type MetricsResponse struct {
	TotalScheduled     int     `json:"total_scheduled"`
	TotalInspectors    int     `json:"total_inspectors"`
	TotalTravelKm      float64 `json:"total_travel_km"`
	TotalTravelMinutes int     `json:"total_travel_minutes"`
	ExecutionSeconds   float64 `json:"execution_seconds"`
}

type ErrorEntry struct {
	InspectorID  string `json:"inspector_id,omitempty"`
	InspectionID string `json:"inspection_id,omitempty"`
	Code         string `json:"code"`
	Reason       string `json:"reason"`
}

// Errors intentionally has no omitempty: a clean run serializes it as null
// so callers can tell "nothing failed" from "errors were trimmed".
type OptimizeResponse struct {
	Status  string          `json:"status"`
	RunID   string          `json:"run_id"`
	Routes  []RouteResponse `json:"routes"`
	Metrics MetricsResponse `json:"metrics"`
	Errors  []ErrorEntry    `json:"errors"`
}
