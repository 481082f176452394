package domain

import "time"

const (
	StatusSuccess = "success"
	StatusPartial = "partial"
)

// AgentError records one failure inside an optimization run without
// aborting the run. StopID is empty for agent-level failures and
// InspectorID is empty for run-level failures (e.g. persistence).
type AgentError struct {
	InspectorID string
	StopID      string
	Code        ErrorCode
	Reason      string
}

// RunMetrics aggregates the successful routes of a run.
type RunMetrics struct {
	TotalScheduled     int
	TotalInspectors    int
	TotalTravelKm      float64
	TotalTravelMinutes int
	ExecutionSeconds   float64
}

// RunResult is the outcome of one optimization run across all requested
// inspectors. Routes keeps the input assignment order. Errors stays nil
// when every agent succeeded.
type RunResult struct {
	RunID   string
	Status  string
	Routes  []*Route
	Errors  []AgentError
	Metrics RunMetrics
}

// RunScope carries persistence provenance for a saved run.
type RunScope struct {
	Date        time.Time
	RequestedBy string
	TriggeredBy string
}

// RunRecord is the archived header of a persisted run.
type RunRecord struct {
	RunID              string
	Status             string
	Date               time.Time
	RequestedBy        string
	TriggeredBy        string
	InspectionCount    int
	InspectorCount     int
	TotalKm            float64
	TotalTravelMinutes int
	ExecutionSeconds   float64
	CreatedAt          time.Time
}
