package api

import (
	"net/http"
	"time"

	"inspection-route-service/internal/api/handlers"
	"inspection-route-service/internal/platform/obs"
	"inspection-route-service/internal/services"
)

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(coordinator *services.Coordinator, loc *time.Location, version string) http.Handler {
	mux := http.NewServeMux()

	stats := handlers.NewStats()
	routeHandler := &handlers.RouteHandler{Coordinator: coordinator, Loc: loc}
	healthHandler := &handlers.HealthHandler{Stats: stats, Version: version}

	mux.HandleFunc("/health", healthHandler.Health)
	mux.HandleFunc("/optimize-routes", routeHandler.Optimize)
	mux.HandleFunc("/preview-routes", routeHandler.Preview)
	mux.Handle("/metrics", obs.MetricsHandler())

	return loggingMiddleware(mux, stats)
}
