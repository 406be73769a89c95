package api

import (
	"net/http"
)

// SetupRoutes configures the HTTP routes for the API. The readiness probe
// pings deps.
func SetupRoutes(deps ...Pinger) *http.ServeMux {
	mux := http.NewServeMux()

	// Health check endpoints for Kubernetes
	mux.HandleFunc("GET /health/live", HealthLiveHandler)
	mux.HandleFunc("GET /health/ready", HealthReadyHandler(deps...))

	return mux
}
