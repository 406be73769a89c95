// Package api provides the operational HTTP endpoints of the reservation web
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// readyTimeout bounds how long a readiness probe waits for dependencies
const readyTimeout = 2 * time.Second

// HealthResponse represents the response for health check endpoints
type HealthResponse struct {
	Status string `json:"status"`
}

// Pinger is a dependency the service cannot work without
type Pinger interface {
	Ping(ctx context.Context) error
}

func writeHealth(w http.ResponseWriter, status int, response HealthResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(response)
}

// HealthLiveHandler handles Kubernetes liveness probe requests
func HealthLiveHandler(w http.ResponseWriter, r *http.Request) {
	writeHealth(w, http.StatusOK, HealthResponse{Status: "UP"})
}

// HealthReadyHandler handles Kubernetes readiness probe requests. The
// instance is ready once every dependency answers a ping.
func HealthReadyHandler(deps ...Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()

		for _, dep := range deps {
			if err := dep.Ping(ctx); err != nil {
				zerolog.Ctx(r.Context()).Warn().Err(err).Msg("Readiness check failed")
				writeHealth(w, http.StatusServiceUnavailable, HealthResponse{Status: "DOWN"})
				return
			}
		}

		writeHealth(w, http.StatusOK, HealthResponse{Status: "UP"})
	}
}
