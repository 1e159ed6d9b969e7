package api

import (
	"context"
	"net/http"
	"time"
)

// HealthResponse represents the JSON response from the health check endpoint.
type HealthResponse struct {
	Status    string `json:"status"`
	Index     string `json:"index"`
	Error     string `json:"error,omitempty"`
	Timestamp string `json:"timestamp"`
}

// HealthChecker is satisfied by qa.Service.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// NewHealthHandler creates an HTTP handler for the /health endpoint.
// It answers 503 when the index store is unreachable.
func NewHealthHandler(checker HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		response := HealthResponse{
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		}

		if err := checker.Health(ctx); err != nil {
			response.Status = "unhealthy"
			response.Index = "disconnected"
			response.Error = err.Error()
			writeJSON(w, http.StatusServiceUnavailable, response)
			return
		}

		response.Status = "healthy"
		response.Index = "connected"
		writeJSON(w, http.StatusOK, response)
	}
}
