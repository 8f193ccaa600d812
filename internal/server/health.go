package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

// Pinger is any dependency the health check can ping.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthResponse maps each dependency to its status.
type HealthResponse map[string]healthResult

type healthResult struct {
	Status string `json:"status"`
}

// handleHealth pings sqlite and, when configured, redis.
func handleHealth(logger *slog.Logger, db, rdb Pinger) http.HandlerFunc {
	checks := map[string]Pinger{}
	if db != nil {
		checks["sqlite"] = db
	}
	if rdb != nil {
		checks["redis"] = rdb
	}

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		result := HealthResponse{}
		status := http.StatusOK
		for name, p := range checks {
			result[name] = healthResult{Status: "ok"}
			if err := p.Ping(ctx); err != nil {
				logger.Error("health check failed", "name", name, "error", err)
				result[name] = healthResult{Status: "error"}
				status = http.StatusServiceUnavailable
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(result)
	}
}
