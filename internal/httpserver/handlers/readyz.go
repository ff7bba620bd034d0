package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/marks/internal/httpserver/deps"
	"github.com/MrSnakeDoc/marks/internal/logger"
)

type readyzResponse struct {
	Ready    bool `json:"ready"`
	Database bool `json:"database"`
	Redis    bool `json:"redis"`
}

// Readyz reports 200 once both the database and Redis answer, 503 otherwise.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		resp := readyzResponse{Database: true, Redis: true}
		if err := d.Data.Ping(ctx); err != nil {
			d.Logger.Warn("readiness: database unavailable", logger.Error(err))
			resp.Database = false
		}
		if d.RedisClient == nil || d.RedisClient.Ping(ctx).Err() != nil {
			resp.Redis = false
		}
		resp.Ready = resp.Database && resp.Redis

		status := http.StatusOK
		if !resp.Ready {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, resp)
	}
}
