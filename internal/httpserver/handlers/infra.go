package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/marks/internal/httpserver/deps"
)

type componentStatus struct {
	OK         bool   `json:"ok"`
	Mode       string `json:"mode,omitempty"`
	Impact     string `json:"impact,omitempty"`
	LastImport string `json:"last_import,omitempty"`
	Imported   *int   `json:"imported,omitempty"`
	Error      string `json:"error,omitempty"`
}

type infraResponse struct {
	Status     string                     `json:"status"`
	Components map[string]componentStatus `json:"components"`
}

// Infra reports the state of every backing component.
func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		components := map[string]componentStatus{
			"database": checkDatabase(ctx, d),
			"redis":    checkRedis(ctx, d),
			"feed": {
				OK:   true,
				Mode: d.FeedBackend,
			},
		}
		if d.Import != nil {
			components["import"] = importStatus(d.Import)
		}

		writeJSON(w, http.StatusOK, infraResponse{
			Status:     determineStatus(components),
			Components: components,
		})
	}
}

func determineStatus(components map[string]componentStatus) string {
	if db, ok := components["database"]; ok && !db.OK {
		return "critical" // nothing can be read or written
	}
	for _, c := range components {
		if !c.OK {
			return "degraded"
		}
	}
	return "ok"
}

func checkDatabase(ctx context.Context, d deps.Deps) componentStatus {
	if err := d.Data.Ping(ctx); err != nil {
		return componentStatus{OK: false, Impact: "bookmarks-unavailable", Error: err.Error()}
	}
	return componentStatus{OK: true}
}

func checkRedis(ctx context.Context, d deps.Deps) componentStatus {
	if d.RedisClient == nil {
		return componentStatus{
			OK:     false,
			Mode:   "degraded",
			Impact: "sign-in-disabled",
			Error:  "client not initialized",
		}
	}

	if err := d.RedisClient.Ping(ctx).Err(); err != nil {
		return componentStatus{
			OK:     false,
			Mode:   "degraded",
			Impact: "sign-in-disabled",
			Error:  "timeout",
		}
	}

	return componentStatus{OK: true, Mode: "optimal"}
}

func importStatus(s deps.ImportStatus) componentStatus {
	last := "never"
	if t := s.LastRun(); !t.IsZero() {
		last = t.Format("2006-01-02 15:04:05")
	}
	added := s.LastAdded()
	st := componentStatus{OK: true, LastImport: last, Imported: &added}
	if err := s.LastError(); err != nil {
		st.OK = false
		st.Error = err.Error()
	}
	return st
}
