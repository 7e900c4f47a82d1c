// internal/health/health.go
package health

import (
	"context"
	"net/http"

	"github.com/copperowls/website/internal/httputil"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Check represents a single health probe. It should return nil if the
// dependency is healthy, or a non-nil error describing the problem.
// The ctx passed in is derived from the incoming request context.
type Check func(ctx context.Context) error

// Response is the JSON structure returned by the health handler.
type Response struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Handler returns an http.Handler that runs the provided checks on each
// request and returns a JSON response.
// With no checks it is a plain liveness probe: { "status": "ok" }.
// If any check fails, the handler responds 503 with the failing checks named.
func Handler(checks map[string]Check, logger *zap.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(checks) == 0 {
			httputil.WriteJSON(w, http.StatusOK, Response{Status: "ok"})
			return
		}

		ctx := r.Context()
		results := make(map[string]string, len(checks))
		anyErr := false

		for name, check := range checks {
			if check == nil {
				results[name] = "ok"
				continue
			}
			if err := check(ctx); err != nil {
				anyErr = true
				msg := "error"
				if err.Error() != "" {
					msg = "error: " + err.Error()
				}
				results[name] = msg

				if logger != nil {
					logger.Warn("health check failed",
						zap.String("check", name),
						zap.Error(err),
					)
				}
			} else {
				results[name] = "ok"
			}
		}

		if anyErr {
			httputil.WriteJSON(w, http.StatusServiceUnavailable, Response{
				Status: "error",
				Checks: results,
			})
			return
		}

		httputil.WriteJSON(w, http.StatusOK, Response{
			Status: "ok",
			Checks: results,
		})
	})
}

// Mount attaches a GET /healthz route running the given checks.
func Mount(r chi.Router, checks map[string]Check, logger *zap.Logger) {
	r.Method(http.MethodGet, "/healthz", Handler(checks, logger))
}
