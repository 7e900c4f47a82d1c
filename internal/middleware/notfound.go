// internal/middleware/notfound.go
package middleware

import (
	"net/http"
	"strings"

	"github.com/copperowls/website/internal/httputil"
	"go.uber.org/zap"
)

// NotFoundHandler returns a handler that logs a 404 and responds with either
// a rendered HTML page (when the client accepts text/html and renderHTML is
// provided) or a JSON error body. Pass it directly to chi.Router.NotFound(..).
func NotFoundHandler(logger *zap.Logger, renderHTML func(w http.ResponseWriter, r *http.Request)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if logger != nil {
			logger.Info("not_found",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("remote_ip", r.RemoteAddr),
			)
		}

		if renderHTML != nil && acceptsHTML(r) {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.WriteHeader(http.StatusNotFound)
			renderHTML(w, r)
			return
		}

		httputil.JSONError(w, http.StatusNotFound,
			"not_found",
			"The requested resource was not found",
		)
	}
}

// MethodNotAllowedHandler returns a handler that logs a 405 and returns a
// JSON error body. Pass it directly to chi.Router.MethodNotAllowed(..).
func MethodNotAllowedHandler(logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if logger != nil {
			logger.Info("method_not_allowed",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("remote_ip", r.RemoteAddr),
			)
		}

		httputil.JSONError(w, http.StatusMethodNotAllowed,
			"method_not_allowed",
			"The requested HTTP method is not allowed for this resource",
		)
	}
}

// acceptsHTML reports whether the client's Accept header prefers HTML over
// JSON. Browsers send text/html first; fetch() calls typically ask for JSON
// or send no Accept header at all.
func acceptsHTML(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	if accept == "" {
		return false
	}
	for _, part := range strings.Split(accept, ",") {
		mt := strings.TrimSpace(part)
		if idx := strings.Index(mt, ";"); idx != -1 {
			mt = mt[:idx]
		}
		switch strings.ToLower(strings.TrimSpace(mt)) {
		case "text/html", "application/xhtml+xml":
			return true
		case "application/json":
			return false
		}
	}
	return false
}
