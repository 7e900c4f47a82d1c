// internal/web/templates/adapter.go
package templates

import (
	"net/http"

	"go.uber.org/zap"
)

var (
	engine *Engine
	logger *zap.Logger
)

// UseEngine installs the engine and logger used by the helper Render function.
func UseEngine(e *Engine, l *zap.Logger) {
	engine = e
	logger = l
}

// Render executes a full page (entry template that calls the layout).
// Render errors become a 500; the page buffer in Engine.Render guarantees
// nothing partial was written first.
func Render(w http.ResponseWriter, r *http.Request, name string, data any) {
	if engine == nil {
		if logger != nil {
			logger.Error("render called before engine installed", zap.String("name", name))
		}
		http.Error(w, "template exec error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := engine.Render(w, name, data); err != nil {
		if logger != nil {
			logger.Error("template render failed", zap.String("name", name), zap.Error(err))
		}
		http.Error(w, "template exec error", http.StatusInternalServerError)
	}
}
