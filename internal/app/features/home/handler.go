// internal/app/features/home/handler.go
package home

import (
	"embed"
	"net/http"

	"github.com/copperowls/website/internal/app/features/shared"
	"github.com/copperowls/website/internal/web/templates"
	"go.uber.org/zap"
)

//go:embed templates
var templatesFS embed.FS

func init() {
	templates.Register(templates.Set{
		Name:     "home",
		FS:       templatesFS,
		Patterns: []string{"templates/*.gohtml"},
	})
}

type Handler struct {
	Logger   *zap.Logger
	SiteName string
}

func NewHandler(logger *zap.Logger, siteName string) *Handler {
	return &Handler{Logger: logger, SiteName: siteName}
}

func (h *Handler) ServeHome(w http.ResponseWriter, r *http.Request) {
	templates.Render(w, r, "home", shared.NewPage(h.SiteName, "Home", "home"))
}
