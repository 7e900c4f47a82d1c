// internal/app/features/shared/shared.go
//
// Package shared holds the layout chrome used by every page: the HTML
// skeleton, nav, footer, and flash region, plus the error pages.
package shared

import (
	"embed"
	"net/http"

	"github.com/copperowls/website/internal/web/static"
	"github.com/copperowls/website/internal/web/templates"
)

//go:embed templates
var templatesFS embed.FS

func init() {
	templates.Register(templates.Set{
		Name:     "shared",
		FS:       templatesFS,
		Patterns: []string{"templates/*.gohtml"},
	})
	templates.Register(templates.Set{
		Name:     "errors",
		FS:       templatesFS,
		Patterns: []string{"templates/errors/*.gohtml"},
	})
}

// Flash is a one-shot notice rendered above the page content.
type Flash struct {
	Kind    string // "success" | "error"
	Message string
}

// Page is the data every layout render receives. Feature pages embed it and
// add their own fields.
type Page struct {
	Title    string
	SiteName string
	Active   string // nav highlight: "home" | "about" | "contact"
	AssetVer string
	Flash    *Flash
}

// NewPage fills the layout fields common to all pages.
func NewPage(siteName, title, active string) Page {
	return Page{
		Title:    title,
		SiteName: siteName,
		Active:   active,
		AssetVer: static.Version(),
	}
}

// NotFoundRenderer returns the HTML body writer used by the router's 404
// handler. The status code is already written by the time it runs.
func NotFoundRenderer(siteName string) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		templates.Render(w, r, "notfound", NewPage(siteName, "Page not found", ""))
	}
}
