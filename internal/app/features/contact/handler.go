// internal/app/features/contact/handler.go
package contact

import (
	"embed"
	"net/http"
	"strings"

	"github.com/copperowls/website/internal/app/features/shared"
	"github.com/copperowls/website/internal/delivery"
	"github.com/copperowls/website/internal/httputil"
	"github.com/copperowls/website/internal/metrics"
	"github.com/copperowls/website/internal/ratelimit"
	"github.com/copperowls/website/internal/validate"
	"github.com/copperowls/website/internal/web/templates"
	"go.uber.org/zap"
)

//go:embed templates
var templatesFS embed.FS

func init() {
	templates.Register(templates.Set{
		Name:     "contact",
		FS:       templatesFS,
		Patterns: []string{"templates/*.gohtml"},
	})
}

// Handler serves the booking form and runs the submission flow:
// rate limit, decode, honeypot guard, validate, deliver. A submission is
// never stored; it either reaches the deliverer once or is reported failed.
type Handler struct {
	Logger    *zap.Logger
	SiteName  string
	Validator *validate.Validator
	Deliverer delivery.Deliverer
	Limiter   ratelimit.Limiter
}

func NewHandler(logger *zap.Logger, siteName string, deliverer delivery.Deliverer, limiter ratelimit.Limiter) *Handler {
	return &Handler{
		Logger:    logger,
		SiteName:  siteName,
		Validator: validate.New(),
		Deliverer: deliverer,
		Limiter:   limiter,
	}
}

type pageData struct {
	shared.Page
	Form   Form
	Errors map[string][]string
}

type submitResponse struct {
	Status string `json:"status"`
}

// ServeForm renders the booking form. After a successful post the browser is
// redirected here with ?sent=1, which shows the confirmation notice.
func (h *Handler) ServeForm(w http.ResponseWriter, r *http.Request) {
	data := pageData{Page: shared.NewPage(h.SiteName, "Book Us", "contact")}
	if r.URL.Query().Get("sent") == "1" {
		data.Flash = &shared.Flash{
			Kind:    "success",
			Message: "Thanks! Your inquiry is on its way. We'll be in touch within two business days.",
		}
	}
	templates.Render(w, r, "contact", data)
}

// Submit handles POST /contact from both the HTML form and fetch() JSON
// clients. The response shape follows the request: form posts get redirects
// or re-rendered pages, JSON posts get JSON envelopes.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	isJSON := isJSONRequest(r)

	allowed, err := h.Limiter.Allow(r.Context(), ratelimit.ClientIP(r))
	if err != nil {
		// Shared limiter unreachable: fail open rather than block humans.
		h.Logger.Warn("rate limiter unavailable", zap.Error(err))
		allowed = true
	}
	if !allowed {
		metrics.ContactSubmissions.WithLabelValues("rate_limited").Inc()
		h.Logger.Info("contact submission rate limited",
			zap.String("remote_ip", r.RemoteAddr))
		if isJSON {
			httputil.JSONError(w, http.StatusTooManyRequests,
				"rate_limited", "Too many submissions. Please wait a moment and try again.")
			return
		}
		h.renderForm(w, r, http.StatusTooManyRequests, Form{}, nil, &shared.Flash{
			Kind:    "error",
			Message: "Too many submissions. Please wait a moment and try again.",
		})
		return
	}

	var form Form
	if isJSON {
		if err := httputil.BindJSON(r, &form); err != nil {
			httputil.JSONError(w, http.StatusBadRequest, "bad_request", err.Error())
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			h.renderForm(w, r, http.StatusBadRequest, Form{}, nil, &shared.Flash{
				Kind:    "error",
				Message: "We couldn't read that submission. Please try again.",
			})
			return
		}
		form = fromPostForm(r)
	}
	form.normalize()

	// Honeypot: hidden field filled in means automation. Drop it and answer
	// as if it succeeded so the bot learns nothing.
	if form.Website != "" {
		metrics.ContactSubmissions.WithLabelValues("honeypot").Inc()
		h.Logger.Info("contact submission dropped by honeypot",
			zap.String("remote_ip", r.RemoteAddr))
		h.respondAccepted(w, r, isJSON)
		return
	}

	if err := h.Validator.Struct(form); err != nil {
		verrs, _ := err.(validate.Errors)
		metrics.ContactSubmissions.WithLabelValues("invalid").Inc()
		if isJSON {
			httputil.WriteJSON(w, http.StatusUnprocessableEntity, map[string]any{
				"error":   "validation_failed",
				"message": "Please correct the highlighted fields.",
				"fields":  verrs.ToMap(),
			})
			return
		}
		h.renderForm(w, r, http.StatusUnprocessableEntity, form, verrs.ToMap(), nil)
		return
	}

	if err := h.Deliverer.Deliver(r.Context(), form.submission()); err != nil {
		metrics.ContactSubmissions.WithLabelValues("delivery_error").Inc()
		h.Logger.Error("contact submission delivery failed",
			zap.String("email", form.Email),
			zap.Error(err))
		if isJSON {
			httputil.JSONError(w, http.StatusBadGateway,
				"delivery_failed", "We couldn't send your message right now. Please try again later.")
			return
		}
		h.renderForm(w, r, http.StatusBadGateway, form, nil, &shared.Flash{
			Kind:    "error",
			Message: "We couldn't send your message right now. Please try again later.",
		})
		return
	}

	metrics.ContactSubmissions.WithLabelValues("accepted").Inc()
	h.Logger.Info("contact submission delivered",
		zap.String("name", form.Name),
		zap.String("email", form.Email))
	h.respondAccepted(w, r, isJSON)
}

// respondAccepted is the success shape, also used for honeypot drops.
func (h *Handler) respondAccepted(w http.ResponseWriter, r *http.Request, isJSON bool) {
	if isJSON {
		httputil.WriteJSON(w, http.StatusOK, submitResponse{Status: "ok"})
		return
	}
	http.Redirect(w, r, "/contact?sent=1", http.StatusSeeOther)
}

func (h *Handler) renderForm(w http.ResponseWriter, r *http.Request, status int, form Form, fieldErrs map[string][]string, flash *shared.Flash) {
	data := pageData{
		Page:   shared.NewPage(h.SiteName, "Book Us", "contact"),
		Form:   form,
		Errors: fieldErrs,
	}
	data.Flash = flash
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	templates.Render(w, r, "contact", data)
}

func isJSONRequest(r *http.Request) bool {
	ct := r.Header.Get("Content-Type")
	if idx := strings.Index(ct, ";"); idx != -1 {
		ct = ct[:idx]
	}
	return strings.EqualFold(strings.TrimSpace(ct), "application/json")
}
