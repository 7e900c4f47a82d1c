package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestAcceptsHTML(t *testing.T) {
	tests := []struct {
		name   string
		accept string
		want   bool
	}{
		{"browser", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8", true},
		{"fetch json", "application/json", false},
		{"no header", "", false},
		{"json before html", "application/json, text/html", false},
		{"xhtml only", "application/xhtml+xml", true},
		{"wildcard", "*/*", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.accept != "" {
				r.Header.Set("Accept", tt.accept)
			}
			if got := acceptsHTML(r); got != tt.want {
				t.Errorf("acceptsHTML(%q) = %v, want %v", tt.accept, got, tt.want)
			}
		})
	}
}

func TestNotFoundHandler_JSONFallback(t *testing.T) {
	h := NotFoundHandler(nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "not_found") {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestNotFoundHandler_RendersHTMLForBrowsers(t *testing.T) {
	h := NotFoundHandler(nil, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "<h1>Page not found</h1>")
	})

	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	req.Header.Set("Accept", "text/html")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if !strings.Contains(rec.Header().Get("Content-Type"), "text/html") {
		t.Errorf("Content-Type = %q", rec.Header().Get("Content-Type"))
	}
	if !strings.Contains(rec.Body.String(), "Page not found") {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestMethodNotAllowedHandler(t *testing.T) {
	h := MethodNotAllowedHandler(nil)

	req := httptest.NewRequest(http.MethodDelete, "/contact", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "method_not_allowed") {
		t.Errorf("body = %s", rec.Body.String())
	}
}
