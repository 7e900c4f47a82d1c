package static

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"
)

func TestVersion(t *testing.T) {
	v := Version()
	if len(v) != 10 {
		t.Errorf("Version() = %q, want 10 hex chars", v)
	}
	if v != Version() {
		t.Error("Version() should be stable across calls")
	}
}

func TestFS_ContainsCoreAssets(t *testing.T) {
	fsys := FS()
	for _, name := range []string{"css/site.css", "js/contact.js"} {
		if _, err := fsys.Open(name); err != nil {
			t.Errorf("missing embedded asset %s: %v", name, err)
		}
	}
}

func TestHandler_ServesPlainFile(t *testing.T) {
	h := Handler("/static", FS())

	req := httptest.NewRequest(http.MethodGet, "/static/css/site.css", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if cc := rec.Header().Get("Cache-Control"); !strings.Contains(cc, "immutable") {
		t.Errorf("Cache-Control = %q", cc)
	}
	if enc := rec.Header().Get("Content-Encoding"); enc != "" {
		t.Errorf("no precompressed variant exists, Content-Encoding = %q", enc)
	}
}

func TestHandler_ServesPrecompressedVariant(t *testing.T) {
	fsys := fstest.MapFS{
		"css/site.css":    {Data: []byte("body{}")},
		"css/site.css.gz": {Data: []byte("gzip-bytes")},
	}
	h := Handler("/static", fsys)

	req := httptest.NewRequest(http.MethodGet, "/static/css/site.css", nil)
	req.Header.Set("Accept-Encoding", "gzip, deflate")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if enc := rec.Header().Get("Content-Encoding"); enc != "gzip" {
		t.Errorf("Content-Encoding = %q, want gzip", enc)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "text/css") {
		t.Errorf("Content-Type = %q, want the original file's type", ct)
	}
	if got := rec.Body.String(); got != "gzip-bytes" {
		t.Errorf("body = %q", got)
	}
}

func TestHandler_SkipsVariantWhenNotAccepted(t *testing.T) {
	fsys := fstest.MapFS{
		"css/site.css":    {Data: []byte("body{}")},
		"css/site.css.br": {Data: []byte("br-bytes")},
	}
	h := Handler("/static", fsys)

	req := httptest.NewRequest(http.MethodGet, "/static/css/site.css", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if enc := rec.Header().Get("Content-Encoding"); enc != "" {
		t.Errorf("Content-Encoding = %q, want none", enc)
	}
	if got := rec.Body.String(); got != "body{}" {
		t.Errorf("body = %q", got)
	}
}

func TestHandler_MissingFile(t *testing.T) {
	h := Handler("/static", FS())

	req := httptest.NewRequest(http.MethodGet, "/static/nope.css", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestAcceptsEncoding(t *testing.T) {
	tests := []struct {
		header   string
		encoding string
		want     bool
	}{
		{"gzip, deflate, br", "br", true},
		{"gzip, deflate", "br", false},
		{"gzip;q=0.8", "gzip", true},
		{"", "gzip", false},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		if tt.header != "" {
			r.Header.Set("Accept-Encoding", tt.header)
		}
		if got := acceptsEncoding(r, tt.encoding); got != tt.want {
			t.Errorf("acceptsEncoding(%q, %q) = %v, want %v", tt.header, tt.encoding, got, tt.want)
		}
	}
}
