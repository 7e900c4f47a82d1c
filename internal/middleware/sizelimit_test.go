package middleware

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestLimitBodySize_RejectsOversizedBody(t *testing.T) {
	h := LimitBodySize(16)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, err := io.ReadAll(r.Body)
		if err == nil {
			t.Error("expected read error for oversized body")
		}
		var mbe *http.MaxBytesError
		if !errors.As(err, &mbe) {
			t.Errorf("err = %v, want MaxBytesError", err)
		}
	}))

	req := httptest.NewRequest(http.MethodPost, "/contact", strings.NewReader(strings.Repeat("x", 64)))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
}

func TestLimitBodySize_AllowsBodyWithinLimit(t *testing.T) {
	h := LimitBodySize(64)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("unexpected read error: %v", err)
		}
		if string(body) != "hello" {
			t.Errorf("body = %q", body)
		}
	}))

	req := httptest.NewRequest(http.MethodPost, "/contact", strings.NewReader("hello"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
}

func TestLimitBodySize_ZeroIsNoOp(t *testing.T) {
	big := strings.Repeat("x", 1<<16)
	h := LimitBodySize(0)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("unexpected read error: %v", err)
		}
		if len(body) != len(big) {
			t.Errorf("read %d bytes, want %d", len(body), len(big))
		}
	}))

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(big))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
}
