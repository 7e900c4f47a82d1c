package contact

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/copperowls/website/internal/delivery"
	"github.com/copperowls/website/internal/middleware"
	"github.com/copperowls/website/internal/web/templates"
	"go.uber.org/zap"
)

type fakeDeliverer struct {
	mu    sync.Mutex
	calls int
	last  delivery.Submission
	err   error
}

func (f *fakeDeliverer) Deliver(_ context.Context, sub delivery.Submission) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.last = sub
	return f.err
}

type stubLimiter struct {
	allow bool
	err   error
}

func (s stubLimiter) Allow(context.Context, string) (bool, error) { return s.allow, s.err }

var bootOnce sync.Once

func bootTemplates(t *testing.T) {
	t.Helper()
	bootOnce.Do(func() {
		e := templates.New()
		if err := e.Boot(zap.NewNop()); err != nil {
			t.Fatalf("boot templates: %v", err)
		}
		templates.UseEngine(e, zap.NewNop())
	})
}

func newTestHandler(d delivery.Deliverer, l stubLimiter) *Handler {
	return NewHandler(zap.NewNop(), "The Copper Owls", d, l)
}

func validJSONBody() string {
	return `{
		"name": "Ada Lovelace",
		"email": "ada@example.com",
		"phone": "+15551234567",
		"event_date": "2026-10-31",
		"message": "We'd love to have you play our October wedding.",
		"website": ""
	}`
}

func postJSON(h *Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/contact", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.Submit(rec, req)
	return rec
}

func TestSubmit_JSON_Accepted(t *testing.T) {
	bootTemplates(t)
	fake := &fakeDeliverer{}
	h := newTestHandler(fake, stubLimiter{allow: true})

	rec := postJSON(h, validJSONBody())

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != "ok" {
		t.Errorf("status = %q, want ok", resp.Status)
	}
	if fake.calls != 1 {
		t.Fatalf("deliverer calls = %d, want 1", fake.calls)
	}
	if fake.last.Name != "Ada Lovelace" || fake.last.Email != "ada@example.com" {
		t.Errorf("delivered submission = %+v", fake.last)
	}
	if fake.last.Website != "" {
		t.Error("honeypot field must be empty in delivered submissions")
	}
}

func TestSubmit_JSON_HoneypotDropsSilently(t *testing.T) {
	bootTemplates(t)
	fake := &fakeDeliverer{}
	h := newTestHandler(fake, stubLimiter{allow: true})

	body := strings.Replace(validJSONBody(), `"website": ""`, `"website": "https://spam.example"`, 1)
	rec := postJSON(h, body)

	// Success-shaped response so automation learns nothing.
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Errorf("expected success-shaped body, got %s", rec.Body.String())
	}
	if fake.calls != 0 {
		t.Errorf("honeypot submission must never reach the deliverer; calls = %d", fake.calls)
	}
}

func TestSubmit_JSON_ValidationErrors(t *testing.T) {
	bootTemplates(t)
	fake := &fakeDeliverer{}
	h := newTestHandler(fake, stubLimiter{allow: true})

	rec := postJSON(h, `{"name":"A","email":"nope","message":"hi","website":""}`)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	var resp struct {
		Error  string              `json:"error"`
		Fields map[string][]string `json:"fields"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Error != "validation_failed" {
		t.Errorf("error = %q", resp.Error)
	}
	for _, field := range []string{"name", "email", "message"} {
		if len(resp.Fields[field]) == 0 {
			t.Errorf("expected errors for field %q, got %v", field, resp.Fields)
		}
	}
	if fake.calls != 0 {
		t.Error("invalid submission must not be delivered")
	}
}

func TestSubmit_JSON_DeliveryFailure(t *testing.T) {
	bootTemplates(t)
	fake := &fakeDeliverer{err: errors.New("relay: unexpected status 500")}
	h := newTestHandler(fake, stubLimiter{allow: true})

	rec := postJSON(h, validJSONBody())

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "delivery_failed") {
		t.Errorf("body = %s", rec.Body.String())
	}
	if fake.calls != 1 {
		t.Errorf("deliverer calls = %d, want exactly 1 (no retries)", fake.calls)
	}
}

func TestSubmit_JSON_RateLimited(t *testing.T) {
	bootTemplates(t)
	fake := &fakeDeliverer{}
	h := newTestHandler(fake, stubLimiter{allow: false})

	rec := postJSON(h, validJSONBody())

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if fake.calls != 0 {
		t.Error("rate-limited submission must not be delivered")
	}
}

func TestSubmit_LimiterErrorFailsOpen(t *testing.T) {
	bootTemplates(t)
	fake := &fakeDeliverer{}
	h := newTestHandler(fake, stubLimiter{allow: false, err: errors.New("redis down")})

	rec := postJSON(h, validJSONBody())

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (fail open)", rec.Code)
	}
	if fake.calls != 1 {
		t.Errorf("deliverer calls = %d, want 1", fake.calls)
	}
}

func TestSubmit_JSON_MalformedBody(t *testing.T) {
	bootTemplates(t)
	h := newTestHandler(&fakeDeliverer{}, stubLimiter{allow: true})

	rec := postJSON(h, `{"name": `)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestSubmit_OversizedBodyRejectedBeforeDelivery(t *testing.T) {
	bootTemplates(t)
	fake := &fakeDeliverer{}
	h := newTestHandler(fake, stubLimiter{allow: true})

	wrapped := middleware.LimitBodySize(256)(http.HandlerFunc(h.Submit))

	big := strings.Replace(validJSONBody(),
		`"message": "We'd love to have you play our October wedding."`,
		`"message": "`+strings.Repeat("a", 1024)+`"`, 1)
	req := httptest.NewRequest(http.MethodPost, "/contact", strings.NewReader(big))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	wrapped.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "too large") {
		t.Errorf("body = %s", rec.Body.String())
	}
	if fake.calls != 0 {
		t.Error("oversized submission must be rejected before delivery")
	}
}

func TestSubmit_Form_RedirectsAfterSuccess(t *testing.T) {
	bootTemplates(t)
	fake := &fakeDeliverer{}
	h := newTestHandler(fake, stubLimiter{allow: true})

	form := url.Values{
		"name":       {"  Ada Lovelace  "},
		"email":      {"ada@example.com"},
		"message":    {"We'd love to have you play our October wedding."},
		"event_date": {"2026-10-31"},
		"website":    {""},
	}
	req := httptest.NewRequest(http.MethodPost, "/contact", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.Submit(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/contact?sent=1" {
		t.Errorf("Location = %q", loc)
	}
	if fake.last.Name != "Ada Lovelace" {
		t.Errorf("form values should be trimmed, got %q", fake.last.Name)
	}
}

func TestSubmit_Form_RerendersWithErrors(t *testing.T) {
	bootTemplates(t)
	h := newTestHandler(&fakeDeliverer{}, stubLimiter{allow: true})

	form := url.Values{
		"name":    {"Ada Lovelace"},
		"email":   {"not-an-email"},
		"message": {"We'd love to have you play."},
	}
	req := httptest.NewRequest(http.MethodPost, "/contact", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.Submit(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "valid email") {
		t.Errorf("expected inline email error in page, got: %s", body)
	}
	if !strings.Contains(body, "Ada Lovelace") {
		t.Error("submitted values should be preserved in the re-rendered form")
	}
}

func TestServeForm(t *testing.T) {
	bootTemplates(t)
	h := newTestHandler(&fakeDeliverer{}, stubLimiter{allow: true})

	req := httptest.NewRequest(http.MethodGet, "/contact", nil)
	rec := httptest.NewRecorder()
	h.ServeForm(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `name="website"`) {
		t.Error("form should include the honeypot field")
	}
	if strings.Contains(body, "on its way") {
		t.Error("confirmation notice should not show on a fresh form")
	}
}

func TestServeForm_ShowsConfirmation(t *testing.T) {
	bootTemplates(t)
	h := newTestHandler(&fakeDeliverer{}, stubLimiter{allow: true})

	req := httptest.NewRequest(http.MethodGet, "/contact?sent=1", nil)
	rec := httptest.NewRecorder()
	h.ServeForm(rec, req)

	if !strings.Contains(rec.Body.String(), "on its way") {
		t.Error("expected confirmation notice with ?sent=1")
	}
}
