package delivery

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func testSubmission() Submission {
	return Submission{
		Name:      "Ada Lovelace",
		Email:     "ada@example.com",
		EventDate: "2026-10-31",
		Message:   "We'd love to have you play our October wedding.",
	}
}

func TestRelayClient_Deliver(t *testing.T) {
	var got Submission
	var gotAuth, gotCT string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotCT = r.Header.Get("Content-Type")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode relay payload: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewRelayClient(srv.URL, "sekrit", 5*time.Second, nil)
	if err := c.Deliver(context.Background(), testSubmission()); err != nil {
		t.Fatalf("Deliver: %v", err)
	}

	if gotAuth != "Bearer sekrit" {
		t.Errorf("Authorization = %q, want bearer token", gotAuth)
	}
	if gotCT != "application/json" {
		t.Errorf("Content-Type = %q", gotCT)
	}
	if got.Name != "Ada Lovelace" || got.Email != "ada@example.com" {
		t.Errorf("relay payload = %+v", got)
	}
}

func TestRelayClient_NoTokenNoAuthHeader(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
	}))
	defer srv.Close()

	c := NewRelayClient(srv.URL, "", 5*time.Second, nil)
	if err := c.Deliver(context.Background(), testSubmission()); err != nil {
		t.Fatalf("Deliver: %v", err)
	}
	if gotAuth != "" {
		t.Errorf("expected no Authorization header, got %q", gotAuth)
	}
}

func TestRelayClient_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "mailbox full", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewRelayClient(srv.URL, "", 5*time.Second, nil)
	err := c.Deliver(context.Background(), testSubmission())
	if err == nil {
		t.Fatal("expected error for 502 response")
	}
	if !strings.Contains(err.Error(), "502") {
		t.Errorf("error should name the status, got %q", err)
	}
}

func TestRelayClient_SingleAttempt(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewRelayClient(srv.URL, "", 5*time.Second, nil)
	_ = c.Deliver(context.Background(), testSubmission())
	if calls != 1 {
		t.Errorf("expected exactly one relay call, got %d", calls)
	}
}

func TestRelayClient_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	c := NewRelayClient(srv.URL, "", time.Second, nil)
	if err := c.Deliver(context.Background(), testSubmission()); err == nil {
		t.Fatal("expected network error")
	}
}

func TestRelayClient_Ping(t *testing.T) {
	t.Run("reachable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodHead {
				t.Errorf("method = %s, want HEAD", r.Method)
			}
		}))
		defer srv.Close()

		c := NewRelayClient(srv.URL, "", time.Second, nil)
		if err := c.Ping(context.Background()); err != nil {
			t.Errorf("Ping: %v", err)
		}
	})

	t.Run("rejecting responses still count as reachable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusMethodNotAllowed)
		}))
		defer srv.Close()

		c := NewRelayClient(srv.URL, "", time.Second, nil)
		if err := c.Ping(context.Background()); err != nil {
			t.Errorf("Ping should ignore HTTP status, got %v", err)
		}
	})

	t.Run("down", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		srv.Close() // refuse connections

		c := NewRelayClient(srv.URL, "", time.Second, nil)
		if err := c.Ping(context.Background()); err == nil {
			t.Error("expected error for unreachable relay")
		}
	})
}

func TestSubmission_OmitsEmptyOptionalFields(t *testing.T) {
	b, err := json.Marshal(Submission{
		Name:    "Ada",
		Email:   "ada@example.com",
		Message: "Hello there, booking please.",
	})
	if err != nil {
		t.Fatal(err)
	}
	s := string(b)
	if strings.Contains(s, "phone") || strings.Contains(s, "event_date") {
		t.Errorf("empty optional fields should be omitted: %s", s)
	}
	if !strings.Contains(s, `"website":""`) {
		t.Errorf("honeypot field should always be on the wire: %s", s)
	}
}
