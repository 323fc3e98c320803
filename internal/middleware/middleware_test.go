package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type recordedRequest struct {
	method, route string
	status        int
}

type fakeHTTPRecorder struct {
	got []recordedRequest
}

func (f *fakeHTTPRecorder) RecordHTTPRequest(ctx context.Context, method, route string, statusCode int, took time.Duration) {
	f.got = append(f.got, recordedRequest{method, route, statusCode})
}

func TestRequestIDGeneratesAndPropagates(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if _, err := uuid.Parse(seen); err != nil {
		t.Fatalf("expected uuid request id, got %q", seen)
	}
	if rec.Header().Get("X-Request-ID") != seen {
		t.Fatalf("response header mismatch: %q vs %q", rec.Header().Get("X-Request-ID"), seen)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	h.ServeHTTP(httptest.NewRecorder(), req)
	if seen != "abc-123" {
		t.Fatalf("incoming id not propagated: %q", seen)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", strings.Repeat("x", maxRequestIDLength+1))
	h.ServeHTTP(httptest.NewRecorder(), req)
	if len(seen) > maxRequestIDLength {
		t.Fatalf("oversized id accepted")
	}
}

func TestLoggerRecordsRoutePattern(t *testing.T) {
	var buf bytes.Buffer
	rec := &fakeHTTPRecorder{}
	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger(zerolog.New(&buf), rec))
	r.Get("/api/generations/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/generations/42", nil))

	if len(rec.got) != 1 {
		t.Fatalf("expected one recorded request, got %d", len(rec.got))
	}
	if got := rec.got[0]; got.route != "/api/generations/{id}" || got.status != http.StatusNotFound || got.method != http.MethodGet {
		t.Fatalf("unexpected record: %+v", got)
	}
	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("log line is not json: %v: %s", err, buf.String())
	}
	if line["path"] != "/api/generations/42" || line["status"] != float64(404) || line["request_id"] == "" {
		t.Fatalf("unexpected log line: %v", line)
	}
}

func TestCORS(t *testing.T) {
	h := CORS([]string{"https://neo.example.com"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	preflight := httptest.NewRequest(http.MethodOptions, "/api/generate", nil)
	preflight.Header.Set("Origin", "https://neo.example.com")
	preflight.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, preflight)
	if rec.Code != http.StatusNoContent || rec.Header().Get("Access-Control-Allow-Origin") != "https://neo.example.com" {
		t.Fatalf("preflight: %d %v", rec.Code, rec.Header())
	}

	foreign := httptest.NewRequest(http.MethodOptions, "/api/generate", nil)
	foreign.Header.Set("Origin", "https://evil.example")
	foreign.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, foreign)
	if rec.Code != http.StatusForbidden || rec.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Fatalf("foreign preflight: %d %v", rec.Code, rec.Header())
	}

	wildcard := CORS([]string{"*"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	req := httptest.NewRequest(http.MethodPost, "/api/generate", nil)
	req.Header.Set("Origin", "https://anywhere.example")
	rec = httptest.NewRecorder()
	wildcard.ServeHTTP(rec, req)
	if rec.Header().Get("Access-Control-Allow-Origin") != "https://anywhere.example" {
		t.Fatalf("wildcard origin not echoed: %v", rec.Header())
	}
}
