package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"neogen/internal/domain"
	"neogen/internal/generate"
	"neogen/internal/middleware"
)

type stubGenerator struct {
	prompts []string
	out     generate.Outcome
}

func (s *stubGenerator) Generate(ctx context.Context, prompt string) generate.Outcome {
	s.prompts = append(s.prompts, prompt)
	return s.out
}

type stubHistory struct {
	items   []domain.Generation
	listErr error
	limit   int
}

func (s *stubHistory) Create(ctx context.Context, gen *domain.Generation) error { return nil }

func (s *stubHistory) ListRecent(ctx context.Context, limit int) ([]domain.Generation, error) {
	s.limit = limit
	return s.items, s.listErr
}

func (s *stubHistory) GetByID(ctx context.Context, id string) (*domain.Generation, error) {
	for _, g := range s.items {
		if g.ID == id {
			g := g
			return &g, nil
		}
	}
	return nil, domain.ErrNotFound
}

func newTestRouter(app *App) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.I18N("en", nil))
	r.Post("/api/generate", app.Generate)
	r.Get("/api/generations", app.ListGenerations)
	r.Get("/api/generations/{id}", app.GetGeneration)
	r.Get("/v1/healthz", app.Health)
	r.Get("/v1/openapi.json", app.OpenAPIJSON)
	return r
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not json: %v: %s", err, rec.Body.String())
	}
	return body
}

func TestGenerateReturnsImage(t *testing.T) {
	gen := &stubGenerator{out: generate.Outcome{Image: "https://replicate.delivery/out.png", JobID: "p1"}}
	h := newTestRouter(NewApp(gen, nil, nil))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/generate", strings.NewReader(`{"prompt":"neon cat"}`)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["image"] != "https://replicate.delivery/out.png" || len(body) != 1 {
		t.Fatalf("unexpected body: %v", body)
	}
	if rec.Header().Get("X-Job-ID") != "p1" {
		t.Fatalf("X-Job-ID = %q", rec.Header().Get("X-Job-ID"))
	}
	if len(gen.prompts) != 1 || gen.prompts[0] != "neon cat" {
		t.Fatalf("prompts = %v", gen.prompts)
	}
}

func TestGenerateErrorStatuses(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{domain.InvalidInput("prompt is required"), http.StatusBadRequest},
		{domain.SubmitFailed(http.StatusUnauthorized, "unauthenticated", nil), http.StatusBadGateway},
		{domain.Timeout(nil, 45), http.StatusGatewayTimeout},
		{domain.JobUnsuccessful(&domain.JobRecord{Status: domain.JobStatusFailed}), http.StatusUnprocessableEntity},
		{domain.NoLocatorFound(nil), http.StatusBadGateway},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		code := domain.Code(tc.err)
		t.Run(code, func(t *testing.T) {
			gen := &stubGenerator{out: generate.Outcome{Error: tc.err.Error(), Code: code, Err: tc.err}}
			h := newTestRouter(NewApp(gen, nil, nil))
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/generate", strings.NewReader(`{"prompt":"x"}`)))
			if rec.Code != tc.status {
				t.Fatalf("status = %d, want %d", rec.Code, tc.status)
			}
			body := decodeBody(t, rec)
			if body["error"] != tc.err.Error() || body["code"] != code {
				t.Fatalf("unexpected body: %v", body)
			}
			if _, ok := body["image"]; ok {
				t.Fatalf("error response carries an image: %v", body)
			}
		})
	}
}

func TestGenerateLocalizesErrors(t *testing.T) {
	err := domain.Timeout(nil, 45)
	gen := &stubGenerator{out: generate.Outcome{Error: err.Error(), Code: "timeout", Err: err}}
	h := newTestRouter(NewApp(gen, nil, nil))

	req := httptest.NewRequest(http.MethodPost, "/api/generate", strings.NewReader(`{"prompt":"x"}`))
	req.Header.Set("Accept-Language", "id-ID,id;q=0.9")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	body := decodeBody(t, rec)
	if body["error"] != indonesianMessages["timeout"] || body["code"] != "timeout" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestGenerateRejectsMalformedPayload(t *testing.T) {
	gen := &stubGenerator{}
	h := newTestRouter(NewApp(gen, nil, nil))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/generate", strings.NewReader(`{"prompt":`)))
	if rec.Code != http.StatusBadRequest || decodeBody(t, rec)["code"] != "invalid_payload" {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	if len(gen.prompts) != 0 {
		t.Fatalf("generator called for malformed payload")
	}
}

func TestListGenerations(t *testing.T) {
	history := &stubHistory{items: []domain.Generation{{
		ID:        "5b0c7a4e-9a55-4c43-8f0e-0d7f8f1f0b11",
		JobID:     "p1",
		Prompt:    "neon cat",
		Status:    domain.JobStatusSucceeded,
		ImageURL:  "https://replicate.delivery/out.png",
		Duration:  2 * time.Second,
		CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}}}
	h := newTestRouter(NewApp(&stubGenerator{}, history, nil))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/generations?limit=5", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	if history.limit != 5 {
		t.Fatalf("limit = %d", history.limit)
	}
	items := decodeBody(t, rec)["items"].([]any)
	first := items[0].(map[string]any)
	if first["image"] != "https://replicate.delivery/out.png" || first["duration_ms"] != float64(2000) {
		t.Fatalf("unexpected item: %v", first)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/generations?limit=-1", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("negative limit status = %d", rec.Code)
	}
}

func TestGetGeneration(t *testing.T) {
	history := &stubHistory{items: []domain.Generation{{ID: "g1", Prompt: "p"}}}
	h := newTestRouter(NewApp(&stubGenerator{}, history, nil))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/generations/g1", nil))
	if rec.Code != http.StatusOK || decodeBody(t, rec)["id"] != "g1" {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/generations/missing", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing status = %d", rec.Code)
	}
}

func TestHistoryDisabled(t *testing.T) {
	h := newTestRouter(NewApp(&stubGenerator{}, nil, nil))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/generations", nil))
	if rec.Code != http.StatusServiceUnavailable || decodeBody(t, rec)["code"] != "history_disabled" {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/healthz", nil))
	if body := decodeBody(t, rec); body["status"] != "ok" || body["history"] != "disabled" {
		t.Fatalf("unexpected health body: %v", body)
	}
}

func TestOpenAPIDocumentIsValidJSON(t *testing.T) {
	h := newTestRouter(NewApp(&stubGenerator{}, nil, nil))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/openapi.json", nil))
	body := decodeBody(t, rec)
	paths, ok := body["paths"].(map[string]any)
	if !ok {
		t.Fatalf("missing paths: %v", body)
	}
	if _, ok := paths["/api/generate"]; !ok {
		t.Fatalf("generate path not documented")
	}
}
