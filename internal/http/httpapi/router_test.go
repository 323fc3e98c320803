package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"neogen/internal/generate"
	"neogen/internal/http/handlers"
)

type okGenerator struct{}

func (okGenerator) Generate(ctx context.Context, prompt string) generate.Outcome {
	return generate.Outcome{Image: "https://replicate.delivery/out.png"}
}

type countingRecorder struct {
	routes []string
}

func (c *countingRecorder) RecordHTTPRequest(ctx context.Context, method, route string, statusCode int, took time.Duration) {
	c.routes = append(c.routes, route)
}

func TestRouterWiresRoutesAndMiddleware(t *testing.T) {
	rec := &countingRecorder{}
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("# metrics"))
	})
	h := NewRouter(handlers.NewApp(okGenerator{}, nil, nil), Options{
		DefaultLocale:   "en",
		RateLimitPerMin: 1,
		Recorder:        rec,
		Metrics:         metrics,
	})

	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/generate", strings.NewReader(`{"prompt":"a"}`)))
	if resp.Code != http.StatusOK || resp.Header().Get("X-Request-ID") == "" {
		t.Fatalf("generate: %d %v", resp.Code, resp.Header())
	}

	resp = httptest.NewRecorder()
	h.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/generate", strings.NewReader(`{"prompt":"a"}`)))
	if resp.Code != http.StatusTooManyRequests {
		t.Fatalf("second generate should be rate limited, got %d", resp.Code)
	}

	resp = httptest.NewRecorder()
	h.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if resp.Code != http.StatusOK || resp.Body.String() != "# metrics" {
		t.Fatalf("metrics: %d %q", resp.Code, resp.Body.String())
	}

	resp = httptest.NewRecorder()
	h.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/v1/healthz", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("healthz: %d", resp.Code)
	}

	if len(rec.routes) != 4 || rec.routes[0] != "/api/generate" || rec.routes[3] != "/v1/healthz" {
		t.Fatalf("recorded routes = %v", rec.routes)
	}
}
