package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"neogen/internal/http/handlers"
	"neogen/internal/middleware"
)

// Options carries the cross-cutting HTTP settings.
type Options struct {
	AllowedOrigins  []string
	DefaultLocale   string
	CountryLookup   middleware.CountryLookup
	RateLimitPerMin int
	Recorder        middleware.HTTPRecorder
	// Metrics is mounted at /metrics when set.
	Metrics http.Handler
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(
		chimw.RealIP,
		middleware.RequestID,
		middleware.Logger(*app.Logger, opts.Recorder),
		chimw.Recoverer,
		middleware.CORS(opts.AllowedOrigins),
		middleware.I18N(opts.DefaultLocale, opts.CountryLookup),
	)

	r.Get("/v1/healthz", app.Health)
	r.Get("/v1/openapi.json", app.OpenAPIJSON)
	r.Get("/v1/docs", app.OpenAPIDocs)
	if opts.Metrics != nil {
		r.Handle("/metrics", opts.Metrics)
	}

	r.Route("/api", func(r chi.Router) {
		r.With(middleware.RateLimit(opts.RateLimitPerMin, time.Minute)).Post("/generate", app.Generate)
		r.Get("/generations", app.ListGenerations)
		r.Get("/generations/{id}", app.GetGeneration)
	})

	return r
}
