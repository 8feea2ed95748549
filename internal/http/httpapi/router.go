package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"storygen/internal/http/handlers"
	"storygen/internal/infra"
	"storygen/internal/middleware"
)

const (
	defaultSubmitLimit  = 30
	defaultSubmitWindow = time.Minute
)

// Options carries the router's cross-cutting configuration.
type Options struct {
	Logger        infra.Logger
	DefaultLocale string
	CountryLookup middleware.CountryLookup
	CORSOrigins   []string

	// StaticDir, when set, is served under /static/ for generated assets.
	StaticDir string

	// SubmitLimit caps story submissions per client IP per SubmitWindow.
	// Zero values fall back to 30 per minute.
	SubmitLimit  int
	SubmitWindow time.Duration
}

// NewRouter wires the story API routes behind the shared middleware chain.
func NewRouter(app *handlers.App, opts Options) http.Handler {
	submitLimit := opts.SubmitLimit
	if submitLimit <= 0 {
		submitLimit = defaultSubmitLimit
	}
	submitWindow := opts.SubmitWindow
	if submitWindow <= 0 {
		submitWindow = defaultSubmitWindow
	}

	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(opts.Logger),
		middleware.I18N(opts.DefaultLocale, opts.CountryLookup),
		middleware.CORS(opts.CORSOrigins),
	)

	r.Get("/v1/healthz", app.Health)

	r.Route("/v1/stories", func(r chi.Router) {
		r.With(middleware.RateLimit(submitLimit, submitWindow)).Post("/", app.SubmitStory)
		r.Get("/{job_id}", app.StoryStatus)
		r.Get("/{job_id}/archive", app.StoryArchive)
	})

	r.Get("/v1/facts", app.Facts)
	r.Get("/v1/events", app.JobEvents)
	r.Get("/v1/openapi.json", app.OpenAPIJSON)
	r.Get("/v1/docs", app.OpenAPIDocs)

	if opts.StaticDir != "" {
		fileServer := http.StripPrefix("/static/", http.FileServer(http.Dir(opts.StaticDir)))
		r.Get("/static/*", fileServer.ServeHTTP)
	}

	return r
}
