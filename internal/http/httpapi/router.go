package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"postpilot/internal/http/handlers"
	"postpilot/internal/infra"
	"postpilot/internal/middleware"
)

// Options carries the cross-cutting router configuration.
type Options struct {
	Logger          infra.Logger
	DefaultLocale   string
	CountryLookup   middleware.CountryLookup
	CORSOrigins     []string
	RateLimitPerMin int
}

// NewRouter assembles the HTTP surface.
func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(opts.Logger),
		middleware.CORS(opts.CORSOrigins),
		middleware.Locale(opts.DefaultLocale, opts.CountryLookup),
	)

	r.Get("/healthz", app.Health)
	r.Get("/media/{key}", app.ServeMedia)

	r.Route("/oauth/meta", func(r chi.Router) {
		r.Get("/login", app.OAuthLogin)
		r.Get("/callback", app.OAuthCallback)
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.RateLimit(opts.RateLimitPerMin, time.Minute))

		r.Post("/generate", app.Generate)
		r.Route("/jobs", func(r chi.Router) {
			r.Get("/", app.ListJobs)
			r.Get("/{id}", app.GetJob)
			r.Post("/{id}/schedule", app.ScheduleJob)
			r.Post("/{id}/publish", app.PublishJob)
		})
		r.Delete("/schedules/{id}", app.CancelSchedule)
	})

	return r
}
