package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"genstudio/internal/http/handlers"
	"genstudio/internal/middleware"
)

// MetricsCollector serves the metrics endpoint and observes requests.
type MetricsCollector interface {
	middleware.RequestRecorder
	Handler() http.Handler
}

type Options struct {
	Logger          zerolog.Logger
	Metrics         MetricsCollector
	CORSOrigins     []string
	RateLimitPerMin int
	DefaultLocale   string
	CountryLookup   middleware.CountryLookup
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()

	var recorder middleware.RequestRecorder
	if opts.Metrics != nil {
		recorder = opts.Metrics
	}

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		middleware.Logger(opts.Logger, recorder),
		chimw.Recoverer,
		middleware.CORS(opts.CORSOrigins),
		middleware.I18N(opts.DefaultLocale, opts.CountryLookup),
	)

	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics.Handler())
	}

	r.Route("/v1", func(r chi.Router) {
		r.Get("/healthz", app.Health)
		r.Route("/credentials", func(r chi.Router) {
			r.Get("/status", app.CredentialStatus)
			r.Post("/select", app.SelectCredential)
		})

		// billable calls
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimit(opts.RateLimitPerMin, time.Minute))
			r.Post("/images/generate", app.ImagesGenerate)
			r.Post("/images/edit", app.ImagesEdit)
			r.Post("/videos", app.VideosCreate)
		})

		r.Get("/videos/{job_id}", app.VideoStatus)
		r.Get("/videos/{job_id}/events", app.VideoEvents)
		r.Get("/blobs/{id}", app.Blob)
	})

	return r
}
