// Package httpapi wires the chi router for the public API.
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/dreamframe/server/internal/http/handlers"
	"github.com/dreamframe/server/internal/metrics"
	"github.com/dreamframe/server/internal/middleware"
)

// Options carries router-level configuration separate from handler wiring.
type Options struct {
	JWTSecret       string
	DefaultLocale   string
	RateLimitPerMin int
	AllowedOrigins  []string
	Logger          zerolog.Logger
	Metrics         *metrics.Metrics
}

// NewRouter assembles middleware and routes. Everything under /v1 except the
// health probe requires a bearer token.
func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(opts.Logger),
		middleware.CORS(opts.AllowedOrigins),
		middleware.Locale(opts.DefaultLocale),
	)
	if opts.RateLimitPerMin > 0 {
		r.Use(middleware.RateLimit(opts.RateLimitPerMin, time.Minute))
	}

	r.Get("/v1/healthz", app.Health)
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics.Handler())
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthJWT(opts.JWTSecret))

		r.Post("/v1/images/generate", app.ImagesGenerate)
		r.Post("/v1/videos/generate", app.VideosGenerate)
		r.Get("/v1/videos/{media_id}", app.VideoStatus)
		r.Get("/v1/history", app.HistoryList)
		r.Get("/v1/prompts/{id}/archive", app.PromptArchive)
		r.Get("/v1/assets/{id}", app.AssetURL)
	})

	return r
}
