package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"visualizer/internal/editor"
	"visualizer/internal/http/handlers"
	"visualizer/internal/infra"
	"visualizer/internal/middleware"
)

// Options carries the cross-cutting settings of the router.
type Options struct {
	DefaultLocale  string
	AllowedOrigins []string
	CountryLookup  middleware.CountryLookup
	Logger         *infra.Logger
}

func NewRouter(app *handlers.App, sessions *editor.Registry, opts Options) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = infra.NopLogger()
	}

	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(*logger),
		middleware.CORS(opts.AllowedOrigins),
		middleware.I18N(opts.DefaultLocale, opts.CountryLookup),
	)

	r.Get("/healthz", app.Health)
	r.Get("/api/prompts", app.APIPrompts)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Sessions(sessions))

		r.Get("/", app.Page)
		r.Post("/upload", app.Upload)
		r.Post("/prompt", app.Prompt)
		r.Post("/generate", app.Generate)
		r.Post("/reset", app.Reset)

		r.Get("/previews/{key}", app.Preview)
		r.Get("/result.png", app.Result)
		r.Get("/export.zip", app.Export)

		r.Get("/api/state", app.APIState)
		r.Post("/api/file", app.APIFile)
		r.Post("/api/prompt", app.APIPrompt)
		r.Post("/api/generate", app.APIGenerate)
		r.Post("/api/reset", app.APIReset)
		r.Get("/api/events", app.Events)
	})

	return r
}
