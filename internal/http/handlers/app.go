// Package handlers serves the editing page and its JSON API on top of the
// per-session editor controllers.
package handlers

import (
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"time"

	"visualizer/internal/domain"
	"visualizer/internal/editor"
	"visualizer/internal/i18n"
	"visualizer/internal/infra"
	"visualizer/internal/middleware"
	"visualizer/internal/storage"
)

const defaultWaitTimeout = 25 * time.Second

type App struct {
	Previews       *storage.PreviewStore
	Logger         *infra.Logger
	MaxUploadBytes int64
	// WaitTimeout bounds GET /api/state?wait=1.
	WaitTimeout time.Duration
	// AllowedOrigins are the cross-origin pages that may open /api/events.
	AllowedOrigins []string
	// Sessions is reported by /healthz when set.
	Sessions *editor.Registry

	page *template.Template
	now  func() time.Time
}

func NewApp(previews *storage.PreviewStore, logger *infra.Logger, maxUploadBytes int64) *App {
	if logger == nil {
		logger = infra.NopLogger()
	}
	return &App{
		Previews:       previews,
		Logger:         logger,
		MaxUploadBytes: maxUploadBytes,
		WaitTimeout:    defaultWaitTimeout,
		page:           pageTemplate,
		now:            time.Now,
	}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, errCode, message string) {
	a.json(w, code, map[string]string{"error": errCode, "message": message})
}

// controller returns the session controller or answers 500 when the session
// middleware did not run.
func (a *App) controller(w http.ResponseWriter, r *http.Request) (*editor.Controller, bool) {
	ctrl, ok := middleware.ControllerFromContext(r.Context())
	if !ok {
		a.Logger.Error().Str("path", r.URL.Path).Msg("handlers: request without session")
		a.error(w, http.StatusInternalServerError, "internal", "missing session")
		return nil, false
	}
	return ctrl, true
}

// failure maps a controller error onto an HTTP status and a stable code.
func failure(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidImageFile):
		return http.StatusBadRequest, "invalid_image"
	case errors.Is(err, domain.ErrMissingInput):
		return http.StatusBadRequest, "missing_input"
	case errors.Is(err, domain.ErrUploadTooLarge):
		return http.StatusRequestEntityTooLarge, "upload_too_large"
	case errors.Is(err, domain.ErrNoImageInResponse):
		return http.StatusBadGateway, "no_image"
	case errors.Is(err, domain.ErrRemoteCall):
		return http.StatusBadGateway, "generation_failed"
	case errors.Is(err, domain.ErrUnexpected):
		return http.StatusInternalServerError, "unexpected"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "not_found"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func (a *App) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, code := failure(err)
	if code == "internal" {
		a.Logger.Error().Err(err).Str("path", r.URL.Path).Msg("handlers: request failed")
	}
	a.error(w, status, code, i18n.ErrorMessage(middleware.LocaleFromContext(r.Context()), err))
}
