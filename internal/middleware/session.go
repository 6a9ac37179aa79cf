package middleware

import (
	"context"
	"net/http"

	"visualizer/internal/editor"
	"visualizer/internal/i18n"
)

// SessionCookie carries the editing session id.
const SessionCookie = "visualizer_session"

type sessionContextKey struct{}

// Sessions attaches the caller's controller to the request context, creating
// a session (and cookie) when the cookie is missing or its session expired.
// It must run after I18N: new sessions start with the localized default prompt.
func Sessions(registry *editor.Registry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var ctrl *editor.Controller
			if c, err := r.Cookie(SessionCookie); err == nil {
				ctrl, _ = registry.Get(c.Value)
			}
			if ctrl == nil {
				var id string
				id, ctrl = registry.Create()
				ctrl.SetPrompt(i18n.DefaultPrompt(LocaleFromContext(r.Context())))
				http.SetCookie(w, &http.Cookie{
					Name:     SessionCookie,
					Value:    id,
					Path:     "/",
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
				})
			}
			ctx := context.WithValue(r.Context(), sessionContextKey{}, ctrl)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ControllerFromContext returns the session controller attached by Sessions.
func ControllerFromContext(ctx context.Context) (*editor.Controller, bool) {
	ctrl, ok := ctx.Value(sessionContextKey{}).(*editor.Controller)
	return ctrl, ok && ctrl != nil
}
