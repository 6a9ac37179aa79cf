package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"

	"visualizer/internal/i18n"
)

type localeContextKey struct{}
type countryContextKey struct{}

var (
	LocaleKey  = localeContextKey{}
	CountryKey = countryContextKey{}
)

// LocaleCookie remembers an explicit ?lang= choice.
const LocaleCookie = "visualizer_lang"

// CountryLookup resolves ISO country codes for an IP address.
type CountryLookup func(ip string) (string, error)

// I18N stores the negotiated page locale (and the client country when known)
// on the request context.
func I18N(defaultLocale string, lookup CountryLookup) func(http.Handler) http.Handler {
	if !i18n.Supported(defaultLocale) {
		defaultLocale = i18n.LocaleEN
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if choice := i18n.Normalize(r.URL.Query().Get("lang")); choice != "" {
				http.SetCookie(w, &http.Cookie{Name: LocaleCookie, Value: choice, Path: "/", HttpOnly: true, SameSite: http.SameSiteLaxMode})
			}
			country := ""
			locale := detectLocale(r, "")
			if locale == "" {
				country = ResolveCountry(r, lookup)
				locale = i18n.LocaleForCountry(country)
			}
			if locale == "" {
				locale = defaultLocale
			}
			ctx := context.WithValue(r.Context(), LocaleKey, locale)
			if country != "" {
				ctx = context.WithValue(ctx, CountryKey, country)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// detectLocale applies the explicit signals in order: ?lang=, the locale
// cookie, X-Locale, then Accept-Language.
func detectLocale(r *http.Request, fallback string) string {
	if v := i18n.Normalize(r.URL.Query().Get("lang")); v != "" {
		return v
	}
	if c, err := r.Cookie(LocaleCookie); err == nil {
		if v := i18n.Normalize(c.Value); v != "" {
			return v
		}
	}
	if v := i18n.Normalize(r.Header.Get("X-Locale")); v != "" {
		return v
	}
	if v := i18n.Normalize(r.Header.Get("Accept-Language")); v != "" {
		return v
	}
	return fallback
}

// ClientIP returns the best-effort client IP address for the request.
func ClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if xf := r.Header.Get("X-Forwarded-For"); xf != "" {
		parts := strings.Split(xf, ",")
		if len(parts) > 0 {
			return strings.TrimSpace(parts[0])
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// LocaleFromContext returns the negotiated locale, defaulting to English.
func LocaleFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(LocaleKey).(string); ok {
		return v
	}
	return i18n.LocaleEN
}

// CountryFromContext returns the ISO country code stored in the request context.
func CountryFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(CountryKey).(string); ok {
		return v
	}
	return ""
}

// ResolveCountry resolves a best-effort ISO country code from edge headers,
// falling back to the lookup on the client IP.
func ResolveCountry(r *http.Request, lookup CountryLookup) string {
	if r == nil {
		return ""
	}
	for _, key := range []string{"X-Country-Code", "CF-IPCountry", "X-Appengine-Country"} {
		if val := strings.TrimSpace(r.Header.Get(key)); val != "" && !strings.EqualFold(val, "XX") {
			return strings.ToUpper(val)
		}
	}
	if lookup != nil {
		if ip := ClientIP(r); ip != "" {
			if country, err := lookup(ip); err == nil && country != "" {
				return strings.ToUpper(country)
			}
		}
	}
	return ""
}
