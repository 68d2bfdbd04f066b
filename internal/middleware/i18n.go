package middleware

import (
	"context"
	"net/http"
	"strings"

	"golang.org/x/text/language"
)

type localeContextKey struct{}

var localeKey = localeContextKey{}

// supported is the set of prompt locales the generation providers accept.
// The first entry is the ultimate fallback.
var supported = []language.Tag{
	language.English,
	language.Indonesian,
	language.Japanese,
	language.Spanish,
}

var localeMatcher = language.NewMatcher(supported)

// Locale negotiates the request locale from the X-Locale header or
// Accept-Language and stores the matched base language in the context. The
// locale travels with the prompt so providers can localize safety messages.
func Locale(fallback string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			locale := negotiate(r.Header.Get("X-Locale"), r.Header.Get("Accept-Language"), fallback)
			ctx := context.WithValue(r.Context(), localeKey, locale)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func negotiate(explicit, accept, fallback string) string {
	if strings.TrimSpace(explicit) == "" && strings.TrimSpace(accept) == "" {
		if fallback != "" {
			return fallback
		}
		return "en"
	}
	tag, _ := language.MatchStrings(localeMatcher, explicit, accept)
	base, _ := tag.Base()
	return base.String()
}

// LocaleFromContext returns the negotiated locale, defaulting to English.
func LocaleFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(localeKey).(string); ok && v != "" {
		return v
	}
	return "en"
}
