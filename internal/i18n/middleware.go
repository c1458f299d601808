package i18n

import (
	"context"
	"net/http"
)

// LanguageSource returns the learner's current UI language.
type LanguageSource interface {
	Language(ctx context.Context) string
}

// Middleware injects a localizer for the learner's stored language into every
// request context. A supported ?lang= query parameter overrides it for that request.
func Middleware(source LanguageSource, supported func(string) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			lang := source.Language(r.Context())
			if q := r.URL.Query().Get("lang"); q != "" && supported(q) {
				lang = q
			}
			next.ServeHTTP(w, r.WithContext(WithLanguage(r.Context(), lang)))
		})
	}
}
