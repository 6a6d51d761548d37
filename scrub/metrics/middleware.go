package metrics

import "net/http"

// Middleware makes t available to handlers through the request context so
// that NewParent and NewChild report to it.
func Middleware(t Timer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), t)))
		})
	}
}
