// Package requesttime pins one "now" per HTTP request so every timestamp
// written while handling it (audit entries in particular) agrees.
package requesttime

import (
	"net/http"
	"time"

	"riskflow/pkg/requestcontext"
)

// Middleware captures the request start time on the context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
