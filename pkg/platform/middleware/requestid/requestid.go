// Package requestid assigns a correlation ID to every request so log lines and
// audit entries from one admin call can be joined.
package requestid

import (
	"net/http"

	"github.com/google/uuid"

	"counsel/pkg/requestcontext"
)

// Header is propagated from the caller when present.
const Header = "X-Request-ID"

// Middleware stores the request ID in the context and echoes it in the response.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(Header)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(Header, id)
		ctx := requestcontext.WithRequestID(r.Context(), id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
