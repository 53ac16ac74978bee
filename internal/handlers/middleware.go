package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// RequestIDMiddleware attaches a request id to each request context.
// An incoming X-Request-ID header is honored so ids survive proxies;
// otherwise a fresh uuid is generated. The logger reads the id back
// from the context under the "request_id" key.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}

		ctx := context.WithValue(r.Context(), "request_id", requestID)
		w.Header().Set("X-Request-ID", requestID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
