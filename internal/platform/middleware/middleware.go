// Package middleware carries the request-scoped plumbing every endpoint
// shares: request IDs and the request timestamp all downstream time
// judgments are made against.
package middleware

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"tombola/pkg/requestcontext"
)

// RequestIDHeader is both accepted from callers and echoed back.
const RequestIDHeader = "X-Request-ID"

// RequestID attaches a request ID to the context, minting one when the
// caller did not send one.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, requestID)
		ctx := requestcontext.WithRequestID(r.Context(), requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequestTime pins one observation instant per request, so every window and
// deadline judgment inside a single request agrees on what "now" is.
func RequestTime(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
