package handlers

import (
	"net/http"

	"github.com/google/uuid"

	"felsenapp/pkg/logging"
)

const requestIDHeader = "X-Request-ID"

// RequestContextMiddleware tags each request with a request id and the
// calling user so every log line of the request carries both. An incoming
// X-Request-ID is trusted; otherwise a fresh one is generated.
func RequestContextMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		ctx := logging.WithRequestID(r.Context(), requestID)
		if userID := r.Header.Get(userIDHeader); userID != "" {
			ctx = logging.WithUserID(ctx, userID)
		}

		w.Header().Set(requestIDHeader, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
