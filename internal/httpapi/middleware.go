package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type contextKey string

const (
	requestIDKey    contextKey = "requestId"
	invocationIDKey contextKey = "invocationId"
)

// requestContext stamps every request with the gateway request id (from
// X-Request-Id, generated when the gateway didn't set one) and a fresh
// invocation id, and hangs a request-scoped logger on the context.
func requestContext(logger zerolog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-Id")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		invocationID := uuid.NewString()

		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		ctx = context.WithValue(ctx, invocationIDKey, invocationID)
		reqLogger := logger.With().
			Str("requestId", requestID).
			Str("invocationId", invocationID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Logger()
		ctx = reqLogger.WithContext(ctx)

		start := time.Now()
		next.ServeHTTP(w, r.WithContext(ctx))
		reqLogger.Info().Dur("elapsed", time.Since(start)).Msg("request handled")
	})
}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

func invocationIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(invocationIDKey).(string)
	return id
}
