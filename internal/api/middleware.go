/**
 * @description
 * This file contains custom middleware for the HTTP router. Middlewares are used
 * to process requests before they reach the final handler, perfect for tasks like
 * request correlation, logging, or adding context to a request.
 *
 * @dependencies
 * - context, net/http, strings: Standard Go libraries.
 * - github.com/google/uuid: For correlation id generation.
 */

package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// RequestIDContextKey is a custom type for the context key to avoid collisions.
type RequestIDContextKey string

const requestIDKey RequestIDContextKey = "requestID"

// RequestIDHeader is the header used to carry the correlation id in and out.
const RequestIDHeader = "X-Request-Id"

// RequestIDMiddleware assigns every request a correlation id, reusing the one
// supplied by the caller when present. The id is echoed on the response and
// rides along every bus delivery the request spawns.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := strings.TrimSpace(r.Header.Get(RequestIDHeader))
		if requestID == "" {
			requestID = uuid.NewString()
		}

		w.Header().Set(RequestIDHeader, requestID)
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequestIDFromContext returns the correlation id assigned by the middleware,
// or an empty string when the middleware did not run.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
