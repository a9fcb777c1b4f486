package middleware

import (
	"log/slog"
	"net/http"

	"github.com/localpro/marketplace/pkg/logger"
)

// RequestLogger stores a request-scoped logger in the context, pre-enriched
// with correlation_id, user_id, trace_id, and span_id. Handlers pull it back
// out with logger.FromContext.
//
// Mount after RequestLogging (correlation ID) and Tracing (span context);
// the auth middleware's user ID is picked up even though auth runs later,
// because the X-User-ID header covers service-to-service calls.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			// Context beats header when both carry a user ID.
			userID := UserIDFromContext(ctx)
			if userID == "" {
				userID = r.Header.Get("X-User-ID")
			}
			if userID != "" {
				ctx = logger.WithUserID(ctx, userID)
			}

			ctx = logger.NewContext(ctx, logger.WithContext(ctx, base))

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
