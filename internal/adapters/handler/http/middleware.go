package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/vncsmyrnk/tokenauth/internal/core/ports"
	"github.com/vncsmyrnk/tokenauth/internal/logger"
)

type contextKey string

const AccountIDKey contextKey = "account_id"

// RequestLogger puts a request-scoped logger into the context and logs one
// line per request once the handler returns.
func RequestLogger(l *slog.Logger) func(http.Handler) http.Handler {
	if l == nil {
		l = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqLogger := l
			if rid := middleware.GetReqID(r.Context()); rid != "" {
				reqLogger = reqLogger.With(slog.String("request_id", rid))
			}
			r = r.WithContext(logger.Into(r.Context(), reqLogger))

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}

			reqLogger.LogAttrs(r.Context(), slog.LevelInfo, "http",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", status),
				slog.Duration("dur", time.Since(start)),
				slog.Int("bytes", ww.BytesWritten()),
			)
		})
	}
}

// RequireAuth rejects requests without a valid bearer access token and stores
// the authenticated account id under AccountIDKey.
func RequireAuth(auth ports.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			accountID, err := auth.Authenticate(r.Context(), r.Header.Get("Authorization"))
			if err != nil {
				logger.From(r.Context()).Debug("access_denied", slog.String("err", err.Error()))
				writeError(w, http.StatusUnauthorized, msgNotAuthenticated)
				return
			}

			ctx := context.WithValue(r.Context(), AccountIDKey, accountID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
