package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/fjod/go_cart/storefront/internal/auth"
	"github.com/fjod/go_cart/storefront/internal/logger"
	"github.com/fjod/go_cart/storefront/internal/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	cartCookieName = "sf_cart"
	cartHeader     = "X-Cart-ID"
	cartCookieTTL  = 30 * 24 * time.Hour
)

type cartIDKey struct{}

// RequestIDMiddleware adds a unique request ID to each request
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}

		ctx := logger.ContextWithRequestID(r.Context(), requestID)
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// AccessLog logs one line per request and feeds the HTTP metrics.
func AccessLog(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			elapsed := time.Since(start)

			endpoint := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				endpoint = rctx.RoutePattern()
			}
			metrics.ObserveHTTP(r.Method, endpoint, strconv.Itoa(status), elapsed.Seconds())

			logger.WithContext(r.Context(), log).Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", status),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("latency", elapsed))
		})
	}
}

// CartSession resolves the cart id from the X-Cart-ID header or the sf_cart
// cookie, minting a new one when neither carries a valid UUID.
func CartSession(secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cartID := ""
			if h := r.Header.Get(cartHeader); h != "" {
				if id, err := uuid.Parse(h); err == nil {
					cartID = id.String()
				}
			}
			if cartID == "" {
				if c, err := r.Cookie(cartCookieName); err == nil {
					if id, err := uuid.Parse(c.Value); err == nil {
						cartID = id.String()
					}
				}
			}
			if cartID == "" {
				cartID = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     cartCookieName,
					Value:    cartID,
					Path:     "/",
					MaxAge:   int(cartCookieTTL.Seconds()),
					HttpOnly: true,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
				})
			}
			w.Header().Set(cartHeader, cartID)

			ctx := context.WithValue(r.Context(), cartIDKey{}, cartID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func cartIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(cartIDKey{}).(string)
	return id
}

// RequireAuth rejects requests without a usable token and stores the token in
// the request context.
func RequireAuth(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := auth.FromRequest(r)
			if err == nil {
				err = auth.CheckExpiry(token, time.Now())
			}
			if err != nil {
				handleError(w, r, log, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithToken(r.Context(), token)))
		})
	}
}
