package server

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/iwvelando/qslp-calculator/internal/metrics"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const limiterIdleTimeout = 10 * time.Minute

// requestLogger logs each request and records it in metrics under its route pattern.
func requestLogger(logger *zap.Logger, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			route := routePattern(r)
			elapsed := time.Since(start)

			logger.Debug("request",
				zap.String("op", "server.request"),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("route", route),
				zap.Int("status", status),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", elapsed),
				zap.String("request_id", chiMiddleware.GetReqID(r.Context())),
			)
			if m != nil {
				m.RecordRequest(route, status, elapsed.Seconds())
			}
		})
	}
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}

type clientLimiter struct {
	mu       sync.Mutex
	limiters *cache.Cache
	limit    rate.Limit
	burst    int
}

// rateLimit applies a token bucket per client address. A non-positive rate
// disables limiting.
func rateLimit(requestsPerSecond float64, burst int, logger *zap.Logger) func(http.Handler) http.Handler {
	if requestsPerSecond <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	if burst <= 0 {
		burst = 1
	}

	cl := &clientLimiter{
		limiters: cache.New(limiterIdleTimeout, 2*limiterIdleTimeout),
		limit:    rate.Limit(requestsPerSecond),
		burst:    burst,
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientKey(r)
			if !cl.get(key).Allow() {
				logger.Warn("rate limit exceeded",
					zap.String("op", "server.rateLimit"),
					zap.String("client", key),
				)
				w.Header().Set("Retry-After", "1")
				writeJSONResponse(w, http.StatusTooManyRequests, map[string]string{"error": "rate limit exceeded"}, logger)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (cl *clientLimiter) get(key string) *rate.Limiter {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	if v, ok := cl.limiters.Get(key); ok {
		cl.limiters.SetDefault(key, v)
		return v.(*rate.Limiter)
	}
	limiter := rate.NewLimiter(cl.limit, cl.burst)
	cl.limiters.SetDefault(key, limiter)
	return limiter
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
