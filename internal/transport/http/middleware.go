package transporthttp

import (
	"io"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"example.com/siteforms/internal/guard"
	"example.com/siteforms/internal/logging"
	"example.com/siteforms/internal/metrics"
	"example.com/siteforms/internal/ratelimit"
)

const (
	requestIDHeader   = "X-Request-ID"
	retryAfterSeconds = 60
)

// RequireJSON rejects POST bodies that are not declared application/json.
func RequireJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
			if err != nil || mt != "application/json" {
				WriteError(w, http.StatusUnsupportedMediaType, msgUnsupportedMedia)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// BodyLimit rejects a declared Content-Length above maxBytes and caps the
// stream for bodies that lie about or omit their length.
func BodyLimit(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if maxBytes > 0 {
				if r.ContentLength > maxBytes {
					WriteError(w, http.StatusRequestEntityTooLarge, msgTooLarge)
					return
				}
				r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// OriginGuard is the CSRF check. The rejection reason is logged, never returned.
func OriginGuard(v *guard.OriginValidator, route string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if reason := v.Check(r); reason != "" {
				metrics.PipelineRejectionsTotal.WithLabelValues(route, "origin").Inc()
				logging.FromContext(r.Context()).Warn("origin rejected",
					zap.String("route", route), zap.String("reason", reason))
				WriteError(w, http.StatusForbidden, msgForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RateLimit applies a fixed-window limit keyed by prefix and client address.
func RateLimit(l *ratelimit.Limiter, ips guard.IPResolver, prefix string, opts ratelimit.Options) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			client := ips.Resolve(r)
			res := l.Check(r.Context(), ratelimit.Key(prefix, client), opts)
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
			if !res.Allowed {
				metrics.PipelineRejectionsTotal.WithLabelValues(prefix, "rate_limit").Inc()
				logging.FromContext(r.Context()).Warn("rate limit exceeded",
					zap.String("prefix", prefix), zap.String("client", client))
				w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds))
				WriteError(w, http.StatusTooManyRequests, msgTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// BearerAuth requires "Authorization: Bearer <token>" when token is set.
// In production an unset token locks the endpoint.
func BearerAuth(token string, production bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" && !production {
				next.ServeHTTP(w, r)
				return
			}
			if token == "" || !guard.BearerToken(r, token) {
				WriteError(w, http.StatusUnauthorized, msgUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequestLogger attaches a request-scoped logger tagged with the correlation
// id and echoes the id in the response.
func RequestLogger(base *zap.Logger) func(http.Handler) http.Handler {
	if base == nil {
		base = zap.NewNop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := logging.RequestID(r.Header.Get(requestIDHeader))
			w.Header().Set(requestIDHeader, id)
			l := base.With(zap.String("request_id", id), zap.String("method", r.Method), zap.String("path", r.URL.Path))
			next.ServeHTTP(w, r.WithContext(logging.WithLogger(r.Context(), l)))
		})
	}
}

// Instrument records request count, latency and the access log line.
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		elapsed := time.Since(start)
		metrics.HTTPRequestsTotal.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(route, r.Method).Observe(elapsed.Seconds())
		logging.FromContext(r.Context()).Info("request completed",
			zap.Int("status", status), zap.Int("bytes", ww.BytesWritten()), zap.Duration("duration", elapsed))
	})
}

// DrainBody fully reads and closes request bodies.
func DrainBody(r *http.Request) {
	if r.Body != nil {
		_, _ = io.Copy(io.Discard, r.Body)
		_ = r.Body.Close()
	}
}
