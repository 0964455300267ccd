package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"ontology/internal/envelope"
	"ontology/internal/httpx"
	"ontology/internal/logging"
	"ontology/internal/metrics"
	"ontology/internal/ratelimit"
)

// Middleware wraps an http.Handler
type Middleware func(http.Handler) http.Handler

// Chain wraps h with mws; the first middleware is the outermost
func Chain(h http.Handler, mws ...Middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// Recover turns a panic into an INTERNAL_ERROR envelope
func Recover(log logrus.FieldLogger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := httpx.NewResponseRecorder(w)
			defer func() {
				v := recover()
				if v == nil {
					return
				}
				if v == http.ErrAbortHandler {
					panic(v)
				}
				logging.FromContext(r.Context(), log).WithFields(logrus.Fields{
					"method": r.Method,
					"path":   r.URL.Path,
					"panic":  fmt.Sprint(v),
				}).Error("panic recovered")
				if !rec.WroteHeader() {
					writePlain(rec, envelope.Failure(envelope.CodeInternal, "internal server error"))
				}
			}()
			next.ServeHTTP(rec, r)
		})
	}
}

// RequestID propagates X-Request-ID, generating one when absent
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get("X-Request-ID"))
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(logging.ContextWithRequestID(r.Context(), id)))
	})
}

// CORS allows the listed origins; "*" allows any origin. Preflight
// requests from allowed origins are answered directly.
func CORS(origins []string) Middleware {
	allowAll := slices.Contains(origins, "*")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" || !(allowAll || slices.Contains(origins, origin)) {
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
			w.Header().Set("Access-Control-Expose-Headers", "X-Request-ID, Retry-After")
			w.Header().Set("Access-Control-Max-Age", "3600")

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RateLimit rejects requests over the global or per-client limit with a
// RATE_LIMITED envelope. Clients are keyed by ips. Paths in exempt skip
// the limiter. Store errors fail open.
func RateLimit(l *ratelimit.Limiter, ips *ClientIPResolver, m *metrics.Metrics, log logrus.FieldLogger, exempt ...string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if slices.Contains(exempt, r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			if !l.AllowRequest() {
				rejectRateLimited(w, m, "global", 1)
				return
			}

			allowed, retry, err := l.AllowClient(r.Context(), ips.ClientIP(r))
			if err != nil {
				logging.FromContext(r.Context(), log).WithError(err).Warn("rate limit store failed")
			} else if !allowed {
				rejectRateLimited(w, m, "client", int(retry.Seconds()+0.999))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func rejectRateLimited(w http.ResponseWriter, m *metrics.Metrics, scope string, retrySeconds int) {
	if m != nil {
		m.ObserveRateLimited(scope)
	}
	w.Header().Set("Retry-After", strconv.Itoa(max(retrySeconds, 1)))
	w.Header().Set("Cache-Control", cacheError)
	writePlain(w, envelope.Failure(envelope.CodeRateLimited, "too many requests"))
}

// writePlain writes an envelope outside of a Handler
func writePlain(w http.ResponseWriter, env envelope.Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(env.Status())
	json.NewEncoder(w).Encode(env)
}
