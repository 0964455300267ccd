package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"ontology/internal/envelope"
	"ontology/internal/logging"
	"ontology/internal/metrics"
	"ontology/internal/provider"
)

// Cache-Control values used by the routes
const (
	cacheList      = "public, max-age=60"
	cacheEvents    = "public, max-age=30"
	cacheKnowledge = "public, max-age=300"
	cachePrivate   = "private, no-store"
	cacheNone      = "no-cache"
	cacheError     = "no-store"
)

const maxBodyBytes = 1 << 20

// Handler serves the ontology API over a DataProvider
type Handler struct {
	provider       provider.DataProvider
	log            logrus.FieldLogger
	metrics        *metrics.Metrics
	metricsPath    string
	stream         http.Handler
	exposeInternal bool
	timeout        time.Duration
}

// Option configures a Handler
type Option func(*Handler)

// WithLogger sets the logger used for request-scoped errors
func WithLogger(log logrus.FieldLogger) Option {
	return func(h *Handler) { h.log = log }
}

// WithMetrics enables the metrics endpoint and web-vitals recording
func WithMetrics(m *metrics.Metrics) Option {
	return func(h *Handler) { h.metrics = m }
}

// WithMetricsPath moves the metrics endpoint away from /metrics
func WithMetricsPath(path string) Option {
	return func(h *Handler) {
		if path != "" {
			h.metricsPath = path
		}
	}
}

// WithStream mounts an SSE handler at GET /api/stream
func WithStream(s http.Handler) Option {
	return func(h *Handler) { h.stream = s }
}

// WithExposeInternalErrors controls whether INTERNAL_ERROR responses carry
// the underlying error message
func WithExposeInternalErrors(expose bool) Option {
	return func(h *Handler) { h.exposeInternal = expose }
}

// WithRequestTimeout bounds each provider call. Zero disables the bound.
func WithRequestTimeout(d time.Duration) Option {
	return func(h *Handler) { h.timeout = d }
}

// New creates a handler. The provider is required.
func New(p provider.DataProvider, opts ...Option) *Handler {
	h := &Handler{
		provider:       p,
		log:            logging.Discard(),
		metricsPath:    "/metrics",
		exposeInternal: true,
	}
	for _, opt := range opts {
		opt(h)
	}
	h.log = logging.WithComponent(h.log, "handler")
	return h
}

// Routes registers every route on mux
func (h *Handler) Routes(mux *http.ServeMux) {
	// Things
	mux.HandleFunc("GET /api/things", h.bounded(thingList.handler(h)))
	mux.HandleFunc("POST /api/things", h.bounded(thingCreate.handler(h)))
	mux.HandleFunc("GET /api/things/{id}", h.bounded(thingGet.handler(h)))
	mux.HandleFunc("PUT /api/things/{id}", h.bounded(h.UpdateThing))

	// Connections
	mux.HandleFunc("GET /api/connections", h.bounded(connectionList.handler(h)))
	mux.HandleFunc("POST /api/connections", h.bounded(connectionCreate.handler(h)))
	mux.HandleFunc("GET /api/connections/{id}", h.bounded(connectionGet.handler(h)))

	// Events
	mux.HandleFunc("GET /api/events", h.bounded(eventList.handler(h)))
	mux.HandleFunc("POST /api/events", h.bounded(eventCreate.handler(h)))

	// Knowledge
	mux.HandleFunc("GET /api/knowledge/search", h.bounded(h.SearchKnowledge))

	// People
	mux.HandleFunc("GET /api/people/me", h.bounded(h.CurrentPerson))
	mux.HandleFunc("GET /api/people/{id}", h.bounded(h.GetPerson))

	// Web vitals
	mux.HandleFunc("POST /api/vitals", h.ReportVital)

	// Operations
	mux.HandleFunc("GET /healthz", h.bounded(h.Health))
	if h.metrics != nil {
		mux.Handle("GET "+h.metricsPath, h.metrics.Handler())
	}
	if h.stream != nil {
		mux.Handle("GET /api/stream", h.stream)
	}
}

// bounded applies the request timeout to the request context
func (h *Handler) bounded(next http.HandlerFunc) http.HandlerFunc {
	if h.timeout <= 0 {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
		defer cancel()
		next(w, r.WithContext(ctx))
	}
}

// Helper methods

func (h *Handler) writeSuccess(w http.ResponseWriter, status int, data any, cache string) {
	h.writeEnvelope(w, status, envelope.Success(data), cache)
}

func (h *Handler) writeFailure(w http.ResponseWriter, e *envelope.Error) {
	h.writeEnvelope(w, e.Code.Status(), envelope.FromError(e), cacheError)
}

// writeError maps err to an envelope error and writes it
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	e := h.toEnvelopeError(err)
	if e.Code == envelope.CodeInternal || e.Code == envelope.CodeServiceUnavailable {
		logging.FromContext(r.Context(), h.log).WithError(err).WithFields(logrus.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
			"code":   e.Code,
		}).Error("request failed")
	}
	h.writeFailure(w, e)
}

func (h *Handler) writeEnvelope(w http.ResponseWriter, status int, env envelope.Envelope, cache string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", cache)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(env); err != nil {
		h.log.WithError(err).Warn("failed to encode response")
	}
}

// toEnvelopeError classifies a provider error
func (h *Handler) toEnvelopeError(err error) *envelope.Error {
	var e *envelope.Error
	if errors.As(err, &e) {
		return e
	}

	switch {
	case errors.Is(err, provider.ErrNotFound):
		return envelope.NewError(envelope.CodeNotFound, err.Error())
	case errors.Is(err, provider.ErrConflict):
		return envelope.NewError(envelope.CodeConflict, err.Error())
	case errors.Is(err, provider.ErrUnauthorized):
		return envelope.NewError(envelope.CodeUnauthorized, err.Error())
	case errors.Is(err, provider.ErrForbidden):
		return envelope.NewError(envelope.CodeForbidden, err.Error())
	case errors.Is(err, provider.ErrUnavailable),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return envelope.NewError(envelope.CodeServiceUnavailable, err.Error())
	case strings.Contains(strings.ToLower(err.Error()), "not found"):
		return envelope.NewError(envelope.CodeNotFound, err.Error())
	}

	msg := err.Error()
	if !h.exposeInternal {
		msg = "internal server error"
	}
	return envelope.NewError(envelope.CodeInternal, msg)
}

// readBody reads a JSON request body
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, *envelope.Error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, envelope.NewError(envelope.CodeBadRequest, "request body too large")
		}
		return nil, envelope.NewError(envelope.CodeBadRequest, "failed to read request body")
	}
	if !json.Valid(body) {
		return nil, envelope.NewError(envelope.CodeBadRequest, "invalid JSON body")
	}
	return body, nil
}

// pathID returns the {id} path segment
func pathID(r *http.Request) (string, *envelope.Error) {
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		return "", envelope.NewError(envelope.CodeBadRequest, "id is required")
	}
	return id, nil
}

// bearerToken extracts the token of an "Authorization: Bearer" header
func bearerToken(r *http.Request) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(r.Header.Get("Authorization")), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
