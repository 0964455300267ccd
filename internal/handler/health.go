package handler

import (
	"fmt"
	"net/http"

	"ontology/internal/envelope"
)

// Health pings the provider
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.provider.Ping(r.Context()); err != nil {
		h.log.WithError(err).Warn("health check failed")
		h.writeFailure(w, envelope.NewError(envelope.CodeServiceUnavailable, fmt.Sprintf("provider unavailable: %v", err)))
		return
	}
	h.writeSuccess(w, http.StatusOK, map[string]string{"status": "ok"}, cacheError)
}
