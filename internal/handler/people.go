package handler

import (
	"fmt"
	"net/http"

	"ontology/internal/domain"
	"ontology/internal/envelope"
)

// CurrentPerson returns the person owning the bearer token
func (h *Handler) CurrentPerson(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		h.writeFailure(w, envelope.NewError(envelope.CodeUnauthorized, "missing bearer token"))
		return
	}

	thing, err := h.provider.Auth().CurrentUser(r.Context(), token)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	person, ok := domain.PersonFromThing(thing)
	if !ok {
		h.writeFailure(w, envelope.NewError(envelope.CodeNotFound, "current user is not a person"))
		return
	}
	h.writeSuccess(w, http.StatusOK, person, cachePrivate)
}

// GetPerson returns a thing of type creator. Other things are reported as
// not found.
func (h *Handler) GetPerson(w http.ResponseWriter, r *http.Request) {
	id, e := pathID(r)
	if e != nil {
		h.writeFailure(w, e)
		return
	}

	thing, err := h.provider.Things().Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	person, ok := domain.PersonFromThing(thing)
	if !ok {
		h.writeFailure(w, envelope.NewError(envelope.CodeNotFound, fmt.Sprintf("person %s not found", id)))
		return
	}
	h.writeSuccess(w, http.StatusOK, person, cacheList)
}
