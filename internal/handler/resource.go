package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"ontology/internal/envelope"
	"ontology/internal/provider"
	"ontology/internal/query"
	"ontology/internal/validate"
)

// listRoute serves a filtered, sorted and paginated collection. The
// provider returns the full filtered set; paging happens here.
type listRoute[T, F any] struct {
	allow   query.Allowlist
	cache   string
	filter  func(query.Params) F
	list    func(ctx context.Context, p provider.DataProvider, f F) ([]T, error)
	compare func(a, b T, field string) int
}

func (rt listRoute[T, F]) handler(h *Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := query.Parse(r.URL.Query(), rt.allow)

		items, err := rt.list(r.Context(), h.provider, rt.filter(p))
		if err != nil {
			h.writeError(w, r, err)
			return
		}

		h.writeSuccess(w, http.StatusOK, query.Paginate(items, p, rt.compare), rt.cache)
	}
}

// getRoute serves one record by its {id} path segment
type getRoute[T any] struct {
	cache string
	get   func(ctx context.Context, p provider.DataProvider, id string) (T, error)
}

func (rt getRoute[T]) handler(h *Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, e := pathID(r)
		if e != nil {
			h.writeFailure(w, e)
			return
		}

		item, err := rt.get(r.Context(), h.provider, id)
		if err != nil {
			h.writeError(w, r, err)
			return
		}

		h.writeSuccess(w, http.StatusOK, item, rt.cache)
	}
}

// createRoute validates a body against rules, decodes it into N and
// creates the record, answering 201 with the new id
type createRoute[N any] struct {
	rules  []validate.Rule
	create func(ctx context.Context, p provider.DataProvider, n N) (string, error)
}

// Created is the data of a creation response
type Created struct {
	ID string `json:"_id"`
}

func (rt createRoute[N]) handler(h *Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, e := readBody(w, r)
		if e != nil {
			h.writeFailure(w, e)
			return
		}
		if e := validate.Check(body, rt.rules); e != nil {
			h.writeFailure(w, e)
			return
		}

		var n N
		if err := json.Unmarshal(body, &n); err != nil {
			h.writeFailure(w, envelope.NewError(envelope.CodeBadRequest, "invalid request body: "+err.Error()))
			return
		}

		id, err := rt.create(r.Context(), h.provider, n)
		if err != nil {
			h.writeError(w, r, err)
			return
		}

		h.writeSuccess(w, http.StatusCreated, Created{ID: id}, cacheNone)
	}
}
