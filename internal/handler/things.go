package handler

import (
	"cmp"
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"ontology/internal/domain"
	"ontology/internal/envelope"
	"ontology/internal/provider"
	"ontology/internal/query"
	"ontology/internal/validate"
)

var thingList = listRoute[domain.Thing, domain.ThingFilter]{
	allow: query.Allowlist{
		Filters:    []string{"type", "groupId", "status", "search"},
		SortFields: []string{"createdAt", "updatedAt", "name"},
	},
	cache: cacheList,
	filter: func(p query.Params) domain.ThingFilter {
		return domain.ThingFilter{
			Type:    p.Get("type"),
			GroupID: p.Get("groupId"),
			Status:  p.Get("status"),
			Search:  p.Get("search"),
		}
	},
	list: func(ctx context.Context, p provider.DataProvider, f domain.ThingFilter) ([]domain.Thing, error) {
		return p.Things().List(ctx, f)
	},
	compare: compareThings,
}

var thingGet = getRoute[*domain.Thing]{
	cache: cacheList,
	get: func(ctx context.Context, p provider.DataProvider, id string) (*domain.Thing, error) {
		return p.Things().Get(ctx, id)
	},
}

var thingCreate = createRoute[domain.NewThing]{
	rules: []validate.Rule{
		validate.Required("type", validate.NonEmptyString),
		validate.Required("name", validate.NonEmptyString),
		validate.Required("groupId", validate.NonEmptyString),
		validate.Optional("properties", validate.Object),
		validate.Optional("status", validate.String),
	},
	create: func(ctx context.Context, p provider.DataProvider, n domain.NewThing) (string, error) {
		return p.Things().Create(ctx, n)
	},
}

var thingUpdateRules = []validate.Rule{
	validate.Optional("name", validate.NonEmptyString),
	validate.Optional("status", validate.String),
	validate.Optional("properties", validate.Object),
}

// UpdateThing merges the body into an existing thing and returns the result
func (h *Handler) UpdateThing(w http.ResponseWriter, r *http.Request) {
	id, e := pathID(r)
	if e != nil {
		h.writeFailure(w, e)
		return
	}

	body, e := readBody(w, r)
	if e != nil {
		h.writeFailure(w, e)
		return
	}
	if e := validate.Check(body, thingUpdateRules); e != nil {
		h.writeFailure(w, e)
		return
	}

	var patch domain.ThingPatch
	if err := json.Unmarshal(body, &patch); err != nil {
		h.writeFailure(w, envelope.NewError(envelope.CodeBadRequest, "invalid request body: "+err.Error()))
		return
	}

	thing, err := h.provider.Things().Update(r.Context(), id, patch)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeSuccess(w, http.StatusOK, thing, cacheNone)
}

func compareThings(a, b domain.Thing, field string) int {
	switch field {
	case "name":
		return cmp.Or(
			cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)),
			cmp.Compare(a.ID, b.ID),
		)
	case "updatedAt":
		return cmp.Or(cmp.Compare(a.UpdatedAt, b.UpdatedAt), cmp.Compare(a.ID, b.ID))
	default:
		return cmp.Or(cmp.Compare(a.CreatedAt, b.CreatedAt), cmp.Compare(a.ID, b.ID))
	}
}
