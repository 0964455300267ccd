package handler

import (
	"cmp"
	"context"

	"ontology/internal/domain"
	"ontology/internal/provider"
	"ontology/internal/query"
	"ontology/internal/validate"
)

var connectionList = listRoute[domain.Connection, domain.ConnectionFilter]{
	allow: query.Allowlist{
		Filters:    []string{"fromThingId", "toThingId", "thingId", "relationshipType", "groupId"},
		SortFields: []string{"createdAt"},
	},
	cache: cacheList,
	filter: func(p query.Params) domain.ConnectionFilter {
		return domain.ConnectionFilter{
			FromThingID:      p.Get("fromThingId"),
			ToThingID:        p.Get("toThingId"),
			ThingID:          p.Get("thingId"),
			RelationshipType: p.Get("relationshipType"),
			GroupID:          p.Get("groupId"),
		}
	},
	list: func(ctx context.Context, p provider.DataProvider, f domain.ConnectionFilter) ([]domain.Connection, error) {
		return p.Connections().List(ctx, f)
	},
	compare: func(a, b domain.Connection, _ string) int {
		return cmp.Or(cmp.Compare(a.CreatedAt, b.CreatedAt), cmp.Compare(a.ID, b.ID))
	},
}

var connectionGet = getRoute[*domain.Connection]{
	cache: cacheList,
	get: func(ctx context.Context, p provider.DataProvider, id string) (*domain.Connection, error) {
		return p.Connections().Get(ctx, id)
	},
}

var connectionCreate = createRoute[domain.NewConnection]{
	rules: []validate.Rule{
		validate.Required("fromThingId", validate.NonEmptyString),
		validate.Required("toThingId", validate.NonEmptyString),
		validate.Required("relationshipType", validate.NonEmptyString),
		validate.Optional("groupId", validate.String),
		validate.Optional("metadata", validate.Object),
	},
	create: func(ctx context.Context, p provider.DataProvider, n domain.NewConnection) (string, error) {
		return p.Connections().Create(ctx, n)
	},
}
