package handler

import (
	"cmp"
	"context"

	"ontology/internal/domain"
	"ontology/internal/provider"
	"ontology/internal/query"
	"ontology/internal/validate"
)

var eventList = listRoute[domain.Event, domain.EventFilter]{
	allow: query.Allowlist{
		Filters:    []string{"type", "actorId", "targetId", "groupId", "since", "until"},
		SortFields: []string{"timestamp"},
	},
	cache: cacheEvents,
	filter: func(p query.Params) domain.EventFilter {
		return domain.EventFilter{
			Type:     p.Get("type"),
			ActorID:  p.Get("actorId"),
			TargetID: p.Get("targetId"),
			GroupID:  p.Get("groupId"),
			Since:    p.Int64("since"),
			Until:    p.Int64("until"),
		}
	},
	list: func(ctx context.Context, p provider.DataProvider, f domain.EventFilter) ([]domain.Event, error) {
		return p.Events().List(ctx, f)
	},
	compare: func(a, b domain.Event, _ string) int {
		return cmp.Compare(a.Timestamp, b.Timestamp)
	},
}

var eventCreate = createRoute[domain.NewEvent]{
	rules: []validate.Rule{
		validate.Required("type", validate.NonEmptyString),
		validate.Required("actorId", validate.NonEmptyString),
		validate.Optional("targetId", validate.String),
		validate.Optional("groupId", validate.String),
		validate.Optional("metadata", validate.Object),
		validate.Optional("timestamp", validate.Number),
	},
	create: func(ctx context.Context, p provider.DataProvider, n domain.NewEvent) (string, error) {
		return p.Events().Record(ctx, n)
	},
}
