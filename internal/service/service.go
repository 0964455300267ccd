package service

import (
	"context"

	"ontology/internal/domain"
	"ontology/internal/provider"
)

// Observer is told about every provider call and its outcome
type Observer func(capability, operation string, err error)

// Option configures a Provider
type Option func(*Provider)

// WithObserver registers a call observer, typically metrics
func WithObserver(o Observer) Option {
	return func(p *Provider) {
		p.observe = o
	}
}

// Provider decorates a DataProvider. Successful writes are published on
// the event bus and every call is reported to the observer. Each call is
// forwarded exactly once.
type Provider struct {
	inner   provider.DataProvider
	bus     *EventBus
	observe Observer
}

var _ provider.DataProvider = (*Provider)(nil)

// New wraps inner
func New(inner provider.DataProvider, bus *EventBus, opts ...Option) *Provider {
	p := &Provider{
		inner:   inner,
		bus:     bus,
		observe: func(string, string, error) {},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Provider) Things() provider.ThingStore {
	return &thingStore{inner: p.inner.Things(), p: p}
}

func (p *Provider) Connections() provider.ConnectionStore {
	return &connectionStore{inner: p.inner.Connections(), p: p}
}

func (p *Provider) Events() provider.EventStore {
	return &eventStore{inner: p.inner.Events(), p: p}
}

func (p *Provider) Knowledge() provider.KnowledgeStore {
	return &knowledgeStore{inner: p.inner.Knowledge(), p: p}
}

func (p *Provider) Auth() provider.AuthStore {
	return &authStore{inner: p.inner.Auth(), p: p}
}

func (p *Provider) Ping(ctx context.Context) error {
	err := p.inner.Ping(ctx)
	p.observe("provider", "ping", err)
	return err
}

func (p *Provider) Close() error {
	return p.inner.Close()
}

type thingStore struct {
	inner provider.ThingStore
	p     *Provider
}

func (s *thingStore) List(ctx context.Context, f domain.ThingFilter) ([]domain.Thing, error) {
	things, err := s.inner.List(ctx, f)
	s.p.observe("things", "list", err)
	return things, err
}

func (s *thingStore) Get(ctx context.Context, id string) (*domain.Thing, error) {
	t, err := s.inner.Get(ctx, id)
	s.p.observe("things", "get", err)
	return t, err
}

func (s *thingStore) Create(ctx context.Context, nt domain.NewThing) (string, error) {
	id, err := s.inner.Create(ctx, nt)
	s.p.observe("things", "create", err)
	if err == nil {
		s.p.bus.Publish(Event{
			Type:    EventThingCreated,
			Payload: map[string]string{"_id": id, "type": nt.Type, "groupId": nt.GroupID},
		})
	}
	return id, err
}

func (s *thingStore) Update(ctx context.Context, id string, patch domain.ThingPatch) (*domain.Thing, error) {
	t, err := s.inner.Update(ctx, id, patch)
	s.p.observe("things", "update", err)
	if err == nil {
		s.p.bus.Publish(Event{
			Type:    EventThingUpdated,
			Payload: map[string]string{"_id": id},
		})
	}
	return t, err
}

type connectionStore struct {
	inner provider.ConnectionStore
	p     *Provider
}

func (s *connectionStore) List(ctx context.Context, f domain.ConnectionFilter) ([]domain.Connection, error) {
	conns, err := s.inner.List(ctx, f)
	s.p.observe("connections", "list", err)
	return conns, err
}

func (s *connectionStore) Get(ctx context.Context, id string) (*domain.Connection, error) {
	c, err := s.inner.Get(ctx, id)
	s.p.observe("connections", "get", err)
	return c, err
}

func (s *connectionStore) Create(ctx context.Context, nc domain.NewConnection) (string, error) {
	id, err := s.inner.Create(ctx, nc)
	s.p.observe("connections", "create", err)
	if err == nil {
		s.p.bus.Publish(Event{
			Type: EventConnectionCreated,
			Payload: map[string]string{
				"_id":              id,
				"fromThingId":      nc.FromThingID,
				"toThingId":        nc.ToThingID,
				"relationshipType": nc.RelationshipType,
			},
		})
	}
	return id, err
}

type eventStore struct {
	inner provider.EventStore
	p     *Provider
}

func (s *eventStore) List(ctx context.Context, f domain.EventFilter) ([]domain.Event, error) {
	events, err := s.inner.List(ctx, f)
	s.p.observe("events", "list", err)
	return events, err
}

func (s *eventStore) Record(ctx context.Context, ne domain.NewEvent) (string, error) {
	id, err := s.inner.Record(ctx, ne)
	s.p.observe("events", "record", err)
	if err == nil {
		s.p.bus.Publish(Event{
			Type:    EventEventRecorded,
			Payload: map[string]string{"_id": id, "type": ne.Type, "actorId": ne.ActorID},
		})
	}
	return id, err
}

type knowledgeStore struct {
	inner provider.KnowledgeStore
	p     *Provider
}

func (s *knowledgeStore) Search(ctx context.Context, q domain.KnowledgeQuery) ([]domain.KnowledgeMatch, error) {
	matches, err := s.inner.Search(ctx, q)
	s.p.observe("knowledge", "search", err)
	return matches, err
}

func (s *knowledgeStore) Create(ctx context.Context, nk domain.NewKnowledge) (string, error) {
	id, err := s.inner.Create(ctx, nk)
	s.p.observe("knowledge", "create", err)
	if err == nil {
		s.p.bus.Publish(Event{
			Type:    EventKnowledgeCreated,
			Payload: map[string]string{"_id": id},
		})
	}
	return id, err
}

type authStore struct {
	inner provider.AuthStore
	p     *Provider
}

func (s *authStore) CurrentUser(ctx context.Context, token string) (*domain.Thing, error) {
	t, err := s.inner.CurrentUser(ctx, token)
	s.p.observe("auth", "current_user", err)
	return t, err
}

func (s *authStore) IssueToken(ctx context.Context, personID string) (string, error) {
	token, err := s.inner.IssueToken(ctx, personID)
	s.p.observe("auth", "issue_token", err)
	return token, err
}
