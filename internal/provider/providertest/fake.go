// Package providertest offers an in-memory DataProvider that counts calls,
// for tests of code that delegates to a provider.
package providertest

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"ontology/internal/domain"
	"ontology/internal/provider"
)

// Fake is a map-backed provider. Set Err to make every capability call
// fail with it. Calls counts invocations per "capability.operation".
type Fake struct {
	mu     sync.Mutex
	Err    error
	Now    func() time.Time
	calls  map[string]int
	things map[string]domain.Thing
	conns  map[string]domain.Connection
	events []domain.Event
	know   []domain.Knowledge
	tokens map[string]string
	seq    int
}

var _ provider.DataProvider = (*Fake)(nil)

// New creates an empty fake provider
func New() *Fake {
	return &Fake{
		Now:    time.Now,
		calls:  make(map[string]int),
		things: make(map[string]domain.Thing),
		conns:  make(map[string]domain.Connection),
		tokens: make(map[string]string),
	}
}

// Calls returns how often capability.operation was invoked
func (f *Fake) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

// TotalCalls returns the number of capability calls of any kind
func (f *Fake) TotalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

// SetToken maps a bearer token to a person id
func (f *Fake) SetToken(token, personID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens[token] = personID
}

// AddEvent stores an event as is
func (f *Fake) AddEvent(e domain.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, e)
}

// enter records a call and returns the injected error, if any.
// The caller must hold f.mu.
func (f *Fake) enter(op string) error {
	f.calls[op]++
	return f.Err
}

func (f *Fake) nextID(prefix string) string {
	f.seq++
	return fmt.Sprintf("%s-%d", prefix, f.seq)
}

func (f *Fake) Things() provider.ThingStore           { return thingStore{f} }
func (f *Fake) Connections() provider.ConnectionStore { return connectionStore{f} }
func (f *Fake) Events() provider.EventStore           { return eventStore{f} }
func (f *Fake) Knowledge() provider.KnowledgeStore    { return knowledgeStore{f} }
func (f *Fake) Auth() provider.AuthStore              { return authStore{f} }

func (f *Fake) Ping(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.enter("provider.ping")
}

func (f *Fake) Close() error { return nil }

type thingStore struct{ f *Fake }

func (s thingStore) List(_ context.Context, filter domain.ThingFilter) ([]domain.Thing, error) {
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	if err := s.f.enter("things.list"); err != nil {
		return nil, err
	}
	out := make([]domain.Thing, 0, len(s.f.things))
	for _, t := range s.f.things {
		if filter.Matches(&t) {
			out = append(out, t)
		}
	}
	slices.SortFunc(out, func(a, b domain.Thing) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

func (s thingStore) Get(_ context.Context, id string) (*domain.Thing, error) {
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	if err := s.f.enter("things.get"); err != nil {
		return nil, err
	}
	t, ok := s.f.things[id]
	if !ok {
		return nil, fmt.Errorf("thing %s: %w", id, provider.ErrNotFound)
	}
	return &t, nil
}

func (s thingStore) Create(_ context.Context, nt domain.NewThing) (string, error) {
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	if err := s.f.enter("things.create"); err != nil {
		return "", err
	}
	t := nt.Build(s.f.Now())
	if t.ID == "" {
		t.ID = s.f.nextID("thing")
	}
	if _, exists := s.f.things[t.ID]; exists {
		return "", fmt.Errorf("thing %s: %w", t.ID, provider.ErrConflict)
	}
	s.f.things[t.ID] = t
	return t.ID, nil
}

func (s thingStore) Update(_ context.Context, id string, patch domain.ThingPatch) (*domain.Thing, error) {
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	if err := s.f.enter("things.update"); err != nil {
		return nil, err
	}
	t, ok := s.f.things[id]
	if !ok {
		return nil, fmt.Errorf("thing %s: %w", id, provider.ErrNotFound)
	}
	props := make(map[string]any, len(t.Properties))
	for k, v := range t.Properties {
		props[k] = v
	}
	t.Properties = props
	t.Apply(patch, s.f.Now())
	s.f.things[id] = t
	return &t, nil
}

type connectionStore struct{ f *Fake }

func (s connectionStore) List(_ context.Context, filter domain.ConnectionFilter) ([]domain.Connection, error) {
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	if err := s.f.enter("connections.list"); err != nil {
		return nil, err
	}
	out := make([]domain.Connection, 0, len(s.f.conns))
	for _, c := range s.f.conns {
		if filter.Matches(&c) {
			out = append(out, c)
		}
	}
	slices.SortFunc(out, func(a, b domain.Connection) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

func (s connectionStore) Get(_ context.Context, id string) (*domain.Connection, error) {
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	if err := s.f.enter("connections.get"); err != nil {
		return nil, err
	}
	c, ok := s.f.conns[id]
	if !ok {
		return nil, fmt.Errorf("connection %s: %w", id, provider.ErrNotFound)
	}
	return &c, nil
}

func (s connectionStore) Create(_ context.Context, nc domain.NewConnection) (string, error) {
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	if err := s.f.enter("connections.create"); err != nil {
		return "", err
	}
	c := nc.Build(s.f.Now())
	if c.ID == "" {
		c.ID = s.f.nextID("conn")
	}
	s.f.conns[c.ID] = c
	return c.ID, nil
}

type eventStore struct{ f *Fake }

func (s eventStore) List(_ context.Context, filter domain.EventFilter) ([]domain.Event, error) {
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	if err := s.f.enter("events.list"); err != nil {
		return nil, err
	}
	out := make([]domain.Event, 0, len(s.f.events))
	for _, e := range s.f.events {
		if filter.Matches(&e) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s eventStore) Record(_ context.Context, ne domain.NewEvent) (string, error) {
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	if err := s.f.enter("events.record"); err != nil {
		return "", err
	}
	e := ne.Build(s.f.Now())
	if e.ID == "" {
		e.ID = s.f.nextID("event")
	}
	s.f.events = append(s.f.events, e)
	return e.ID, nil
}

type knowledgeStore struct{ f *Fake }

func (s knowledgeStore) Search(_ context.Context, q domain.KnowledgeQuery) ([]domain.KnowledgeMatch, error) {
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	if err := s.f.enter("knowledge.search"); err != nil {
		return nil, err
	}
	out := make([]domain.KnowledgeMatch, 0)
	for i := range s.f.know {
		if m, ok := q.Match(&s.f.know[i]); ok {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s knowledgeStore) Create(_ context.Context, nk domain.NewKnowledge) (string, error) {
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	if err := s.f.enter("knowledge.create"); err != nil {
		return "", err
	}
	k := nk.Build(s.f.Now())
	if k.ID == "" {
		k.ID = s.f.nextID("knowledge")
	}
	s.f.know = append(s.f.know, k)
	return k.ID, nil
}

type authStore struct{ f *Fake }

func (s authStore) CurrentUser(_ context.Context, token string) (*domain.Thing, error) {
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	if err := s.f.enter("auth.current_user"); err != nil {
		return nil, err
	}
	personID, ok := s.f.tokens[token]
	if !ok {
		return nil, fmt.Errorf("unknown token: %w", provider.ErrUnauthorized)
	}
	t, ok := s.f.things[personID]
	if !ok {
		return nil, fmt.Errorf("token owner gone: %w", provider.ErrUnauthorized)
	}
	return &t, nil
}

func (s authStore) IssueToken(_ context.Context, personID string) (string, error) {
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	if err := s.f.enter("auth.issue_token"); err != nil {
		return "", err
	}
	t, ok := s.f.things[personID]
	if !ok || !t.IsPerson() {
		return "", fmt.Errorf("person %s: %w", personID, provider.ErrNotFound)
	}
	token := s.f.nextID("token")
	s.f.tokens[token] = personID
	return token, nil
}
