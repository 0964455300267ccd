package provider

import (
	"context"
	"errors"

	"ontology/internal/domain"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("already exists")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrUnavailable  = errors.New("provider unavailable")
)

// DataProvider is the storage backend behind the API
type DataProvider interface {
	Things() ThingStore
	Connections() ConnectionStore
	Events() EventStore
	Knowledge() KnowledgeStore
	Auth() AuthStore

	// Ping checks that the backend is reachable
	Ping(ctx context.Context) error

	// Close releases resources
	Close() error
}

// ThingStore manages things
type ThingStore interface {
	List(ctx context.Context, filter domain.ThingFilter) ([]domain.Thing, error)
	Get(ctx context.Context, id string) (*domain.Thing, error)
	// Create stores the thing and returns its id. An id is generated
	// when the request carries none.
	Create(ctx context.Context, t domain.NewThing) (string, error)
	// Update merges the patch into the stored thing
	Update(ctx context.Context, id string, patch domain.ThingPatch) (*domain.Thing, error)
}

// ConnectionStore manages connections
type ConnectionStore interface {
	List(ctx context.Context, filter domain.ConnectionFilter) ([]domain.Connection, error)
	Get(ctx context.Context, id string) (*domain.Connection, error)
	Create(ctx context.Context, c domain.NewConnection) (string, error)
}

// EventStore records and lists audit events
type EventStore interface {
	List(ctx context.Context, filter domain.EventFilter) ([]domain.Event, error)
	Record(ctx context.Context, e domain.NewEvent) (string, error)
}

// KnowledgeStore searches and stores knowledge items
type KnowledgeStore interface {
	Search(ctx context.Context, q domain.KnowledgeQuery) ([]domain.KnowledgeMatch, error)
	Create(ctx context.Context, k domain.NewKnowledge) (string, error)
}

// AuthStore resolves bearer tokens to people
type AuthStore interface {
	// CurrentUser returns the person owning token, or ErrUnauthorized
	CurrentUser(ctx context.Context, token string) (*domain.Thing, error)
	// IssueToken creates a new token for a person. Only its hash is stored.
	IssueToken(ctx context.Context, personID string) (string, error)
}
