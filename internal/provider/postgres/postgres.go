// Package postgres implements the data provider on a PostgreSQL server
// through a pgx connection pool, so several API replicas can share state.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"ontology/internal/provider"
)

const schema = `
CREATE TABLE IF NOT EXISTS things (
	id TEXT PRIMARY KEY,
	type TEXT NOT NULL,
	name TEXT NOT NULL,
	group_id TEXT,
	status TEXT NOT NULL DEFAULT 'active',
	properties JSONB,
	created_at BIGINT NOT NULL,
	updated_at BIGINT NOT NULL
);
CREATE TABLE IF NOT EXISTS connections (
	id TEXT PRIMARY KEY,
	from_thing_id TEXT NOT NULL,
	to_thing_id TEXT NOT NULL,
	relationship_type TEXT NOT NULL,
	group_id TEXT,
	metadata JSONB,
	created_at BIGINT NOT NULL
);
CREATE TABLE IF NOT EXISTS events (
	id TEXT PRIMARY KEY,
	type TEXT NOT NULL,
	actor_id TEXT NOT NULL,
	target_id TEXT,
	group_id TEXT,
	timestamp BIGINT NOT NULL,
	metadata JSONB
);
CREATE TABLE IF NOT EXISTS knowledge (
	id TEXT PRIMARY KEY,
	knowledge_type TEXT NOT NULL,
	text TEXT NOT NULL,
	labels TEXT[],
	group_id TEXT,
	source_thing_id TEXT,
	created_at BIGINT NOT NULL
);
CREATE TABLE IF NOT EXISTS auth_tokens (
	token_hash TEXT PRIMARY KEY,
	person_id TEXT NOT NULL,
	created_at BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_things_type ON things(type);
CREATE INDEX IF NOT EXISTS idx_things_group ON things(group_id);
CREATE INDEX IF NOT EXISTS idx_connections_from ON connections(from_thing_id);
CREATE INDEX IF NOT EXISTS idx_connections_to ON connections(to_thing_id);
CREATE INDEX IF NOT EXISTS idx_events_type_ts ON events(type, timestamp);
`

// Option configures a Provider
type Option func(*Provider)

// WithTimeout bounds every query issued by the provider
func WithTimeout(d time.Duration) Option {
	return func(p *Provider) {
		p.timeout = d
	}
}

// WithMaxConns caps the pool size
func WithMaxConns(n int32) Option {
	return func(p *Provider) {
		p.maxConns = n
	}
}

// Provider implements provider.DataProvider on PostgreSQL
type Provider struct {
	pool     *pgxpool.Pool
	timeout  time.Duration
	maxConns int32
	now      func() time.Time
}

var _ provider.DataProvider = (*Provider)(nil)

// New connects to dsn and migrates the schema
func New(ctx context.Context, dsn string, opts ...Option) (*Provider, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres dsn required")
	}
	p := &Provider{timeout: 5 * time.Second, now: time.Now}
	for _, opt := range opts {
		opt(p)
	}

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}
	if p.maxConns > 0 {
		cfg.MaxConns = p.maxConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}
	p.pool = pool

	if err := p.Migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate postgres schema: %w", err)
	}
	return p, nil
}

// Migrate creates the schema
func (p *Provider) Migrate(ctx context.Context) error {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()
	_, err := p.pool.Exec(ctx, schema)
	return mapError(err)
}

func (p *Provider) Things() provider.ThingStore           { return thingStore{p} }
func (p *Provider) Connections() provider.ConnectionStore { return connectionStore{p} }
func (p *Provider) Events() provider.EventStore           { return eventStore{p} }
func (p *Provider) Knowledge() provider.KnowledgeStore    { return knowledgeStore{p} }
func (p *Provider) Auth() provider.AuthStore              { return authStore{p} }

// Ping checks the pool can reach the server
func (p *Provider) Ping(ctx context.Context) error {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()
	if err := p.pool.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %w", provider.ErrUnavailable, err)
	}
	return nil
}

// Close releases the pool
func (p *Provider) Close() error {
	if p == nil || p.pool == nil {
		return nil
	}
	p.pool.Close()
	return nil
}

func (p *Provider) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, p.timeout)
}

// mapError translates pgx errors into provider sentinels
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: %w", provider.ErrNotFound, err)
	}
	if pgerr := new(pgconn.PgError); errors.As(err, &pgerr) {
		switch {
		case pgerr.Code == pgerrcode.UniqueViolation:
			return fmt.Errorf("%w: %s", provider.ErrConflict, pgerr.Detail)
		case pgerrcode.IsConnectionException(pgerr.Code),
			pgerr.Code == pgerrcode.TooManyConnections,
			pgerr.Code == pgerrcode.AdminShutdown:
			return fmt.Errorf("%w: %w", provider.ErrUnavailable, err)
		}
	}
	if pgconn.Timeout(err) {
		return fmt.Errorf("%w: %w", provider.ErrUnavailable, err)
	}
	return err
}
