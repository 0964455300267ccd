package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"ontology/internal/provider"
)

// Provider implements provider.DataProvider using SQLite
type Provider struct {
	db  *sql.DB
	now func() time.Time

	things      *thingStore
	connections *connectionStore
	events      *eventStore
	knowledge   *knowledgeStore
	auth        *authStore
}

var _ provider.DataProvider = (*Provider)(nil)

// New opens the database at dbPath and migrates the schema
func New(dbPath string) (*Provider, error) {
	dsn := dbPath
	if dbPath != ":memory:" {
		dsn = "file:" + dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// each connection to :memory: is a separate database
		db.SetMaxOpenConns(1)
	}

	p := NewWithDB(db)
	if err := p.Migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return p, nil
}

// NewWithDB wraps an already opened database without migrating it
func NewWithDB(db *sql.DB) *Provider {
	p := &Provider{db: db, now: time.Now}
	p.things = &thingStore{p: p}
	p.connections = &connectionStore{p: p}
	p.events = &eventStore{p: p}
	p.knowledge = &knowledgeStore{p: p}
	p.auth = &authStore{p: p}
	return p
}

// Migrate creates the schema and applies column additions
func (p *Provider) Migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS things (
		id TEXT PRIMARY KEY,
		type TEXT NOT NULL,
		name TEXT NOT NULL,
		group_id TEXT,
		status TEXT NOT NULL DEFAULT 'active',
		properties JSON,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS connections (
		id TEXT PRIMARY KEY,
		from_thing_id TEXT NOT NULL,
		to_thing_id TEXT NOT NULL,
		relationship_type TEXT NOT NULL,
		group_id TEXT,
		metadata JSON,
		created_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS events (
		id TEXT PRIMARY KEY,
		type TEXT NOT NULL,
		actor_id TEXT NOT NULL,
		target_id TEXT,
		group_id TEXT,
		timestamp INTEGER NOT NULL,
		metadata JSON
	);

	CREATE TABLE IF NOT EXISTS knowledge (
		id TEXT PRIMARY KEY,
		knowledge_type TEXT NOT NULL,
		text TEXT NOT NULL,
		labels JSON,
		group_id TEXT,
		created_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS auth_tokens (
		token_hash TEXT PRIMARY KEY,
		person_id TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_things_type ON things(type);
	CREATE INDEX IF NOT EXISTS idx_things_group ON things(group_id);
	CREATE INDEX IF NOT EXISTS idx_connections_from ON connections(from_thing_id);
	CREATE INDEX IF NOT EXISTS idx_connections_to ON connections(to_thing_id);
	CREATE INDEX IF NOT EXISTS idx_events_type ON events(type);
	CREATE INDEX IF NOT EXISTS idx_events_timestamp ON events(timestamp);
	CREATE INDEX IF NOT EXISTS idx_knowledge_group ON knowledge(group_id);
	`
	if _, err := p.db.ExecContext(ctx, schema); err != nil {
		return err
	}

	if err := p.addColumnIfNotExists(ctx, "knowledge", "source_thing_id", "TEXT"); err != nil {
		return err
	}
	return nil
}

// addColumnIfNotExists adds a column to an existing table
func (p *Provider) addColumnIfNotExists(ctx context.Context, table, column, typ string) error {
	rows, err := p.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return fmt.Errorf("failed to inspect %s: %w", table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid         int
			name, ctype string
			notNull     int
			dflt        sql.NullString
			pk          int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notNull, &dflt, &pk); err != nil {
			return fmt.Errorf("failed to scan column info: %w", err)
		}
		if name == column {
			return nil
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	_, err = p.db.ExecContext(ctx, fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, typ))
	if err != nil {
		return fmt.Errorf("failed to add column %s.%s: %w", table, column, err)
	}
	return nil
}

func (p *Provider) Things() provider.ThingStore           { return p.things }
func (p *Provider) Connections() provider.ConnectionStore { return p.connections }
func (p *Provider) Events() provider.EventStore           { return p.events }
func (p *Provider) Knowledge() provider.KnowledgeStore    { return p.knowledge }
func (p *Provider) Auth() provider.AuthStore              { return p.auth }

// Ping checks the database connection
func (p *Provider) Ping(ctx context.Context) error {
	if err := p.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %w", provider.ErrUnavailable, err)
	}
	return nil
}

// Close closes the database connection
func (p *Provider) Close() error {
	return p.db.Close()
}

func (p *Provider) nowMillis() int64 {
	return p.now().UnixMilli()
}

// mapError translates driver errors into provider sentinels
func mapError(err error) error {
	if err == nil {
		return nil
	}
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return err
	}
	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE:
		return fmt.Errorf("%w: %w", provider.ErrConflict, err)
	case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
		return fmt.Errorf("%w: %w", provider.ErrUnavailable, err)
	}
	if se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(se.Error(), "UNIQUE") {
		return fmt.Errorf("%w: %w", provider.ErrConflict, err)
	}
	return err
}
