package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"ontology/internal/domain"
	"ontology/internal/provider"
)

// where accumulates AND-ed conditions with numbered placeholders
type where struct {
	conds []string
	args  []any
}

func (w *where) eq(column, value string) {
	if value == "" {
		return
	}
	w.add(column+" = $%d", value)
}

func (w *where) add(cond string, arg any) {
	w.args = append(w.args, arg)
	w.conds = append(w.conds, fmt.Sprintf(cond, len(w.args)))
}

func (w *where) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike escapes LIKE wildcards so the pattern matches literally
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

const thingSelect = `SELECT id, type, name, COALESCE(group_id, ''), status, properties, created_at, updated_at FROM things`

func scanThing(row pgx.Row) (*domain.Thing, error) {
	var t domain.Thing
	var status string
	if err := row.Scan(&t.ID, &t.Type, &t.Name, &t.GroupID, &status, &t.Properties, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	t.Status = domain.ThingStatus(status)
	if t.Properties == nil {
		t.Properties = make(map[string]any)
	}
	return &t, nil
}

type thingStore struct{ p *Provider }

func (s thingStore) List(ctx context.Context, f domain.ThingFilter) ([]domain.Thing, error) {
	ctx, cancel := s.p.withTimeout(ctx)
	defer cancel()

	var w where
	w.eq("type", f.Type)
	w.eq("group_id", f.GroupID)
	w.eq("status", f.Status)
	if f.Search != "" {
		w.add(`name ILIKE '%%' || $%d || '%%' ESCAPE '\'`, escapeLike(f.Search))
	}

	rows, err := s.p.pool.Query(ctx, thingSelect+w.String(), w.args...)
	if err != nil {
		return nil, fmt.Errorf("query things: %w", mapError(err))
	}
	defer rows.Close()

	things := make([]domain.Thing, 0)
	for rows.Next() {
		t, err := scanThing(rows)
		if err != nil {
			return nil, fmt.Errorf("scan thing: %w", err)
		}
		things = append(things, *t)
	}
	return things, mapError(rows.Err())
}

func (s thingStore) Get(ctx context.Context, id string) (*domain.Thing, error) {
	ctx, cancel := s.p.withTimeout(ctx)
	defer cancel()
	return getThing(ctx, s.p.pool, id)
}

func getThing(ctx context.Context, q interface {
	QueryRow(context.Context, string, ...any) pgx.Row
}, id string) (*domain.Thing, error) {
	t, err := scanThing(q.QueryRow(ctx, thingSelect+" WHERE id = $1", id))
	if err != nil {
		return nil, fmt.Errorf("thing %s: %w", id, mapError(err))
	}
	return t, nil
}

func (s thingStore) Create(ctx context.Context, nt domain.NewThing) (string, error) {
	ctx, cancel := s.p.withTimeout(ctx)
	defer cancel()

	t := nt.Build(s.p.now())
	t.ID = provider.IDOrNew(t.ID)
	_, err := s.p.pool.Exec(ctx, `
INSERT INTO things (id, type, name, group_id, status, properties, created_at, updated_at)
VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7, $8)
`, t.ID, t.Type, t.Name, t.GroupID, string(t.Status), t.Properties, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return "", fmt.Errorf("insert thing %s: %w", t.ID, mapError(err))
	}
	return t.ID, nil
}

func (s thingStore) Update(ctx context.Context, id string, patch domain.ThingPatch) (*domain.Thing, error) {
	ctx, cancel := s.p.withTimeout(ctx)
	defer cancel()

	tx, err := s.p.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin update: %w", mapError(err))
	}
	defer tx.Rollback(ctx)

	t, err := scanThing(tx.QueryRow(ctx, thingSelect+" WHERE id = $1 FOR UPDATE", id))
	if err != nil {
		return nil, fmt.Errorf("thing %s: %w", id, mapError(err))
	}
	t.Apply(patch, s.p.now())

	_, err = tx.Exec(ctx, `UPDATE things SET name = $1, status = $2, properties = $3, updated_at = $4 WHERE id = $5`,
		t.Name, string(t.Status), t.Properties, t.UpdatedAt, id)
	if err != nil {
		return nil, fmt.Errorf("update thing %s: %w", id, mapError(err))
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit update: %w", mapError(err))
	}
	return t, nil
}

const connectionSelect = `SELECT id, from_thing_id, to_thing_id, relationship_type, COALESCE(group_id, ''), metadata, created_at FROM connections`

func scanConnection(row pgx.Row) (*domain.Connection, error) {
	var c domain.Connection
	if err := row.Scan(&c.ID, &c.FromThingID, &c.ToThingID, &c.RelationshipType, &c.GroupID, &c.Metadata, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

type connectionStore struct{ p *Provider }

func (s connectionStore) List(ctx context.Context, f domain.ConnectionFilter) ([]domain.Connection, error) {
	ctx, cancel := s.p.withTimeout(ctx)
	defer cancel()

	var w where
	w.eq("from_thing_id", f.FromThingID)
	w.eq("to_thing_id", f.ToThingID)
	if f.ThingID != "" {
		w.add("(from_thing_id = $%[1]d OR to_thing_id = $%[1]d)", f.ThingID)
	}
	w.eq("relationship_type", f.RelationshipType)
	w.eq("group_id", f.GroupID)

	rows, err := s.p.pool.Query(ctx, connectionSelect+w.String(), w.args...)
	if err != nil {
		return nil, fmt.Errorf("query connections: %w", mapError(err))
	}
	defer rows.Close()

	conns := make([]domain.Connection, 0)
	for rows.Next() {
		c, err := scanConnection(rows)
		if err != nil {
			return nil, fmt.Errorf("scan connection: %w", err)
		}
		conns = append(conns, *c)
	}
	return conns, mapError(rows.Err())
}

func (s connectionStore) Get(ctx context.Context, id string) (*domain.Connection, error) {
	ctx, cancel := s.p.withTimeout(ctx)
	defer cancel()

	c, err := scanConnection(s.p.pool.QueryRow(ctx, connectionSelect+" WHERE id = $1", id))
	if err != nil {
		return nil, fmt.Errorf("connection %s: %w", id, mapError(err))
	}
	return c, nil
}

func (s connectionStore) Create(ctx context.Context, nc domain.NewConnection) (string, error) {
	ctx, cancel := s.p.withTimeout(ctx)
	defer cancel()

	c := nc.Build(s.p.now())
	c.ID = provider.IDOrNew(c.ID)
	_, err := s.p.pool.Exec(ctx, `
INSERT INTO connections (id, from_thing_id, to_thing_id, relationship_type, group_id, metadata, created_at)
VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7)
`, c.ID, c.FromThingID, c.ToThingID, c.RelationshipType, c.GroupID, c.Metadata, c.CreatedAt)
	if err != nil {
		return "", fmt.Errorf("insert connection %s: %w", c.ID, mapError(err))
	}
	return c.ID, nil
}

type eventStore struct{ p *Provider }

func (s eventStore) List(ctx context.Context, f domain.EventFilter) ([]domain.Event, error) {
	ctx, cancel := s.p.withTimeout(ctx)
	defer cancel()

	var w where
	w.eq("type", f.Type)
	w.eq("actor_id", f.ActorID)
	w.eq("target_id", f.TargetID)
	w.eq("group_id", f.GroupID)
	if f.Since != 0 {
		w.add("timestamp >= $%d", f.Since)
	}
	if f.Until != 0 {
		w.add("timestamp <= $%d", f.Until)
	}

	rows, err := s.p.pool.Query(ctx,
		`SELECT id, type, actor_id, COALESCE(target_id, ''), COALESCE(group_id, ''), timestamp, metadata FROM events`+w.String(),
		w.args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", mapError(err))
	}
	defer rows.Close()

	events := make([]domain.Event, 0)
	for rows.Next() {
		var e domain.Event
		if err := rows.Scan(&e.ID, &e.Type, &e.ActorID, &e.TargetID, &e.GroupID, &e.Timestamp, &e.Metadata); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, e)
	}
	return events, mapError(rows.Err())
}

func (s eventStore) Record(ctx context.Context, ne domain.NewEvent) (string, error) {
	ctx, cancel := s.p.withTimeout(ctx)
	defer cancel()

	e := ne.Build(s.p.now())
	e.ID = provider.IDOrNew(e.ID)
	_, err := s.p.pool.Exec(ctx, `
INSERT INTO events (id, type, actor_id, target_id, group_id, timestamp, metadata)
VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), $6, $7)
`, e.ID, e.Type, e.ActorID, e.TargetID, e.GroupID, e.Timestamp, e.Metadata)
	if err != nil {
		return "", fmt.Errorf("insert event %s: %w", e.ID, mapError(err))
	}
	return e.ID, nil
}

type knowledgeStore struct{ p *Provider }

func (s knowledgeStore) Search(ctx context.Context, q domain.KnowledgeQuery) ([]domain.KnowledgeMatch, error) {
	ctx, cancel := s.p.withTimeout(ctx)
	defer cancel()

	var w where
	w.eq("knowledge_type", q.KnowledgeType)
	w.eq("group_id", q.GroupID)

	rows, err := s.p.pool.Query(ctx,
		`SELECT id, knowledge_type, text, labels, COALESCE(group_id, ''), COALESCE(source_thing_id, ''), created_at FROM knowledge`+w.String(),
		w.args...)
	if err != nil {
		return nil, fmt.Errorf("query knowledge: %w", mapError(err))
	}
	defer rows.Close()

	matches := make([]domain.KnowledgeMatch, 0)
	for rows.Next() {
		var k domain.Knowledge
		var kt string
		if err := rows.Scan(&k.ID, &kt, &k.Text, &k.Labels, &k.GroupID, &k.SourceThingID, &k.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan knowledge: %w", err)
		}
		k.KnowledgeType = domain.KnowledgeType(kt)
		if m, ok := q.Match(&k); ok {
			matches = append(matches, m)
		}
	}
	return matches, mapError(rows.Err())
}

func (s knowledgeStore) Create(ctx context.Context, nk domain.NewKnowledge) (string, error) {
	ctx, cancel := s.p.withTimeout(ctx)
	defer cancel()

	k := nk.Build(s.p.now())
	k.ID = provider.IDOrNew(k.ID)
	_, err := s.p.pool.Exec(ctx, `
INSERT INTO knowledge (id, knowledge_type, text, labels, group_id, source_thing_id, created_at)
VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), $7)
`, k.ID, string(k.KnowledgeType), k.Text, k.Labels, k.GroupID, k.SourceThingID, k.CreatedAt)
	if err != nil {
		return "", fmt.Errorf("insert knowledge %s: %w", k.ID, mapError(err))
	}
	return k.ID, nil
}

type authStore struct{ p *Provider }

func (s authStore) CurrentUser(ctx context.Context, token string) (*domain.Thing, error) {
	if token == "" {
		return nil, fmt.Errorf("missing token: %w", provider.ErrUnauthorized)
	}
	ctx, cancel := s.p.withTimeout(ctx)
	defer cancel()

	t, err := scanThing(s.p.pool.QueryRow(ctx, `
SELECT t.id, t.type, t.name, COALESCE(t.group_id, ''), t.status, t.properties, t.created_at, t.updated_at
FROM auth_tokens a JOIN things t ON t.id = a.person_id
WHERE a.token_hash = $1
`, provider.HashToken(token)))
	if err != nil {
		mapped := mapError(err)
		if errors.Is(mapped, provider.ErrNotFound) {
			return nil, fmt.Errorf("unknown token: %w", provider.ErrUnauthorized)
		}
		return nil, fmt.Errorf("look up token: %w", mapped)
	}
	return t, nil
}

func (s authStore) IssueToken(ctx context.Context, personID string) (string, error) {
	ctx, cancel := s.p.withTimeout(ctx)
	defer cancel()

	person, err := getThing(ctx, s.p.pool, personID)
	if err != nil {
		return "", err
	}
	if !person.IsPerson() {
		return "", fmt.Errorf("thing %s is not a person: %w", personID, provider.ErrNotFound)
	}

	token, err := provider.NewToken()
	if err != nil {
		return "", err
	}
	_, err = s.p.pool.Exec(ctx,
		`INSERT INTO auth_tokens (token_hash, person_id, created_at) VALUES ($1, $2, $3)`,
		provider.HashToken(token), personID, s.p.now().UnixMilli())
	if err != nil {
		return "", fmt.Errorf("store token: %w", mapError(err))
	}
	return token, nil
}
