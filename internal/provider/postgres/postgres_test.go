package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ontology/internal/domain"
	"ontology/internal/provider"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"no rows", pgx.ErrNoRows, provider.ErrNotFound},
		{"unique violation", &pgconn.PgError{Code: pgerrcode.UniqueViolation, Detail: "Key (id)=(t1) already exists."}, provider.ErrConflict},
		{"connection failure", &pgconn.PgError{Code: pgerrcode.ConnectionFailure}, provider.ErrUnavailable},
		{"too many connections", fmt.Errorf("wrapped: %w", &pgconn.PgError{Code: pgerrcode.TooManyConnections}), provider.ErrUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, mapError(tt.err), tt.want)
		})
	}

	assert.NoError(t, mapError(nil))

	plain := errors.New("syntax error")
	assert.Same(t, plain, mapError(plain))
}

func TestWhereNumbersPlaceholders(t *testing.T) {
	var w where
	w.eq("type", "course")
	w.eq("group_id", "")
	w.add("timestamp >= $%d", int64(5))

	assert.Equal(t, " WHERE type = $1 AND timestamp >= $2", w.String())
	assert.Equal(t, []any{"course", int64(5)}, w.args)

	w.add("(from_thing_id = $%[1]d OR to_thing_id = $%[1]d)", "t1")
	assert.Equal(t, " WHERE type = $1 AND timestamp >= $2 AND (from_thing_id = $3 OR to_thing_id = $3)", w.String())
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `50\%`, escapeLike("50%"))
	assert.Equal(t, `a\_b`, escapeLike("a_b"))
	assert.Equal(t, `c:\\\\x`, escapeLike(`c:\\x`))
	assert.Equal(t, "Plain", escapeLike("Plain"))
}

func TestNewRequiresDSN(t *testing.T) {
	_, err := New(context.Background(), "")
	assert.Error(t, err)
}

// openTestProvider connects to ONTOLOGY_TEST_POSTGRES_DSN or skips
func openTestProvider(t *testing.T) *Provider {
	t.Helper()
	dsn := os.Getenv("ONTOLOGY_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("ONTOLOGY_TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()
	p, err := New(ctx, dsn, WithTimeout(2*time.Second), WithMaxConns(4))
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = p.pool.Exec(context.Background(), `TRUNCATE things, connections, events, knowledge, auth_tokens`)
		p.Close()
	})
	_, err = p.pool.Exec(ctx, `TRUNCATE things, connections, events, knowledge, auth_tokens`)
	require.NoError(t, err)
	return p
}

func TestPostgresThingLifecycle(t *testing.T) {
	p := openTestProvider(t)
	ctx := context.Background()

	require.NoError(t, p.Ping(ctx))

	id, err := p.Things().Create(ctx, domain.NewThing{Type: "course", Name: "X", GroupID: "g1", Properties: map[string]any{"a": "1"}})
	require.NoError(t, err)

	got, err := p.Things().Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "X", got.Name)

	_, err = p.Things().Create(ctx, domain.NewThing{ID: id, Type: "course", Name: "dup"})
	assert.ErrorIs(t, err, provider.ErrConflict)

	name := "Y"
	updated, err := p.Things().Update(ctx, id, domain.ThingPatch{Name: &name, Properties: map[string]any{"b": "2"}})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": "1", "b": "2"}, updated.Properties)

	list, err := p.Things().List(ctx, domain.ThingFilter{Search: "y"})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = p.Things().Get(ctx, "missing")
	assert.ErrorIs(t, err, provider.ErrNotFound)
}

func TestPostgresAuthAndEvents(t *testing.T) {
	p := openTestProvider(t)
	ctx := context.Background()

	_, err := p.Things().Create(ctx, domain.NewThing{ID: "p1", Type: domain.ThingTypeCreator, Name: "Ada"})
	require.NoError(t, err)

	token, err := p.Auth().IssueToken(ctx, "p1")
	require.NoError(t, err)
	user, err := p.Auth().CurrentUser(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "p1", user.ID)

	_, err = p.Auth().CurrentUser(ctx, "nope")
	assert.ErrorIs(t, err, provider.ErrUnauthorized)

	_, err = p.Events().Record(ctx, domain.NewEvent{Type: "entity_created", ActorID: "p1", Timestamp: 10})
	require.NoError(t, err)
	events, err := p.Events().List(ctx, domain.EventFilter{Since: 5})
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestPostgresFilters(t *testing.T) {
	p := openTestProvider(t)
	ctx := context.Background()

	for _, name := range []string{"50% off", "500 club", "snake_case", "snakeXcase"} {
		_, err := p.Things().Create(ctx, domain.NewThing{Type: "course", Name: name, GroupID: "g1"})
		require.NoError(t, err)
	}

	list, err := p.Things().List(ctx, domain.ThingFilter{Search: "50%"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "50% off", list[0].Name)

	list, err = p.Things().List(ctx, domain.ThingFilter{Search: "e_c"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "snake_case", list[0].Name)

	_, err = p.Connections().Create(ctx, domain.NewConnection{FromThingID: "p1", ToThingID: "c1", RelationshipType: domain.RelationshipOwns})
	require.NoError(t, err)
	_, err = p.Connections().Create(ctx, domain.NewConnection{FromThingID: "c1", ToThingID: "p2", RelationshipType: domain.RelationshipOwns})
	require.NoError(t, err)

	conns, err := p.Connections().List(ctx, domain.ConnectionFilter{ThingID: "c1"})
	require.NoError(t, err)
	assert.Len(t, conns, 2)
	conns, err = p.Connections().List(ctx, domain.ConnectionFilter{ThingID: "p2"})
	require.NoError(t, err)
	assert.Len(t, conns, 1)
}
