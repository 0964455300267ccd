package loader

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ontology/internal/domain"
	"ontology/internal/provider"
	"ontology/internal/provider/providertest"
	"ontology/internal/provider/sqlite"
)

const seed = `
things:
  - id: person-1
    type: creator
    name: Ada
    group_id: g1
  - type: course
    name: Go Basics
    group_id: g1
connections:
  - from: person-1
    to: course-1
    type: owns
events:
  - type: entity_created
    actor: person-1
    timestamp: 1700000000000
knowledge:
  - text: goroutines are cheap
`

func writeSeed(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func newSQLite(t *testing.T) *sqlite.Provider {
	t.Helper()
	p, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { p.Close() })
	return p
}

func TestLoadIsIdempotent(t *testing.T) {
	ctx := context.Background()
	p := newSQLite(t)
	path := writeSeed(t, "seed.yaml", seed)

	res, err := Load(ctx, p, path)
	require.NoError(t, err)
	assert.Equal(t, Result{Created: 5}, res)

	res, err = Load(ctx, p, path)
	require.NoError(t, err)
	assert.Equal(t, Result{Updated: 2, Skipped: 3}, res)

	things, err := p.Things().List(ctx, domain.ThingFilter{})
	require.NoError(t, err)
	assert.Len(t, things, 2)

	events, err := p.Events().List(ctx, domain.EventFilter{})
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestLoadUpdatesChangedThing(t *testing.T) {
	ctx := context.Background()
	p := newSQLite(t)

	_, err := Load(ctx, p, writeSeed(t, "v1.yaml", seed))
	require.NoError(t, err)

	changed := `
things:
  - id: person-1
    type: creator
    name: Ada Lovelace
    group_id: g1
    status: archived
`
	res, err := Load(ctx, p, writeSeed(t, "v2.yaml", changed))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Updated)

	got, err := p.Things().Get(ctx, "person-1")
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", got.Name)
	assert.Equal(t, domain.ThingStatusArchived, got.Status)
}

func TestLoadJSONKeepsIDs(t *testing.T) {
	ctx := context.Background()
	fake := providertest.New()
	path := writeSeed(t, "seed.json", `{"things":[{"_id":"t1","type":"course","name":"Go","groupId":"g1"}]}`)

	res, err := Load(ctx, fake, path)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Created)

	got, err := fake.Things().Get(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "Go", got.Name)
}

func TestLoadErrors(t *testing.T) {
	ctx := context.Background()

	_, err := Load(ctx, providertest.New(), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(ctx, providertest.New(), writeSeed(t, "bad.yaml", "things: [oops"))
	assert.Error(t, err)

	fake := providertest.New()
	fake.Err = provider.ErrUnavailable
	_, err = Load(ctx, fake, writeSeed(t, "seed.yaml", seed))
	assert.True(t, errors.Is(err, provider.ErrUnavailable))
}

func TestExport(t *testing.T) {
	ctx := context.Background()
	p := newSQLite(t)
	_, err := Load(ctx, p, writeSeed(t, "seed.yaml", seed))
	require.NoError(t, err)

	s, err := Export(ctx, p)
	require.NoError(t, err)
	assert.Len(t, s.Things, 2)
	assert.Len(t, s.Connections, 1)
	assert.Len(t, s.Events, 1)
	require.Len(t, s.Knowledge, 1)
	assert.Equal(t, domain.KnowledgeTypeChunk, s.Knowledge[0].KnowledgeType)

	// exported snapshots re-import without changes
	res, err := Import(ctx, p, s)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Created)
}

func TestStableID(t *testing.T) {
	assert.Equal(t, "given", stableID("given", "thing", "a"))
	a := stableID("", "thing", "course", "g1", "Go")
	b := stableID("", "thing", "course", "g1", "Go")
	c := stableID("", "thing", "course", "g2", "Go")
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}
