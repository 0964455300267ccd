package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"ontology/internal/domain"
	"ontology/internal/provider"
)

type thingStore struct {
	p *Provider
}

// List returns all things matching the filter
func (s *thingStore) List(ctx context.Context, f domain.ThingFilter) ([]domain.Thing, error) {
	var w where
	w.eq("type", f.Type)
	w.eq("group_id", f.GroupID)
	w.eq("status", f.Status)
	if f.Search != "" {
		w.add("LOWER(name) LIKE ? ESCAPE '\\'", "%"+escapeLike(f.Search)+"%")
	}

	rows, err := s.p.db.QueryContext(ctx, "SELECT "+thingColumns+" FROM things"+w.String(), w.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query things: %w", mapError(err))
	}
	defer rows.Close()

	things := make([]domain.Thing, 0)
	for rows.Next() {
		var row thingRow
		if err := rows.Scan(row.scanArgs()...); err != nil {
			return nil, fmt.Errorf("failed to scan thing: %w", err)
		}
		t, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		things = append(things, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating things: %w", err)
	}
	return things, nil
}

// Get returns a thing by id
func (s *thingStore) Get(ctx context.Context, id string) (*domain.Thing, error) {
	return getThing(ctx, s.p.db, id)
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getThing(ctx context.Context, q queryRower, id string) (*domain.Thing, error) {
	var row thingRow
	err := q.QueryRowContext(ctx, "SELECT "+thingColumns+" FROM things WHERE id = ?", id).Scan(row.scanArgs()...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("thing %s: %w", id, provider.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get thing: %w", mapError(err))
	}
	return row.toDomain()
}

// Create inserts a new thing
func (s *thingStore) Create(ctx context.Context, nt domain.NewThing) (string, error) {
	t := nt.Build(s.p.now())
	t.ID = provider.IDOrNew(t.ID)

	args, err := thingArgs(&t)
	if err != nil {
		return "", err
	}
	_, err = s.p.db.ExecContext(ctx,
		"INSERT INTO things ("+thingColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?)", args...)
	if err != nil {
		return "", fmt.Errorf("failed to insert thing %s: %w", t.ID, mapError(err))
	}
	return t.ID, nil
}

// Update merges the patch into a stored thing
func (s *thingStore) Update(ctx context.Context, id string, patch domain.ThingPatch) (*domain.Thing, error) {
	tx, err := s.p.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", mapError(err))
	}
	defer tx.Rollback()

	t, err := getThing(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	t.Apply(patch, s.p.now())

	props, err := marshalToNull(t.Properties)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal properties: %w", err)
	}
	_, err = tx.ExecContext(ctx, `
		UPDATE things SET name = ?, status = ?, properties = ?, updated_at = ?
		WHERE id = ?
	`, t.Name, string(t.Status), props, t.UpdatedAt, id)
	if err != nil {
		return nil, fmt.Errorf("failed to update thing %s: %w", id, mapError(err))
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit update: %w", mapError(err))
	}
	return t, nil
}

// escapeLike escapes LIKE wildcards and lowercases the pattern
func escapeLike(s string) string {
	var out []rune
	for _, r := range s {
		switch r {
		case '%', '_', '\\':
			out = append(out, '\\')
		}
		out = append(out, r)
	}
	return strings.ToLower(string(out))
}
