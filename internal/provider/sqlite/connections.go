package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"ontology/internal/domain"
	"ontology/internal/provider"
)

type connectionStore struct {
	p *Provider
}

// List returns all connections matching the filter
func (s *connectionStore) List(ctx context.Context, f domain.ConnectionFilter) ([]domain.Connection, error) {
	var w where
	w.eq("from_thing_id", f.FromThingID)
	w.eq("to_thing_id", f.ToThingID)
	if f.ThingID != "" {
		w.conds = append(w.conds, "(from_thing_id = ? OR to_thing_id = ?)")
		w.args = append(w.args, f.ThingID, f.ThingID)
	}
	w.eq("relationship_type", f.RelationshipType)
	w.eq("group_id", f.GroupID)

	rows, err := s.p.db.QueryContext(ctx, "SELECT "+connectionColumns+" FROM connections"+w.String(), w.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query connections: %w", mapError(err))
	}
	defer rows.Close()

	conns := make([]domain.Connection, 0)
	for rows.Next() {
		var row connectionRow
		if err := rows.Scan(row.scanArgs()...); err != nil {
			return nil, fmt.Errorf("failed to scan connection: %w", err)
		}
		c, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		conns = append(conns, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating connections: %w", err)
	}
	return conns, nil
}

// Get returns a connection by id
func (s *connectionStore) Get(ctx context.Context, id string) (*domain.Connection, error) {
	var row connectionRow
	err := s.p.db.QueryRowContext(ctx,
		"SELECT "+connectionColumns+" FROM connections WHERE id = ?", id).Scan(row.scanArgs()...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("connection %s: %w", id, provider.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get connection: %w", mapError(err))
	}
	return row.toDomain()
}

// Create inserts a new connection
func (s *connectionStore) Create(ctx context.Context, nc domain.NewConnection) (string, error) {
	c := nc.Build(s.p.now())
	c.ID = provider.IDOrNew(c.ID)

	meta, err := marshalToNull(c.Metadata)
	if err != nil {
		return "", fmt.Errorf("failed to marshal metadata: %w", err)
	}
	_, err = s.p.db.ExecContext(ctx,
		"INSERT INTO connections ("+connectionColumns+") VALUES (?, ?, ?, ?, ?, ?, ?)",
		c.ID, c.FromThingID, c.ToThingID, c.RelationshipType, stringToNull(c.GroupID), meta, c.CreatedAt)
	if err != nil {
		return "", fmt.Errorf("failed to insert connection %s: %w", c.ID, mapError(err))
	}
	return c.ID, nil
}
