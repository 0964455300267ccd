package sqlite

import (
	"context"
	"fmt"

	"ontology/internal/domain"
	"ontology/internal/provider"
)

type eventStore struct {
	p *Provider
}

// List returns all events matching the filter
func (s *eventStore) List(ctx context.Context, f domain.EventFilter) ([]domain.Event, error) {
	var w where
	w.eq("type", f.Type)
	w.eq("actor_id", f.ActorID)
	w.eq("target_id", f.TargetID)
	w.eq("group_id", f.GroupID)
	if f.Since != 0 {
		w.add("timestamp >= ?", f.Since)
	}
	if f.Until != 0 {
		w.add("timestamp <= ?", f.Until)
	}

	rows, err := s.p.db.QueryContext(ctx, "SELECT "+eventColumns+" FROM events"+w.String(), w.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", mapError(err))
	}
	defer rows.Close()

	events := make([]domain.Event, 0)
	for rows.Next() {
		var row eventRow
		if err := rows.Scan(row.scanArgs()...); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		e, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		events = append(events, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating events: %w", err)
	}
	return events, nil
}

// Record appends an event
func (s *eventStore) Record(ctx context.Context, ne domain.NewEvent) (string, error) {
	e := ne.Build(s.p.now())
	e.ID = provider.IDOrNew(e.ID)

	meta, err := marshalToNull(e.Metadata)
	if err != nil {
		return "", fmt.Errorf("failed to marshal metadata: %w", err)
	}
	_, err = s.p.db.ExecContext(ctx,
		"INSERT INTO events ("+eventColumns+") VALUES (?, ?, ?, ?, ?, ?, ?)",
		e.ID, e.Type, e.ActorID, stringToNull(e.TargetID), stringToNull(e.GroupID), e.Timestamp, meta)
	if err != nil {
		return "", fmt.Errorf("failed to insert event %s: %w", e.ID, mapError(err))
	}
	return e.ID, nil
}
