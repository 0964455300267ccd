package sqlite

import (
	"context"
	"fmt"

	"ontology/internal/domain"
	"ontology/internal/provider"
)

type knowledgeStore struct {
	p *Provider
}

// Search scores every candidate row in memory and keeps those passing
// the query threshold
func (s *knowledgeStore) Search(ctx context.Context, q domain.KnowledgeQuery) ([]domain.KnowledgeMatch, error) {
	var w where
	w.eq("knowledge_type", q.KnowledgeType)
	w.eq("group_id", q.GroupID)

	rows, err := s.p.db.QueryContext(ctx, "SELECT "+knowledgeColumns+" FROM knowledge"+w.String(), w.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query knowledge: %w", mapError(err))
	}
	defer rows.Close()

	matches := make([]domain.KnowledgeMatch, 0)
	for rows.Next() {
		var row knowledgeRow
		if err := rows.Scan(row.scanArgs()...); err != nil {
			return nil, fmt.Errorf("failed to scan knowledge: %w", err)
		}
		k, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		if m, ok := q.Match(k); ok {
			matches = append(matches, m)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating knowledge: %w", err)
	}
	return matches, nil
}

// Create inserts a knowledge item
func (s *knowledgeStore) Create(ctx context.Context, nk domain.NewKnowledge) (string, error) {
	k := nk.Build(s.p.now())
	k.ID = provider.IDOrNew(k.ID)

	labels, err := marshalToNull(k.Labels)
	if err != nil {
		return "", fmt.Errorf("failed to marshal labels: %w", err)
	}
	_, err = s.p.db.ExecContext(ctx,
		"INSERT INTO knowledge ("+knowledgeColumns+") VALUES (?, ?, ?, ?, ?, ?, ?)",
		k.ID, string(k.KnowledgeType), k.Text, labels, stringToNull(k.GroupID), stringToNull(k.SourceThingID), k.CreatedAt)
	if err != nil {
		return "", fmt.Errorf("failed to insert knowledge %s: %w", k.ID, mapError(err))
	}
	return k.ID, nil
}
