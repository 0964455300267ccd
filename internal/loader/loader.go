// Package loader imports snapshot files into a provider and exports a
// provider's contents back into a snapshot.
package loader

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"

	"ontology/internal/codec"
	"ontology/internal/domain"
	"ontology/internal/provider"
)

// Result counts what an import did
type Result struct {
	Created int
	Updated int
	Skipped int
}

func (r Result) String() string {
	return fmt.Sprintf("%d created, %d updated, %d skipped", r.Created, r.Updated, r.Skipped)
}

// Load reads a snapshot file and imports it. The codec is chosen by the
// file extension.
func Load(ctx context.Context, p provider.DataProvider, path string) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("failed to open seed file: %w", err)
	}
	defer f.Close()

	s, err := codec.ForPath(path).Parse(f)
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", path, err)
	}

	return Import(ctx, p, s)
}

// Import writes every record of the snapshot through the provider.
//
// Records without an id get one derived from their content, so importing
// the same file twice does not duplicate anything. Existing things are
// updated in place; other existing records are skipped.
func Import(ctx context.Context, p provider.DataProvider, s *domain.Snapshot) (Result, error) {
	var res Result

	for _, t := range s.Things {
		id := stableID(t.ID, "thing", t.Type, t.GroupID, t.Name)
		_, err := p.Things().Create(ctx, domain.NewThing{
			ID:         id,
			Type:       t.Type,
			Name:       t.Name,
			GroupID:    t.GroupID,
			Status:     t.Status,
			Properties: t.Properties,
		})
		switch {
		case err == nil:
			res.Created++
		case errors.Is(err, provider.ErrConflict):
			patch := domain.ThingPatch{Name: &t.Name, Properties: t.Properties}
			if t.Status != "" {
				status := t.Status
				patch.Status = &status
			}
			if _, err := p.Things().Update(ctx, id, patch); err != nil {
				return res, fmt.Errorf("update thing %s: %w", id, err)
			}
			res.Updated++
		default:
			return res, fmt.Errorf("create thing %s: %w", id, err)
		}
	}

	for _, c := range s.Connections {
		id := stableID(c.ID, "connection", c.FromThingID, c.ToThingID, c.RelationshipType)
		_, err := p.Connections().Create(ctx, domain.NewConnection{
			ID:               id,
			FromThingID:      c.FromThingID,
			ToThingID:        c.ToThingID,
			RelationshipType: c.RelationshipType,
			GroupID:          c.GroupID,
			Metadata:         c.Metadata,
		})
		if err := tally(&res, err); err != nil {
			return res, fmt.Errorf("create connection %s: %w", id, err)
		}
	}

	for _, e := range s.Events {
		id := stableID(e.ID, "event", e.Type, e.ActorID, e.TargetID, fmt.Sprint(e.Timestamp))
		_, err := p.Events().Record(ctx, domain.NewEvent{
			ID:        id,
			Type:      e.Type,
			ActorID:   e.ActorID,
			TargetID:  e.TargetID,
			GroupID:   e.GroupID,
			Timestamp: e.Timestamp,
			Metadata:  e.Metadata,
		})
		if err := tally(&res, err); err != nil {
			return res, fmt.Errorf("record event %s: %w", id, err)
		}
	}

	for _, k := range s.Knowledge {
		id := stableID(k.ID, "knowledge", string(k.KnowledgeType), k.GroupID, k.Text)
		_, err := p.Knowledge().Create(ctx, domain.NewKnowledge{
			ID:            id,
			KnowledgeType: k.KnowledgeType,
			Text:          k.Text,
			Labels:        k.Labels,
			GroupID:       k.GroupID,
			SourceThingID: k.SourceThingID,
		})
		if err := tally(&res, err); err != nil {
			return res, fmt.Errorf("create knowledge %s: %w", id, err)
		}
	}

	return res, nil
}

// Export reads every record from the provider into a snapshot
func Export(ctx context.Context, p provider.DataProvider) (*domain.Snapshot, error) {
	s := domain.NewSnapshot()

	things, err := p.Things().List(ctx, domain.ThingFilter{})
	if err != nil {
		return nil, fmt.Errorf("list things: %w", err)
	}
	s.Things = append(s.Things, things...)

	conns, err := p.Connections().List(ctx, domain.ConnectionFilter{})
	if err != nil {
		return nil, fmt.Errorf("list connections: %w", err)
	}
	s.Connections = append(s.Connections, conns...)

	events, err := p.Events().List(ctx, domain.EventFilter{})
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	s.Events = append(s.Events, events...)

	matches, err := p.Knowledge().Search(ctx, domain.KnowledgeQuery{})
	if err != nil {
		return nil, fmt.Errorf("list knowledge: %w", err)
	}
	for _, m := range matches {
		s.AddKnowledge(m.Knowledge)
	}

	return s, nil
}

// tally counts a create result, treating conflicts as already imported
func tally(res *Result, err error) error {
	switch {
	case err == nil:
		res.Created++
	case errors.Is(err, provider.ErrConflict):
		res.Skipped++
	default:
		return err
	}
	return nil
}

func stableID(id, kind string, parts ...string) string {
	if id != "" {
		return id
	}
	key := kind + ":" + strings.Join(parts, "\x00")
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(key)).String()
}
