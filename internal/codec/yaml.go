package codec

import (
	"fmt"
	"io"

	"ontology/internal/domain"

	"gopkg.in/yaml.v3"
)

// YAMLCodec handles the hand-editable seed layout
type YAMLCodec struct{}

// NewYAMLCodec creates a new YAML codec
func NewYAMLCodec() *YAMLCodec {
	return &YAMLCodec{}
}

// Format returns the codec format identifier
func (c *YAMLCodec) Format() string {
	return "yaml"
}

// yamlSnapshot represents the YAML structure for a snapshot
type yamlSnapshot struct {
	Things      []yamlThing      `yaml:"things,omitempty"`
	Connections []yamlConnection `yaml:"connections,omitempty"`
	Events      []yamlEvent      `yaml:"events,omitempty"`
	Knowledge   []yamlKnowledge  `yaml:"knowledge,omitempty"`
}

type yamlThing struct {
	ID         string         `yaml:"id,omitempty"`
	Type       string         `yaml:"type"`
	Name       string         `yaml:"name"`
	GroupID    string         `yaml:"group_id"`
	Status     string         `yaml:"status,omitempty"`
	Properties map[string]any `yaml:"properties,omitempty"`
	CreatedAt  int64          `yaml:"created_at,omitempty"`
	UpdatedAt  int64          `yaml:"updated_at,omitempty"`
}

type yamlConnection struct {
	ID       string         `yaml:"id,omitempty"`
	From     string         `yaml:"from"`
	To       string         `yaml:"to"`
	Type     string         `yaml:"type"`
	GroupID  string         `yaml:"group_id,omitempty"`
	Metadata map[string]any `yaml:"metadata,omitempty"`
}

type yamlEvent struct {
	ID        string         `yaml:"id,omitempty"`
	Type      string         `yaml:"type"`
	Actor     string         `yaml:"actor"`
	Target    string         `yaml:"target,omitempty"`
	GroupID   string         `yaml:"group_id,omitempty"`
	Timestamp int64          `yaml:"timestamp,omitempty"`
	Metadata  map[string]any `yaml:"metadata,omitempty"`
}

type yamlKnowledge struct {
	ID      string   `yaml:"id,omitempty"`
	Type    string   `yaml:"type,omitempty"`
	Text    string   `yaml:"text"`
	Labels  []string `yaml:"labels,omitempty"`
	GroupID string   `yaml:"group_id,omitempty"`
	Source  string   `yaml:"source,omitempty"`
}

// Parse reads a snapshot from YAML. Missing statuses and knowledge types
// are left empty so the provider applies its defaults on import.
func (c *YAMLCodec) Parse(r io.Reader) (*domain.Snapshot, error) {
	var ys yamlSnapshot
	decoder := yaml.NewDecoder(r)
	if err := decoder.Decode(&ys); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	s := domain.NewSnapshot()

	for _, yt := range ys.Things {
		t := domain.Thing{
			ID:         yt.ID,
			Type:       yt.Type,
			Name:       yt.Name,
			GroupID:    yt.GroupID,
			Status:     domain.ThingStatus(yt.Status),
			Properties: yt.Properties,
			CreatedAt:  yt.CreatedAt,
			UpdatedAt:  yt.UpdatedAt,
		}
		if t.Properties == nil {
			t.Properties = make(map[string]any)
		}
		s.AddThing(t)
	}

	for _, yc := range ys.Connections {
		s.AddConnection(domain.Connection{
			ID:               yc.ID,
			FromThingID:      yc.From,
			ToThingID:        yc.To,
			RelationshipType: yc.Type,
			GroupID:          yc.GroupID,
			Metadata:         yc.Metadata,
		})
	}

	for _, ye := range ys.Events {
		s.AddEvent(domain.Event{
			ID:        ye.ID,
			Type:      ye.Type,
			ActorID:   ye.Actor,
			TargetID:  ye.Target,
			GroupID:   ye.GroupID,
			Timestamp: ye.Timestamp,
			Metadata:  ye.Metadata,
		})
	}

	for _, yk := range ys.Knowledge {
		s.AddKnowledge(domain.Knowledge{
			ID:            yk.ID,
			KnowledgeType: domain.KnowledgeType(yk.Type),
			Text:          yk.Text,
			Labels:        yk.Labels,
			GroupID:       yk.GroupID,
			SourceThingID: yk.Source,
		})
	}

	return s, nil
}

// Export writes a snapshot as YAML
func (c *YAMLCodec) Export(s *domain.Snapshot, w io.Writer) error {
	ys := yamlSnapshot{
		Things:      make([]yamlThing, 0, len(s.Things)),
		Connections: make([]yamlConnection, 0, len(s.Connections)),
		Events:      make([]yamlEvent, 0, len(s.Events)),
		Knowledge:   make([]yamlKnowledge, 0, len(s.Knowledge)),
	}

	for _, t := range s.Things {
		ys.Things = append(ys.Things, yamlThing{
			ID:         t.ID,
			Type:       t.Type,
			Name:       t.Name,
			GroupID:    t.GroupID,
			Status:     string(t.Status),
			Properties: t.Properties,
			CreatedAt:  t.CreatedAt,
			UpdatedAt:  t.UpdatedAt,
		})
	}

	for _, c := range s.Connections {
		ys.Connections = append(ys.Connections, yamlConnection{
			ID:       c.ID,
			From:     c.FromThingID,
			To:       c.ToThingID,
			Type:     c.RelationshipType,
			GroupID:  c.GroupID,
			Metadata: c.Metadata,
		})
	}

	for _, e := range s.Events {
		ys.Events = append(ys.Events, yamlEvent{
			ID:        e.ID,
			Type:      e.Type,
			Actor:     e.ActorID,
			Target:    e.TargetID,
			GroupID:   e.GroupID,
			Timestamp: e.Timestamp,
			Metadata:  e.Metadata,
		})
	}

	for _, k := range s.Knowledge {
		ys.Knowledge = append(ys.Knowledge, yamlKnowledge{
			ID:      k.ID,
			Type:    string(k.KnowledgeType),
			Text:    k.Text,
			Labels:  k.Labels,
			GroupID: k.GroupID,
			Source:  k.SourceThingID,
		})
	}

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	defer encoder.Close()

	if err := encoder.Encode(&ys); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}

	return nil
}
