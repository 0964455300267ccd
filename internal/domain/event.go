package domain

import "time"

// Event types recorded by the API itself. Clients may record any type.
const (
	EventTypeEntityCreated     = "entity_created"
	EventTypeEntityUpdated     = "entity_updated"
	EventTypeConnectionCreated = "connection_created"
)

// Event is an immutable audit record
type Event struct {
	ID        string         `json:"_id" yaml:"_id"`
	Type      string         `json:"type" yaml:"type"`
	ActorID   string         `json:"actorId" yaml:"actorId"`
	TargetID  string         `json:"targetId,omitempty" yaml:"targetId,omitempty"`
	GroupID   string         `json:"groupId,omitempty" yaml:"groupId,omitempty"`
	Timestamp int64          `json:"timestamp" yaml:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// NewEvent holds the fields accepted when recording an event.
// A zero Timestamp means "now".
type NewEvent struct {
	ID        string         `json:"_id,omitempty"`
	Type      string         `json:"type"`
	ActorID   string         `json:"actorId"`
	TargetID  string         `json:"targetId,omitempty"`
	GroupID   string         `json:"groupId,omitempty"`
	Timestamp int64          `json:"timestamp,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Build turns the request into a record, defaulting the timestamp to now
func (n NewEvent) Build(now time.Time) Event {
	ts := n.Timestamp
	if ts == 0 {
		ts = now.UnixMilli()
	}
	return Event{
		ID:        n.ID,
		Type:      n.Type,
		ActorID:   n.ActorID,
		TargetID:  n.TargetID,
		GroupID:   n.GroupID,
		Timestamp: ts,
		Metadata:  n.Metadata,
	}
}
