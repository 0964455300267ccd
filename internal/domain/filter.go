package domain

import "strings"

// ThingFilter selects things. Empty fields match everything.
type ThingFilter struct {
	Type    string
	GroupID string
	Status  string
	Search  string
}

// Matches reports whether the thing passes the filter
func (f ThingFilter) Matches(t *Thing) bool {
	if f.Type != "" && t.Type != f.Type {
		return false
	}
	if f.GroupID != "" && t.GroupID != f.GroupID {
		return false
	}
	if f.Status != "" && string(t.Status) != f.Status {
		return false
	}
	if f.Search != "" && !containsFold(t.Name, f.Search) {
		return false
	}
	return true
}

// ConnectionFilter selects connections
type ConnectionFilter struct {
	FromThingID      string
	ToThingID        string
	ThingID          string // either end
	RelationshipType string
	GroupID          string
}

// Matches reports whether the connection passes the filter
func (f ConnectionFilter) Matches(c *Connection) bool {
	if f.FromThingID != "" && c.FromThingID != f.FromThingID {
		return false
	}
	if f.ToThingID != "" && c.ToThingID != f.ToThingID {
		return false
	}
	if f.ThingID != "" && !c.Involves(f.ThingID) {
		return false
	}
	if f.RelationshipType != "" && c.RelationshipType != f.RelationshipType {
		return false
	}
	if f.GroupID != "" && c.GroupID != f.GroupID {
		return false
	}
	return true
}

// EventFilter selects events. Since and Until are inclusive Unix
// millisecond bounds; zero disables the bound.
type EventFilter struct {
	Type     string
	ActorID  string
	TargetID string
	GroupID  string
	Since    int64
	Until    int64
}

// Matches reports whether the event passes the filter
func (f EventFilter) Matches(e *Event) bool {
	if f.Type != "" && e.Type != f.Type {
		return false
	}
	if f.ActorID != "" && e.ActorID != f.ActorID {
		return false
	}
	if f.TargetID != "" && e.TargetID != f.TargetID {
		return false
	}
	if f.GroupID != "" && e.GroupID != f.GroupID {
		return false
	}
	if f.Since != 0 && e.Timestamp < f.Since {
		return false
	}
	if f.Until != 0 && e.Timestamp > f.Until {
		return false
	}
	return true
}

// KnowledgeQuery selects knowledge for a text search.
// Matches scoring below Threshold are dropped. An empty Query matches
// every item with score 1, which export uses to dump the store.
type KnowledgeQuery struct {
	Query         string
	KnowledgeType string
	GroupID       string
	Threshold     float64
}

// Match scores the item and reports whether it passes the query
func (q KnowledgeQuery) Match(k *Knowledge) (KnowledgeMatch, bool) {
	if q.KnowledgeType != "" && string(k.KnowledgeType) != q.KnowledgeType {
		return KnowledgeMatch{}, false
	}
	if q.GroupID != "" && k.GroupID != q.GroupID {
		return KnowledgeMatch{}, false
	}
	if q.Query == "" {
		return KnowledgeMatch{Knowledge: *k, Score: 1}, true
	}
	score := k.Score(q.Query)
	if score == 0 || score < q.Threshold {
		return KnowledgeMatch{}, false
	}
	return KnowledgeMatch{Knowledge: *k, Score: score}, true
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
