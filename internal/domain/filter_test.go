package domain

import (
	"testing"
	"time"
)

func TestThingFilter(t *testing.T) {
	thing := NewThing{Type: "course", Name: "Intro to Go", GroupID: "g1"}.Build(time.Now())

	tests := []struct {
		name   string
		filter ThingFilter
		want   bool
	}{
		{"empty matches", ThingFilter{}, true},
		{"type match", ThingFilter{Type: "course"}, true},
		{"type mismatch", ThingFilter{Type: "lesson"}, false},
		{"group mismatch", ThingFilter{GroupID: "g2"}, false},
		{"status match", ThingFilter{Status: "active"}, true},
		{"search is case insensitive", ThingFilter{Search: "intro"}, true},
		{"search miss", ThingFilter{Search: "rust"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.Matches(&thing); got != tt.want {
				t.Errorf("Matches() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConnectionFilter(t *testing.T) {
	conn := Connection{FromThingID: "a", ToThingID: "b", RelationshipType: RelationshipOwns, GroupID: "g1"}

	if !(ConnectionFilter{FromThingID: "a", RelationshipType: RelationshipOwns}).Matches(&conn) {
		t.Error("expected connection to match")
	}
	if (ConnectionFilter{ToThingID: "a"}).Matches(&conn) {
		t.Error("expected toThingId mismatch")
	}
	for _, id := range []string{"a", "b"} {
		if !(ConnectionFilter{ThingID: id}).Matches(&conn) {
			t.Errorf("expected thingId %s to match either end", id)
		}
	}
	if (ConnectionFilter{ThingID: "c"}).Matches(&conn) {
		t.Error("expected thingId mismatch")
	}
}

func TestEventFilterTimeBounds(t *testing.T) {
	ev := Event{Type: EventTypeEntityCreated, Timestamp: 5000}

	tests := []struct {
		name   string
		filter EventFilter
		want   bool
	}{
		{"no bounds", EventFilter{}, true},
		{"since inclusive", EventFilter{Since: 5000}, true},
		{"since after", EventFilter{Since: 5001}, false},
		{"until inclusive", EventFilter{Until: 5000}, true},
		{"until before", EventFilter{Until: 4999}, false},
		{"type mismatch", EventFilter{Type: EventTypeEntityUpdated}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.Matches(&ev); got != tt.want {
				t.Errorf("Matches() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestKnowledgeScore(t *testing.T) {
	k := Knowledge{
		KnowledgeType: KnowledgeTypeChunk,
		Text:          "Goroutines are lightweight threads managed by the Go runtime",
		Labels:        []string{"concurrency"},
	}

	t.Run("phrase match scores one", func(t *testing.T) {
		if s := k.Score("lightweight threads"); s != 1 {
			t.Errorf("expected 1, got %f", s)
		}
	})

	t.Run("partial term overlap", func(t *testing.T) {
		if s := k.Score("runtime pythonic"); s != 0.5 {
			t.Errorf("expected 0.5, got %f", s)
		}
	})

	t.Run("labels are searched", func(t *testing.T) {
		if s := k.Score("Concurrency"); s != 1 {
			t.Errorf("expected 1, got %f", s)
		}
	})

	t.Run("blank query", func(t *testing.T) {
		if s := k.Score("   "); s != 0 {
			t.Errorf("expected 0, got %f", s)
		}
	})
}

func TestKnowledgeQueryThreshold(t *testing.T) {
	k := Knowledge{KnowledgeType: KnowledgeTypeLabel, Text: "channels and select"}

	if _, ok := (KnowledgeQuery{Query: "channels mutex", Threshold: 0.7}).Match(&k); ok {
		t.Error("expected half match to fall below threshold")
	}
	m, ok := (KnowledgeQuery{Query: "channels mutex", Threshold: 0.5}).Match(&k)
	if !ok || m.Score != 0.5 {
		t.Errorf("expected match with score 0.5, got %v %f", ok, m.Score)
	}
	if _, ok := (KnowledgeQuery{Query: "channels", KnowledgeType: "chunk"}).Match(&k); ok {
		t.Error("expected knowledge type mismatch")
	}
}

func TestKnowledgeQueryEmptyMatchesAll(t *testing.T) {
	k := Knowledge{KnowledgeType: KnowledgeTypeChunk, Text: "anything", GroupID: "g1"}

	m, ok := (KnowledgeQuery{}).Match(&k)
	if !ok || m.Score != 1 {
		t.Errorf("expected empty query to match with score 1, got %v %f", ok, m.Score)
	}
	if _, ok := (KnowledgeQuery{GroupID: "g2"}).Match(&k); ok {
		t.Error("expected group filter to apply to empty query")
	}
}
