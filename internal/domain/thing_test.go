package domain

import (
	"testing"
	"time"
)

func TestNewThingBuild(t *testing.T) {
	now := time.UnixMilli(1700000000000)

	t.Run("applies defaults", func(t *testing.T) {
		thing := NewThing{Type: "course", Name: "Go 101", GroupID: "g1"}.Build(now)

		if thing.Status != ThingStatusActive {
			t.Errorf("expected status %s, got %s", ThingStatusActive, thing.Status)
		}
		if thing.Properties == nil {
			t.Error("expected Properties to be initialized")
		}
		if thing.CreatedAt != now.UnixMilli() || thing.UpdatedAt != now.UnixMilli() {
			t.Errorf("expected timestamps %d, got %d/%d", now.UnixMilli(), thing.CreatedAt, thing.UpdatedAt)
		}
		if thing.ID != "" {
			t.Errorf("expected empty ID, got %s", thing.ID)
		}
	})

	t.Run("keeps explicit status", func(t *testing.T) {
		thing := NewThing{Type: "course", Name: "x", Status: ThingStatusDraft}.Build(now)
		if thing.Status != ThingStatusDraft {
			t.Errorf("expected status %s, got %s", ThingStatusDraft, thing.Status)
		}
	})
}

func TestThingApply(t *testing.T) {
	created := time.UnixMilli(1000)
	thing := NewThing{
		Type:       "course",
		Name:       "old",
		Properties: map[string]any{"level": "beginner", "lang": "go"},
	}.Build(created)

	t.Run("empty patch", func(t *testing.T) {
		if !(ThingPatch{}).IsEmpty() {
			t.Error("expected zero patch to be empty")
		}
	})

	t.Run("merges fields and properties", func(t *testing.T) {
		name := "new"
		status := ThingStatusArchived
		patch := ThingPatch{
			Name:       &name,
			Status:     &status,
			Properties: map[string]any{"level": "advanced"},
		}
		if patch.IsEmpty() {
			t.Fatal("expected patch to be non-empty")
		}

		thing.Apply(patch, time.UnixMilli(2000))

		if thing.Name != "new" {
			t.Errorf("expected name 'new', got %s", thing.Name)
		}
		if thing.Status != ThingStatusArchived {
			t.Errorf("expected status %s, got %s", ThingStatusArchived, thing.Status)
		}
		if thing.GetPropertyString("level") != "advanced" {
			t.Errorf("expected level 'advanced', got %s", thing.GetPropertyString("level"))
		}
		if thing.GetPropertyString("lang") != "go" {
			t.Error("expected untouched property to survive merge")
		}
		if thing.CreatedAt != 1000 || thing.UpdatedAt != 2000 {
			t.Errorf("unexpected timestamps %d/%d", thing.CreatedAt, thing.UpdatedAt)
		}
	})
}

func TestThingProperties(t *testing.T) {
	var thing Thing

	if _, ok := thing.GetProperty("missing"); ok {
		t.Error("expected missing property on nil map")
	}

	thing.SetProperty("count", 3)
	if v, ok := thing.GetProperty("count"); !ok || v != 3 {
		t.Errorf("expected count 3, got %v", v)
	}
	if s := thing.GetPropertyString("count"); s != "" {
		t.Errorf("expected empty string for non-string property, got %q", s)
	}
}

func TestPersonFromThing(t *testing.T) {
	t.Run("creator becomes person", func(t *testing.T) {
		thing := NewThing{
			ID:         "p1",
			Type:       ThingTypeCreator,
			Name:       "Ada",
			GroupID:    "g1",
			Properties: map[string]any{"email": "ada@example.com", "role": "org_owner"},
		}.Build(time.Now())

		person, ok := PersonFromThing(&thing)
		if !ok {
			t.Fatal("expected creator to project to person")
		}
		if person.Email != "ada@example.com" || person.Role != "org_owner" {
			t.Errorf("unexpected person %+v", person)
		}
	})

	t.Run("other types are rejected", func(t *testing.T) {
		thing := NewThing{Type: "course"}.Build(time.Now())
		if _, ok := PersonFromThing(&thing); ok {
			t.Error("expected non-creator to be rejected")
		}
		if _, ok := PersonFromThing(nil); ok {
			t.Error("expected nil to be rejected")
		}
	})
}
