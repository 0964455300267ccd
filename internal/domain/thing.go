package domain

import "time"

// ThingTypeCreator marks a thing that represents a person.
const ThingTypeCreator = "creator"

// ThingStatus represents the lifecycle status of a thing
type ThingStatus string

const (
	ThingStatusDraft     ThingStatus = "draft"
	ThingStatusActive    ThingStatus = "active"
	ThingStatusPublished ThingStatus = "published"
	ThingStatusArchived  ThingStatus = "archived"
)

// Thing represents an entity in the ontology
type Thing struct {
	ID         string         `json:"_id" yaml:"_id"`
	Type       string         `json:"type" yaml:"type"`
	Name       string         `json:"name" yaml:"name"`
	GroupID    string         `json:"groupId" yaml:"groupId"`
	Status     ThingStatus    `json:"status" yaml:"status"`
	Properties map[string]any `json:"properties" yaml:"properties,omitempty"`
	CreatedAt  int64          `json:"createdAt" yaml:"createdAt,omitempty"`
	UpdatedAt  int64          `json:"updatedAt" yaml:"updatedAt,omitempty"`
}

// NewThing holds the fields accepted when creating a thing
type NewThing struct {
	ID         string         `json:"_id,omitempty"`
	Type       string         `json:"type"`
	Name       string         `json:"name"`
	GroupID    string         `json:"groupId"`
	Status     ThingStatus    `json:"status,omitempty"`
	Properties map[string]any `json:"properties,omitempty"`
}

// Build turns the creation request into a record stamped at now.
// The ID is left untouched; providers assign one when it is empty.
func (n NewThing) Build(now time.Time) Thing {
	status := n.Status
	if status == "" {
		status = ThingStatusActive
	}
	props := n.Properties
	if props == nil {
		props = make(map[string]any)
	}
	ms := now.UnixMilli()
	return Thing{
		ID:         n.ID,
		Type:       n.Type,
		Name:       n.Name,
		GroupID:    n.GroupID,
		Status:     status,
		Properties: props,
		CreatedAt:  ms,
		UpdatedAt:  ms,
	}
}

// ThingPatch is a merge-update. Nil fields are left unchanged and
// properties are merged key by key.
type ThingPatch struct {
	Name       *string        `json:"name,omitempty"`
	Status     *ThingStatus   `json:"status,omitempty"`
	Properties map[string]any `json:"properties,omitempty"`
}

// IsEmpty reports whether the patch changes nothing
func (p ThingPatch) IsEmpty() bool {
	return p.Name == nil && p.Status == nil && len(p.Properties) == 0
}

// Apply merges the patch into the thing and bumps UpdatedAt
func (t *Thing) Apply(p ThingPatch, now time.Time) {
	if p.Name != nil {
		t.Name = *p.Name
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	for k, v := range p.Properties {
		t.SetProperty(k, v)
	}
	t.UpdatedAt = now.UnixMilli()
}

// SetProperty sets a property value
func (t *Thing) SetProperty(key string, value any) {
	if t.Properties == nil {
		t.Properties = make(map[string]any)
	}
	t.Properties[key] = value
}

// GetProperty gets a property value
func (t *Thing) GetProperty(key string) (any, bool) {
	if t.Properties == nil {
		return nil, false
	}
	val, ok := t.Properties[key]
	return val, ok
}

// GetPropertyString gets a property as a string
func (t *Thing) GetPropertyString(key string) string {
	val, ok := t.GetProperty(key)
	if !ok {
		return ""
	}
	if s, ok := val.(string); ok {
		return s
	}
	return ""
}

// IsPerson reports whether the thing represents a person
func (t *Thing) IsPerson() bool {
	return t.Type == ThingTypeCreator
}
