package domain

// Person is the public view of a thing of type "creator"
type Person struct {
	ID         string         `json:"_id"`
	Name       string         `json:"name"`
	Email      string         `json:"email,omitempty"`
	Role       string         `json:"role,omitempty"`
	GroupID    string         `json:"groupId"`
	Status     ThingStatus    `json:"status"`
	Properties map[string]any `json:"properties,omitempty"`
	CreatedAt  int64          `json:"createdAt"`
}

// PersonFromThing projects a creator thing into a Person.
// The second return is false when the thing is not a person.
func PersonFromThing(t *Thing) (*Person, bool) {
	if t == nil || !t.IsPerson() {
		return nil, false
	}
	return &Person{
		ID:         t.ID,
		Name:       t.Name,
		Email:      t.GetPropertyString("email"),
		Role:       t.GetPropertyString("role"),
		GroupID:    t.GroupID,
		Status:     t.Status,
		Properties: t.Properties,
		CreatedAt:  t.CreatedAt,
	}, true
}
