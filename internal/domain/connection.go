package domain

import "time"

// Common relationship types. The set is open; providers store any string.
const (
	RelationshipOwns       = "owns"
	RelationshipMemberOf   = "member_of"
	RelationshipEnrolledIn = "enrolled_in"
	RelationshipFollowing  = "following"
	RelationshipHolds      = "holds"
)

// Connection is a directed relationship between two things
type Connection struct {
	ID               string         `json:"_id" yaml:"_id"`
	FromThingID      string         `json:"fromThingId" yaml:"fromThingId"`
	ToThingID        string         `json:"toThingId" yaml:"toThingId"`
	RelationshipType string         `json:"relationshipType" yaml:"relationshipType"`
	GroupID          string         `json:"groupId,omitempty" yaml:"groupId,omitempty"`
	Metadata         map[string]any `json:"metadata,omitempty" yaml:"metadata,omitempty"`
	CreatedAt        int64          `json:"createdAt" yaml:"createdAt,omitempty"`
}

// NewConnection holds the fields accepted when creating a connection
type NewConnection struct {
	ID               string         `json:"_id,omitempty"`
	FromThingID      string         `json:"fromThingId"`
	ToThingID        string         `json:"toThingId"`
	RelationshipType string         `json:"relationshipType"`
	GroupID          string         `json:"groupId,omitempty"`
	Metadata         map[string]any `json:"metadata,omitempty"`
}

// Build turns the creation request into a record stamped at now
func (n NewConnection) Build(now time.Time) Connection {
	return Connection{
		ID:               n.ID,
		FromThingID:      n.FromThingID,
		ToThingID:        n.ToThingID,
		RelationshipType: n.RelationshipType,
		GroupID:          n.GroupID,
		Metadata:         n.Metadata,
		CreatedAt:        now.UnixMilli(),
	}
}

// Involves checks if this connection touches the given thing
func (c *Connection) Involves(thingID string) bool {
	return c.FromThingID == thingID || c.ToThingID == thingID
}
