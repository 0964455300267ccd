package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"ontology/internal/domain"
)

// ============================================================================
// Null Type Conversion Helpers
// ============================================================================

// nullToString safely converts sql.NullString to string
func nullToString(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// stringToNull safely converts string to sql.NullString
func stringToNull(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// ============================================================================
// JSON Marshaling Helpers
// ============================================================================

// unmarshalJSONField safely unmarshals JSON from nullable string into target
func unmarshalJSONField(ns sql.NullString, target any) error {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	return json.Unmarshal([]byte(ns.String), target)
}

// marshalToNull marshals a value to a nullable JSON string.
// Nil values and empty maps or slices are stored as NULL.
func marshalToNull(v any) (sql.NullString, error) {
	switch x := v.(type) {
	case nil:
		return sql.NullString{}, nil
	case map[string]any:
		if len(x) == 0 {
			return sql.NullString{}, nil
		}
	case []string:
		if len(x) == 0 {
			return sql.NullString{}, nil
		}
	}

	data, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

// ============================================================================
// Schema Evolution Guide
// ============================================================================
//
// To add a column to a table:
// 1. Add the field to the row struct below
// 2. APPEND it to the columns constant and to scanArgs()
// 3. Map it in toDomain() and in the insert args
// 4. Add a migration step in sqlite.go using addColumnIfNotExists()
//
// Column order must match between the columns constant, scanArgs() and
// every SELECT using the constant.

// ============================================================================
// Thing Row Scanner
// ============================================================================

const thingColumns = `id, type, name, group_id, status, properties, created_at, updated_at`

type thingRow struct {
	ID             string
	Type           string
	Name           string
	GroupID        sql.NullString
	Status         string
	PropertiesJSON sql.NullString
	CreatedAt      int64
	UpdatedAt      int64
}

func (r *thingRow) scanArgs() []any {
	return []any{
		&r.ID,
		&r.Type,
		&r.Name,
		&r.GroupID,
		&r.Status,
		&r.PropertiesJSON,
		&r.CreatedAt,
		&r.UpdatedAt,
	}
}

func (r *thingRow) toDomain() (*domain.Thing, error) {
	t := &domain.Thing{
		ID:         r.ID,
		Type:       r.Type,
		Name:       r.Name,
		GroupID:    nullToString(r.GroupID),
		Status:     domain.ThingStatus(r.Status),
		Properties: make(map[string]any),
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
	if err := unmarshalJSONField(r.PropertiesJSON, &t.Properties); err != nil {
		return nil, fmt.Errorf("failed to unmarshal properties for thing %s: %w", r.ID, err)
	}
	return t, nil
}

func thingArgs(t *domain.Thing) ([]any, error) {
	props, err := marshalToNull(t.Properties)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal properties: %w", err)
	}
	return []any{
		t.ID,
		t.Type,
		t.Name,
		stringToNull(t.GroupID),
		string(t.Status),
		props,
		t.CreatedAt,
		t.UpdatedAt,
	}, nil
}

// ============================================================================
// Connection Row Scanner
// ============================================================================

const connectionColumns = `id, from_thing_id, to_thing_id, relationship_type, group_id, metadata, created_at`

type connectionRow struct {
	ID               string
	FromThingID      string
	ToThingID        string
	RelationshipType string
	GroupID          sql.NullString
	MetadataJSON     sql.NullString
	CreatedAt        int64
}

func (r *connectionRow) scanArgs() []any {
	return []any{
		&r.ID,
		&r.FromThingID,
		&r.ToThingID,
		&r.RelationshipType,
		&r.GroupID,
		&r.MetadataJSON,
		&r.CreatedAt,
	}
}

func (r *connectionRow) toDomain() (*domain.Connection, error) {
	c := &domain.Connection{
		ID:               r.ID,
		FromThingID:      r.FromThingID,
		ToThingID:        r.ToThingID,
		RelationshipType: r.RelationshipType,
		GroupID:          nullToString(r.GroupID),
		CreatedAt:        r.CreatedAt,
	}
	if err := unmarshalJSONField(r.MetadataJSON, &c.Metadata); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metadata for connection %s: %w", r.ID, err)
	}
	return c, nil
}

// ============================================================================
// Event Row Scanner
// ============================================================================

const eventColumns = `id, type, actor_id, target_id, group_id, timestamp, metadata`

type eventRow struct {
	ID           string
	Type         string
	ActorID      string
	TargetID     sql.NullString
	GroupID      sql.NullString
	Timestamp    int64
	MetadataJSON sql.NullString
}

func (r *eventRow) scanArgs() []any {
	return []any{
		&r.ID,
		&r.Type,
		&r.ActorID,
		&r.TargetID,
		&r.GroupID,
		&r.Timestamp,
		&r.MetadataJSON,
	}
}

func (r *eventRow) toDomain() (*domain.Event, error) {
	e := &domain.Event{
		ID:        r.ID,
		Type:      r.Type,
		ActorID:   r.ActorID,
		TargetID:  nullToString(r.TargetID),
		GroupID:   nullToString(r.GroupID),
		Timestamp: r.Timestamp,
	}
	if err := unmarshalJSONField(r.MetadataJSON, &e.Metadata); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metadata for event %s: %w", r.ID, err)
	}
	return e, nil
}

// ============================================================================
// Knowledge Row Scanner
// ============================================================================

const knowledgeColumns = `id, knowledge_type, text, labels, group_id, source_thing_id, created_at`

type knowledgeRow struct {
	ID            string
	KnowledgeType string
	Text          string
	LabelsJSON    sql.NullString
	GroupID       sql.NullString
	SourceThingID sql.NullString
	CreatedAt     int64
}

func (r *knowledgeRow) scanArgs() []any {
	return []any{
		&r.ID,
		&r.KnowledgeType,
		&r.Text,
		&r.LabelsJSON,
		&r.GroupID,
		&r.SourceThingID,
		&r.CreatedAt,
	}
}

func (r *knowledgeRow) toDomain() (*domain.Knowledge, error) {
	k := &domain.Knowledge{
		ID:            r.ID,
		KnowledgeType: domain.KnowledgeType(r.KnowledgeType),
		Text:          r.Text,
		GroupID:       nullToString(r.GroupID),
		SourceThingID: nullToString(r.SourceThingID),
		CreatedAt:     r.CreatedAt,
	}
	if err := unmarshalJSONField(r.LabelsJSON, &k.Labels); err != nil {
		return nil, fmt.Errorf("failed to unmarshal labels for knowledge %s: %w", r.ID, err)
	}
	return k, nil
}

// ============================================================================
// Query Building
// ============================================================================

// where accumulates AND-ed conditions with positional args
type where struct {
	conds []string
	args  []any
}

func (w *where) eq(column, value string) {
	if value == "" {
		return
	}
	w.conds = append(w.conds, column+" = ?")
	w.args = append(w.args, value)
}

func (w *where) add(cond string, arg any) {
	w.conds = append(w.conds, cond)
	w.args = append(w.args, arg)
}

func (w *where) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}
