package codec

import (
	"bytes"
	"strings"
	"testing"

	"ontology/internal/domain"
)

const seedYAML = `
things:
  - id: person-1
    type: creator
    name: Ada
    group_id: g1
    properties:
      email: ada@example.com
  - type: course
    name: Go Basics
    group_id: g1
    status: published
connections:
  - from: person-1
    to: course-1
    type: owns
    group_id: g1
events:
  - type: entity_created
    actor: person-1
    target: course-1
    timestamp: 1700000000000
knowledge:
  - text: goroutines are cheap
    labels: [concurrency]
    source: course-1
`

func TestYAMLParse(t *testing.T) {
	s, err := NewYAMLCodec().Parse(strings.NewReader(seedYAML))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if len(s.Things) != 2 || len(s.Connections) != 1 || len(s.Events) != 1 || len(s.Knowledge) != 1 {
		t.Fatalf("unexpected counts: %d things, %d connections, %d events, %d knowledge",
			len(s.Things), len(s.Connections), len(s.Events), len(s.Knowledge))
	}

	ada := s.Things[0]
	if ada.ID != "person-1" || ada.GroupID != "g1" || !ada.IsPerson() {
		t.Errorf("unexpected thing: %+v", ada)
	}
	if ada.GetPropertyString("email") != "ada@example.com" {
		t.Errorf("email property = %q", ada.GetPropertyString("email"))
	}
	if s.Things[1].Properties == nil {
		t.Error("missing properties should become an empty map")
	}
	if s.Things[1].Status != domain.ThingStatusPublished {
		t.Errorf("status = %q, want published", s.Things[1].Status)
	}

	c := s.Connections[0]
	if c.FromThingID != "person-1" || c.ToThingID != "course-1" || c.RelationshipType != domain.RelationshipOwns {
		t.Errorf("unexpected connection: %+v", c)
	}
	if s.Events[0].Timestamp != 1700000000000 {
		t.Errorf("event timestamp = %d", s.Events[0].Timestamp)
	}
	if s.Knowledge[0].SourceThingID != "course-1" {
		t.Errorf("knowledge source = %q", s.Knowledge[0].SourceThingID)
	}
}

func TestYAMLParseEmpty(t *testing.T) {
	s, err := NewYAMLCodec().Parse(strings.NewReader(""))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if s.Len() != 0 {
		t.Errorf("Len() = %d, want 0", s.Len())
	}
}

func TestYAMLParseInvalid(t *testing.T) {
	if _, err := NewYAMLCodec().Parse(strings.NewReader("things: [unterminated")); err == nil {
		t.Error("expected parse error")
	}
}

func TestYAMLExportReparse(t *testing.T) {
	in, err := NewYAMLCodec().Parse(strings.NewReader(seedYAML))
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := NewYAMLCodec().Export(in, &buf); err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if !strings.Contains(buf.String(), "group_id: g1") {
		t.Errorf("expected snake_case keys in export:\n%s", buf.String())
	}

	out, err := NewYAMLCodec().Parse(&buf)
	if err != nil {
		t.Fatalf("re-Parse() error = %v", err)
	}
	if out.Len() != in.Len() {
		t.Errorf("Len() = %d, want %d", out.Len(), in.Len())
	}
	if out.Connections[0].ToThingID != "course-1" {
		t.Errorf("connection lost its target: %+v", out.Connections[0])
	}
}

func TestJSONParseUsesAPIFieldNames(t *testing.T) {
	body := `{"things":[{"_id":"t1","type":"course","name":"Go","groupId":"g1","status":"active"}]}`

	s, err := NewJSONCodec().Parse(strings.NewReader(body))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(s.Things) != 1 || s.Things[0].ID != "t1" || s.Things[0].GroupID != "g1" {
		t.Fatalf("unexpected things: %+v", s.Things)
	}
	if s.Things[0].Properties == nil {
		t.Error("properties should be non-nil")
	}
	if s.Connections == nil || s.Events == nil || s.Knowledge == nil {
		t.Error("absent collections should be empty, not nil")
	}

	var buf bytes.Buffer
	if err := NewJSONCodec().Export(s, &buf); err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if !strings.Contains(buf.String(), `"connections": []`) {
		t.Errorf("expected empty array in export:\n%s", buf.String())
	}
}

func TestForFormat(t *testing.T) {
	tests := []struct {
		format  string
		want    string
		wantErr bool
	}{
		{"yaml", "yaml", false},
		{"YML", "yaml", false},
		{"json", "json", false},
		{"ansible", "", true},
	}

	for _, tt := range tests {
		c, err := ForFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ForFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
			continue
		}
		if err == nil && c.Format() != tt.want {
			t.Errorf("ForFormat(%q).Format() = %q, want %q", tt.format, c.Format(), tt.want)
		}
	}

	if ForPath("seed.json").Format() != "json" {
		t.Error("ForPath(.json) should pick JSON")
	}
	if ForPath("seed.yaml").Format() != "yaml" {
		t.Error("ForPath(.yaml) should pick YAML")
	}
}
