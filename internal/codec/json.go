package codec

import (
	"encoding/json"
	"fmt"
	"io"

	"ontology/internal/domain"
)

// JSONCodec handles JSON import/export. The layout matches the API
// representation of each record.
type JSONCodec struct{}

// NewJSONCodec creates a new JSON codec
func NewJSONCodec() *JSONCodec {
	return &JSONCodec{}
}

// Format returns the codec format identifier
func (c *JSONCodec) Format() string {
	return "json"
}

// Parse reads a snapshot from JSON
func (c *JSONCodec) Parse(r io.Reader) (*domain.Snapshot, error) {
	s := domain.NewSnapshot()
	decoder := json.NewDecoder(r)
	if err := decoder.Decode(s); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	normalize(s)
	return s, nil
}

// Export writes a snapshot as indented JSON
func (c *JSONCodec) Export(s *domain.Snapshot, w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(s); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}

	return nil
}

// normalize replaces nil collections so that re-encoding never emits null
func normalize(s *domain.Snapshot) {
	if s.Things == nil {
		s.Things = make([]domain.Thing, 0)
	}
	if s.Connections == nil {
		s.Connections = make([]domain.Connection, 0)
	}
	if s.Events == nil {
		s.Events = make([]domain.Event, 0)
	}
	if s.Knowledge == nil {
		s.Knowledge = make([]domain.Knowledge, 0)
	}
	for i := range s.Things {
		if s.Things[i].Properties == nil {
			s.Things[i].Properties = make(map[string]any)
		}
	}
}
