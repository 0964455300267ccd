package domain

// Snapshot is a bulk set of records for import and export
type Snapshot struct {
	Things      []Thing      `json:"things" yaml:"things"`
	Connections []Connection `json:"connections" yaml:"connections"`
	Events      []Event      `json:"events" yaml:"events"`
	Knowledge   []Knowledge  `json:"knowledge" yaml:"knowledge"`
}

// NewSnapshot creates an empty snapshot
func NewSnapshot() *Snapshot {
	return &Snapshot{
		Things:      make([]Thing, 0),
		Connections: make([]Connection, 0),
		Events:      make([]Event, 0),
		Knowledge:   make([]Knowledge, 0),
	}
}

// AddThing adds a thing to the snapshot
func (s *Snapshot) AddThing(t Thing) {
	s.Things = append(s.Things, t)
}

// AddConnection adds a connection to the snapshot
func (s *Snapshot) AddConnection(c Connection) {
	s.Connections = append(s.Connections, c)
}

// AddEvent adds an event to the snapshot
func (s *Snapshot) AddEvent(e Event) {
	s.Events = append(s.Events, e)
}

// AddKnowledge adds a knowledge item to the snapshot
func (s *Snapshot) AddKnowledge(k Knowledge) {
	s.Knowledge = append(s.Knowledge, k)
}

// Len returns the total number of records
func (s *Snapshot) Len() int {
	return len(s.Things) + len(s.Connections) + len(s.Events) + len(s.Knowledge)
}
