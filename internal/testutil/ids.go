package testutil

import "sync"

// SchemaIDs hands out schema ids for hand-built test sequences.
//
// The first call to Next returns 1. Reset lets a fixture be rebuilt with
// identical ids.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type SchemaIDs struct {
	mu   sync.Mutex
	last int64
}

// NewSchemaIDs creates a counter starting at 0.
func NewSchemaIDs() *SchemaIDs {
	return &SchemaIDs{}
}

// Next increments and returns the next id.
func (s *SchemaIDs) Next() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last++
	return s.last
}

// Current returns the last id handed out without incrementing.
func (s *SchemaIDs) Current() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Reset sets the counter back to 0.
func (s *SchemaIDs) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = 0
}

// FixedIDGenerator returns the same compilation id every time, so stored
// compilations are byte-identical across runs.
//
// Thread-safety: FixedIDGenerator is stateless and safe for concurrent use.
type FixedIDGenerator struct {
	id string
}

// NewFixedIDGenerator creates a generator. An empty id falls back to a
// fixed all-zero UUID.
func NewFixedIDGenerator(id string) *FixedIDGenerator {
	if id == "" {
		id = "00000000-0000-7000-8000-000000000000"
	}
	return &FixedIDGenerator{id: id}
}

// Generate returns the fixed id.
//
// Implements store.IDGenerator.
func (g *FixedIDGenerator) Generate() string {
	return g.id
}
