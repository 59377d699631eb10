package internal

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/lychee-technology/fabrica"
)

// MemoryStore is an in-memory fabrica.Store. It backs the demo binary and
// the engine tests; nothing about the engine assumes it.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string][]map[string]any
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string][]map[string]any)}
}

func (s *MemoryStore) Create(_ context.Context, typeName, id string, data map[string]any) (map[string]any, error) {
	if id == "" {
		id = uuid.NewString()
	}

	record := copyMapDeep(data)
	record[fabrica.IdentityField] = id

	s.mu.Lock()
	s.records[typeName] = append(s.records[typeName], record)
	s.mu.Unlock()

	return copyMapDeep(record), nil
}

func (s *MemoryStore) List(_ context.Context, typeName string) ([]map[string]any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]map[string]any, 0, len(s.records[typeName]))
	for _, record := range s.records[typeName] {
		records = append(records, copyMapDeep(record))
	}
	return records, nil
}

func (s *MemoryStore) Search(_ context.Context, typeName, query string) ([]map[string]any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lowered := strings.ToLower(query)
	matches := make([]map[string]any, 0)
	for _, record := range s.records[typeName] {
		if recordMatches(record, lowered) {
			matches = append(matches, copyMapDeep(record))
		}
	}
	return matches, nil
}

// Count returns the number of stored records of a type.
func (s *MemoryStore) Count(typeName string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records[typeName])
}

func recordMatches(record map[string]any, lowered string) bool {
	if lowered == "" {
		return true
	}
	for _, value := range record {
		if s, ok := value.(string); ok && strings.Contains(strings.ToLower(s), lowered) {
			return true
		}
	}
	return false
}
