package registry

import "sync"

// RecordStore is the keyed persistence behind the registry. Get returns
// (nil, nil) for an unknown address; the registry constructs zero-value
// defaults explicitly rather than relying on storage semantics.
type RecordStore interface {
	Get(address string) (*Record, error)
	Put(rec *Record) error
	All() ([]Record, error)
}

// MemStore is an in-memory RecordStore for tests and embedded use.
type MemStore struct {
	mu      sync.RWMutex
	records map[string]Record
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{records: make(map[string]Record)}
}

// Get returns a copy of the stored record, or (nil, nil) if none exists.
func (s *MemStore) Get(address string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[address]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

// Put inserts or replaces the record for rec.Address.
func (s *MemStore) Put(rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.Address] = *rec
	return nil
}

// All returns copies of every stored record.
func (s *MemStore) All() ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Record, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec)
	}
	return out, nil
}
