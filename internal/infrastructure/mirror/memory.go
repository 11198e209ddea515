package mirror

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore keeps records in process memory. Contents are lost on restart.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]map[string]Record
}

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[string]map[string]Record)}
}

// Put stores or replaces a record
func (s *MemoryStore) Put(ctx context.Context, collection string, record Record) error {
	return s.PutAll(ctx, collection, []Record{record})
}

// PutAll stores or replaces every record
func (s *MemoryStore) PutAll(ctx context.Context, collection string, records []Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validate(collection, records...); err != nil {
		return err
	}

	stamped := stamp(records, time.Now().UTC())

	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.collections[collection]
	if !ok {
		c = make(map[string]Record)
		s.collections[collection] = c
	}
	for _, r := range stamped {
		r.Data = append([]byte(nil), r.Data...)
		c[r.Key] = r
	}
	return nil
}

// GetAll returns a copy of every record in the collection
func (s *MemoryStore) GetAll(ctx context.Context, collection string) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	c := s.collections[collection]
	out := make([]Record, 0, len(c))
	for _, r := range c {
		r.Data = append([]byte(nil), r.Data...)
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

// ReplaceAll builds the new collection aside and swaps it in under the lock
func (s *MemoryStore) ReplaceAll(ctx context.Context, collection string, records []Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validate(collection, records...); err != nil {
		return err
	}

	c := make(map[string]Record, len(records))
	for _, r := range stamp(records, time.Now().UTC()) {
		r.Data = append([]byte(nil), r.Data...)
		c[r.Key] = r
	}

	s.mu.Lock()
	s.collections[collection] = c
	s.mu.Unlock()
	return nil
}

// Clear removes every record in the collection
func (s *MemoryStore) Clear(ctx context.Context, collection string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.collections, collection)
	s.mu.Unlock()
	return nil
}

// Close is a no-op
func (s *MemoryStore) Close() error {
	return nil
}

var _ Store = (*MemoryStore)(nil)
