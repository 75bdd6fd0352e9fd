package storage

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore is a DocumentStore kept entirely in memory.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]map[string]Document
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs: make(map[string]map[string]Document),
	}
}

func (s *MemoryStore) Get(ctx context.Context, kind, id string) (*Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.docs[kind][id]
	if !ok {
		return nil, fmt.Errorf("%s %q: %w", kind, id, ErrNotFound)
	}
	return &doc, nil
}

func (s *MemoryStore) GetByLoadID(ctx context.Context, kind string, loadID Identifier) (*Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, doc := range s.docs[kind] {
		if doc.LoadID == loadID {
			return &doc, nil
		}
	}
	return nil, fmt.Errorf("%s load id %q: %w", kind, loadID, ErrNotFound)
}

func (s *MemoryStore) Put(ctx context.Context, doc *Document) error {
	if err := validateDocument(doc); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	kind, ok := s.docs[doc.Kind]
	if !ok {
		kind = make(map[string]Document)
		s.docs[doc.Kind] = kind
	}
	kind[doc.ID] = *doc
	return nil
}
