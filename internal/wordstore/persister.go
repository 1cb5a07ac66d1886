package wordstore

import (
	"context"
	"sync"
)

// StorageKey is the fixed key the collection is stored under
const StorageKey = "word-dictation-storage"

// Persister loads and saves the full word collection
type Persister interface {
	// Load returns the stored collection, or nil when nothing was saved yet
	Load(ctx context.Context) ([]Word, error)

	// Save replaces the stored collection
	Save(ctx context.Context, words []Word) error
}

// MemoryPersister keeps the collection in process memory
type MemoryPersister struct {
	mu    sync.Mutex
	words []Word
	saves int
}

// NewMemoryPersister creates a persister seeded with the given words
func NewMemoryPersister(words ...Word) *MemoryPersister {
	return &MemoryPersister{words: append([]Word(nil), words...)}
}

// Load implements Persister
func (m *MemoryPersister) Load(ctx context.Context) ([]Word, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Word(nil), m.words...), nil
}

// Save implements Persister
func (m *MemoryPersister) Save(ctx context.Context, words []Word) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.words = append([]Word(nil), words...)
	m.saves++
	return nil
}

// Saves returns how many times Save was called
func (m *MemoryPersister) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}
