package wordstore

import (
	"context"
	"fmt"
	"log"
	"sync"

	"codeberg.org/snonux/kikitori/internal"
)

// Store is the deduplicating vocabulary collection. It is safe for
// concurrent use.
type Store struct {
	mu          sync.Mutex
	words       []Word
	version     uint64
	persister   Persister
	newID       func() string
	subscribers map[int]func([]Word)
	nextSubID   int

	// notifyMu orders deliveries; delivered is the newest version sent
	notifyMu  sync.Mutex
	delivered uint64
}

// update is a persisted collection tagged with its mutation number
type update struct {
	version uint64
	words   []Word
}

// Option configures a Store
type Option func(*Store)

// WithIDGenerator replaces the uuid based ID generator
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) {
		s.newID = gen
	}
}

// Open loads the collection from the persister and returns a ready store
func Open(ctx context.Context, persister Persister, opts ...Option) (*Store, error) {
	if persister == nil {
		persister = NewMemoryPersister()
	}

	words, err := persister.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load words: %w", err)
	}

	s := &Store{
		words:       words,
		persister:   persister,
		newID:       internal.NewWordID,
		subscribers: make(map[int]func([]Word)),
	}
	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// AddWord inserts the entry unless a word with the same (word, reading)
// pair exists. It reports whether the entry was added.
func (s *Store) AddWord(entry Entry) bool {
	s.mu.Lock()
	ok := s.addLocked(entry)
	var snapshot update
	if ok {
		snapshot = s.persistLocked()
	}
	s.mu.Unlock()

	if ok {
		s.notify(snapshot)
	}
	return ok
}

// AddWords adds the entries in order. Duplicates are counted against the
// collection as it grows, so repeats inside the same batch are rejected too.
func (s *Store) AddWords(entries []Entry) Result {
	var res Result

	s.mu.Lock()
	for _, e := range entries {
		if s.addLocked(e) {
			res.Added++
		} else {
			res.Duplicated++
		}
	}
	var snapshot update
	if res.Added > 0 {
		snapshot = s.persistLocked()
	}
	s.mu.Unlock()

	if res.Added > 0 {
		s.notify(snapshot)
	}
	return res
}

// UpdateWord merges the patch into the word with the given ID. Unknown IDs
// are ignored. The uniqueness of (word, reading) is not checked again.
func (s *Store) UpdateWord(id string, patch Patch) {
	s.mu.Lock()
	found := false
	for i := range s.words {
		if s.words[i].ID != id {
			continue
		}
		if patch.Word != nil {
			s.words[i].Word = *patch.Word
		}
		if patch.Reading != nil {
			s.words[i].Reading = *patch.Reading
		}
		if patch.Date != nil {
			s.words[i].Date = *patch.Date
		}
		found = true
		break
	}
	var snapshot update
	if found {
		snapshot = s.persistLocked()
	}
	s.mu.Unlock()

	if found {
		s.notify(snapshot)
	}
}

// DeleteWord removes the word with the given ID if present
func (s *Store) DeleteWord(id string) {
	s.DeleteWords([]string{id})
}

// DeleteWords removes every word whose ID is listed and returns how many
// were removed
func (s *Store) DeleteWords(ids []string) int {
	remove := make(map[string]bool, len(ids))
	for _, id := range ids {
		remove[id] = true
	}

	s.mu.Lock()
	kept := s.words[:0:0]
	for _, w := range s.words {
		if !remove[w.ID] {
			kept = append(kept, w)
		}
	}
	removed := len(s.words) - len(kept)
	s.words = kept
	var snapshot update
	if removed > 0 {
		snapshot = s.persistLocked()
	}
	s.mu.Unlock()

	if removed > 0 {
		s.notify(snapshot)
	}
	return removed
}

// ExportWords returns the full collection in insertion order
func (s *Store) ExportWords() []Word {
	return s.Words()
}

// Words returns a copy of the collection
func (s *Store) Words() []Word {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Len returns the number of stored words
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.words)
}

// Get returns the word with the given ID
func (s *Store) Get(id string) (Word, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, w := range s.words {
		if w.ID == id {
			return w, true
		}
	}
	return Word{}, false
}

// AddedOn returns the words stamped with the given date string
func (s *Store) AddedOn(date string) []Word {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []Word
	for _, w := range s.words {
		if w.Date == date {
			result = append(result, w)
		}
	}
	return result
}

// Subscribe registers fn to be called with the new collection after every
// mutation. Under concurrent mutations fn may skip an intermediate collection
// but never sees an older one after a newer one, and the last call carries
// the latest collection. The returned function removes the subscription.
func (s *Store) Subscribe(fn func([]Word)) func() {
	s.mu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
	}
}

func (s *Store) addLocked(entry Entry) bool {
	for _, w := range s.words {
		if w.sameKey(entry) {
			return false
		}
	}

	s.words = append(s.words, Word{
		ID:      s.newID(),
		Word:    entry.Word,
		Reading: entry.Reading,
		Date:    entry.Date,
	})
	return true
}

func (s *Store) snapshotLocked() []Word {
	return append([]Word(nil), s.words...)
}

// persistLocked saves the current collection and returns the saved copy.
// Save errors are logged only; the in-memory collection stays authoritative.
func (s *Store) persistLocked() update {
	s.version++
	snapshot := s.snapshotLocked()
	if err := s.persister.Save(context.Background(), snapshot); err != nil {
		log.Printf("Warning: failed to persist words: %v", err)
	}
	return update{version: s.version, words: snapshot}
}

// notify hands the update to every subscriber unless a newer one has been
// delivered already, so racing mutations never roll a subscriber back.
// Subscribers may read the store but must not mutate it from the callback.
func (s *Store) notify(u update) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	if u.version <= s.delivered {
		return
	}
	s.delivered = u.version

	s.mu.Lock()
	subs := make([]func([]Word), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(u.words)
	}
}
