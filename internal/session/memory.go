package session

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	state     State
	expiry    time.Time
	insertIdx int64
}

// MemoryStore keeps sessions in process. Entries expire after ttl of
// inactivity; at capacity the least recently written entry is evicted.
type MemoryStore struct {
	mu         sync.Mutex
	items      map[string]memoryEntry
	ttl        time.Duration
	maxEntries int
	nextIdx    int64
	now        func() time.Time
}

// NewMemoryStore creates a MemoryStore. maxEntries <= 0 means unbounded.
func NewMemoryStore(ttl time.Duration, maxEntries int) *MemoryStore {
	return &MemoryStore{
		items:      make(map[string]memoryEntry),
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

func (s *MemoryStore) Get(_ context.Context, id string) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(id), nil
}

func (s *MemoryStore) Update(_ context.Context, id string, fn func(*State) error) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.load(id)
	if err := fn(&st); err != nil {
		return State{}, err
	}

	if _, exists := s.items[id]; !exists && s.maxEntries > 0 && len(s.items) >= s.maxEntries {
		s.evictOldest()
	}

	s.items[id] = memoryEntry{
		state:     st,
		expiry:    s.now().Add(s.ttl),
		insertIdx: s.nextIdx,
	}
	s.nextIdx++
	return st, nil
}

func (s *MemoryStore) Sweep(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for id, e := range s.items {
		if now.After(e.expiry) {
			delete(s.items, id)
			removed++
		}
	}
	return removed, nil
}

// Len returns the number of stored sessions, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func (s *MemoryStore) Close() error { return nil }

// load returns the live state for id. Must be called with mu held.
func (s *MemoryStore) load(id string) State {
	e, ok := s.items[id]
	if !ok {
		return State{}
	}
	if s.now().After(e.expiry) {
		delete(s.items, id)
		return State{}
	}
	return e.state
}

// evictOldest removes the entry with the lowest insertIdx. Must be called with mu held.
func (s *MemoryStore) evictOldest() {
	var oldestID string
	var oldestIdx int64 = -1

	for id, e := range s.items {
		if oldestIdx == -1 || e.insertIdx < oldestIdx {
			oldestIdx = e.insertIdx
			oldestID = id
		}
	}

	if oldestID != "" {
		delete(s.items, oldestID)
	}
}
