package thread

import "sync"

// Source records where the resident thread set came from.
type Source string

const (
	SourceRemote Source = "remote"
	SourceCache  Source = "cache"
	SourceSample Source = "sample"
)

// Snapshot is a consistent, deep-copied view of the store.
type Snapshot struct {
	Drop       Drop     `json:"drop"`
	Threads    []Thread `json:"threads"`
	Source     Source   `json:"source"`
	Generation uint64   `json:"generation"`
	Version    uint64   `json:"version"`
}

// Store is the single in-memory source of truth for rendering and reactions.
// Reloads replace the whole collection; reactions replace one field of one
// thread. Readers always get copies, so no partially merged state is visible.
type Store struct {
	mu         sync.RWMutex
	drop       Drop
	items      []Thread
	index      map[string]int
	source     Source
	generation uint64
	version    uint64
}

// NewStore returns a Store preloaded with the supplied drop and threads.
func NewStore(drop Drop, items []Thread, source Source) *Store {
	s := &Store{}
	s.Replace(drop, items, source)
	return s
}

// Replace swaps the drop and thread set wholesale.
func (s *Store) Replace(drop Drop, items []Thread, source Source) {
	copied := make([]Thread, len(items))
	index := make(map[string]int, len(items))
	for i, item := range items {
		copied[i] = item.Clone()
		if _, dup := index[item.ID]; !dup {
			index[item.ID] = i
		}
	}

	s.mu.Lock()
	s.drop = drop
	s.items = copied
	s.index = index
	s.source = source
	s.generation++
	s.version++
	s.mu.Unlock()
}

// Snapshot copies the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Drop:       s.drop,
		Threads:    s.listLocked(),
		Source:     s.source,
		Generation: s.generation,
		Version:    s.version,
	}
}

// List returns the threads in store order.
func (s *Store) List() []Thread {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listLocked()
}

func (s *Store) listLocked() []Thread {
	out := make([]Thread, len(s.items))
	for i, item := range s.items {
		out[i] = item.Clone()
	}
	return out
}

// Len reports the number of resident threads.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Drop returns the currently loaded drop.
func (s *Store) Drop() Drop {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.drop
}

// Source reports where the resident set came from.
func (s *Store) Source() Source {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.source
}

// Generation increases on every wholesale replacement.
func (s *Store) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

// Version increases on every mutation, reloads and reactions alike.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Find looks up a thread by identifier.
func (s *Store) Find(id string) (Thread, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[id]
	if !ok {
		return Thread{}, false
	}
	return s.items[i].Clone(), true
}

// Increment adds one to a thread's reaction count. The reactions field is
// replaced as a whole so concurrent readers never observe a half-edit.
func (s *Store) Increment(id string, kind ReactionKind) (Thread, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[id]
	if !ok {
		return Thread{}, false
	}
	next := s.items[i].Reactions.Normalized()
	next[kind] = next.Get(kind) + 1
	s.items[i].Reactions = next
	s.version++
	return s.items[i].Clone(), true
}
