// Package collection provides the shared mutation surface for the in-memory
// item collection. Every mutation replaces the collection wholesale
// (copy-on-write), so a reader holding a prior snapshot always sees a
// consistent, unchanged view. This is what makes the optimistic save
// coordinator's "is this item still clean" check after an async persist a
// plain flag read instead of a torn read.
package collection

import (
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/winnow/pkg/model"
)

var ErrItemNotFound = goerr.New("item not found in collection")

// Store holds the working collection of one editing session
type Store struct {
	mu       sync.RWMutex
	items    []*model.Item
	onChange []func(size int)
}

// New creates an empty Store
func New() *Store {
	return &Store{}
}

// OnChange registers a hook invoked after every mutation with the new
// collection size. Hooks run synchronously on the mutating goroutine.
func (s *Store) OnChange(fn func(size int)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = append(s.onChange, fn)
}

// Items returns the current snapshot. Callers must treat the returned slice
// and its items as read-only; mutations go through Replace, Apply or ApplyAll.
func (s *Store) Items() []*model.Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.items
}

// Len returns the current collection size
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Get returns the current version of one item
func (s *Store) Get(id model.ItemID) (*model.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, item := range s.items {
		if item.ID == id {
			return item, nil
		}
	}
	return nil, goerr.Wrap(ErrItemNotFound, "get", goerr.Value("item_id", id))
}

// Replace swaps in a whole new collection
func (s *Store) Replace(items []*model.Item) {
	s.mu.Lock()
	next := make([]*model.Item, len(items))
	copy(next, items)
	s.items = next
	hooks, size := s.onChange, len(next)
	s.mu.Unlock()

	for _, hook := range hooks {
		hook(size)
	}
}

// Apply clones the item with the given id, applies fn to the clone, and swaps
// the collection to a new slice containing it. Unmodified items are shared
// between the old and new snapshots.
func (s *Store) Apply(id model.ItemID, fn func(item *model.Item)) error {
	s.mu.Lock()
	idx := -1
	for i, item := range s.items {
		if item.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return goerr.Wrap(ErrItemNotFound, "apply", goerr.Value("item_id", id))
	}

	next := make([]*model.Item, len(s.items))
	copy(next, s.items)
	clone := next[idx].Clone()
	fn(clone)
	next[idx] = clone
	s.items = next
	hooks, size := s.onChange, len(next)
	s.mu.Unlock()

	for _, hook := range hooks {
		hook(size)
	}
	return nil
}

// ApplyAll clones every item, applies fn to each clone, and swaps the
// collection in one atomic replacement
func (s *Store) ApplyAll(fn func(item *model.Item)) {
	s.mu.Lock()
	next := make([]*model.Item, len(s.items))
	for i, item := range s.items {
		clone := item.Clone()
		fn(clone)
		next[i] = clone
	}
	s.items = next
	hooks, size := s.onChange, len(next)
	s.mu.Unlock()

	for _, hook := range hooks {
		hook(size)
	}
}

// Snapshot returns a deep copy of the collection, for passes that mutate
// items in place before deciding whether to commit the result
func (s *Store) Snapshot() []*model.Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]*model.Item, len(s.items))
	for i, item := range s.items {
		items[i] = item.Clone()
	}
	return items
}
