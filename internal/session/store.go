package session

import "sync"

// Store is an observable container for one piece of shared state.
// Values are replaced wholesale, never mutated in place. Replacements
// and subscriber notifications happen under a single lock, so updates
// reach every subscriber in the exact order they were applied.
//
// Subscriber callbacks must not call back into the store.
type Store[T any] struct {
	mu      sync.Mutex
	value   T
	subs    map[int]func(T)
	nextSub int
}

// NewStore returns an empty store.
func NewStore[T any]() *Store[T] {
	return &Store[T]{subs: make(map[int]func(T))}
}

// Get returns the current value.
func (s *Store[T]) Get() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

// Replace swaps in a new value and notifies subscribers before any
// later replacement is applied.
func (s *Store[T]) Replace(v T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.value = v
	for _, fn := range s.subs {
		fn(v)
	}
}

// Subscribe registers fn for every future replacement and returns a
// cancel function. Screens cancel on unmount so a stale view never
// receives updates.
func (s *Store[T]) Subscribe(fn func(T)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}
