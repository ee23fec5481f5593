package swr

import "sync"

// State is the cached view of a keyed resource. Unlike a task result its
// fields are not mutually exclusive: stale data may coexist with a newer
// error, and Pending may be true while both are visible. Fresh reports
// whether Data reflects the most recent successful fetch for the key.
type State[T any] struct {
	Data    T
	HasData bool
	Err     error
	Pending bool
	Fresh   bool
}

// Store persists resource state across key reselections. Implementations
// must be safe for concurrent use.
type Store[T any] interface {
	Get(key any) (State[T], bool)
	Set(key any, state State[T])
	Delete(key any)
}

// AmnesiaStore is the default store: an unbounded in-memory map with no
// TTL and no eviction. It forgets nothing until the process exits, hence
// the name.
type AmnesiaStore[T any] struct {
	data sync.Map
}

// NewAmnesiaStore creates an empty store.
func NewAmnesiaStore[T any]() *AmnesiaStore[T] {
	return &AmnesiaStore[T]{}
}

func (s *AmnesiaStore[T]) Get(key any) (State[T], bool) {
	v, ok := s.data.Load(key)
	if !ok {
		var zero State[T]
		return zero, false
	}
	return v.(State[T]), true
}

func (s *AmnesiaStore[T]) Set(key any, state State[T]) {
	s.data.Store(key, state)
}

func (s *AmnesiaStore[T]) Delete(key any) {
	s.data.Delete(key)
}

// Len counts the stored entries.
func (s *AmnesiaStore[T]) Len() int {
	count := 0
	s.data.Range(func(any, any) bool {
		count++
		return true
	})
	return count
}
