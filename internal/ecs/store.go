package ecs

import "sort"

// AnyStore provides type-erased operations for lifecycle management
type AnyStore interface {
	// Remove deletes a component from an entity
	Remove(e Entity)

	// Has checks if an entity has this component
	Has(e Entity) bool

	// Len returns the number of entities with this component
	Len() int

	// Clear removes all components from this store
	Clear()
}

// QueryableStore extends AnyStore with the entity listing needed by queries
type QueryableStore interface {
	AnyStore

	// Entities returns all entities that have this component type
	Entities() []Entity
}

// Store is a generic container for a specific component type T.
// Values are kept densely so pointers returned by Get stay valid until the
// next structural change of this store.
type Store[T any] struct {
	dense    []T
	entities []Entity
	sparse   map[Entity]int
}

// NewStore creates a new component store for type T
func NewStore[T any]() *Store[T] {
	return &Store[T]{
		dense:    make([]T, 0, 64),
		entities: make([]Entity, 0, 64),
		sparse:   make(map[Entity]int, 64),
	}
}

// Set inserts or overwrites the component for an entity
func (s *Store[T]) Set(e Entity, val T) {
	if i, ok := s.sparse[e]; ok {
		s.dense[i] = val
		return
	}
	s.sparse[e] = len(s.dense)
	s.dense = append(s.dense, val)
	s.entities = append(s.entities, e)
}

// Get returns a pointer to the entity's component
func (s *Store[T]) Get(e Entity) (*T, bool) {
	i, ok := s.sparse[e]
	if !ok {
		return nil, false
	}
	return &s.dense[i], true
}

// Value returns a copy of the entity's component
func (s *Store[T]) Value(e Entity) (T, bool) {
	i, ok := s.sparse[e]
	if !ok {
		var zero T
		return zero, false
	}
	return s.dense[i], true
}

func (s *Store[T]) Has(e Entity) bool {
	_, ok := s.sparse[e]
	return ok
}

// Remove swap-deletes the entity's component
func (s *Store[T]) Remove(e Entity) {
	i, ok := s.sparse[e]
	if !ok {
		return
	}
	last := len(s.dense) - 1
	if i != last {
		s.dense[i] = s.dense[last]
		s.entities[i] = s.entities[last]
		s.sparse[s.entities[i]] = i
	}
	var zero T
	s.dense[last] = zero
	s.dense = s.dense[:last]
	s.entities = s.entities[:last]
	delete(s.sparse, e)
}

func (s *Store[T]) Len() int { return len(s.dense) }

// Entities returns the entities holding this component in ascending order
func (s *Store[T]) Entities() []Entity {
	out := make([]Entity, len(s.entities))
	copy(out, s.entities)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (s *Store[T]) Clear() {
	s.dense = s.dense[:0]
	s.entities = s.entities[:0]
	s.sparse = make(map[Entity]int, 64)
}
