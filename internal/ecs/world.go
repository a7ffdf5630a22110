package ecs

import (
	"fmt"
	"reflect"
	"sync"
)

// Entity identifies a row in the world. IDs are handed out in increasing
// order and never reused, so ascending ID order is creation order.
type Entity uint64

// World contains all entities, their component stores and shared resources
type World struct {
	mu        sync.Mutex
	next      Entity
	alive     map[Entity]struct{}
	stores    map[reflect.Type]AnyStore
	resources map[reflect.Type]any
	commands  *Commands
}

// NewWorld creates an empty world
func NewWorld() *World {
	return &World{
		next:      1,
		alive:     make(map[Entity]struct{}),
		stores:    make(map[reflect.Type]AnyStore),
		resources: make(map[reflect.Type]any),
		commands:  &Commands{},
	}
}

// CreateEntity reserves a new entity ID
func (w *World) CreateEntity() Entity {
	w.mu.Lock()
	defer w.mu.Unlock()

	e := w.next
	w.next++
	w.alive[e] = struct{}{}
	return e
}

// Despawn removes an entity and every component it holds
func (w *World) Despawn(e Entity) {
	w.mu.Lock()
	defer w.mu.Unlock()

	delete(w.alive, e)
	for _, s := range w.stores {
		s.Remove(e)
	}
}

func (w *World) IsAlive(e Entity) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.alive[e]
	return ok
}

// Len returns the number of live entities
func (w *World) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.alive)
}

// Commands returns the world's deferred command buffer
func (w *World) Commands() *Commands { return w.commands }

// Maintain applies every queued command in submission order
func (w *World) Maintain() {
	for _, fn := range w.commands.drain() {
		fn(w)
	}
}

// Register returns the store for T, creating it on first use.
// Call during setup; creating stores while stages run is not safe.
func Register[T any](w *World) *Store[T] {
	w.mu.Lock()
	defer w.mu.Unlock()

	t := reflect.TypeFor[T]()
	if s, ok := w.stores[t]; ok {
		return s.(*Store[T])
	}
	s := NewStore[T]()
	w.stores[t] = s
	return s
}

// Storage returns the registered store for T. It panics when T was never
// registered, which indicates a stage wired before its module's setup.
func Storage[T any](w *World) *Store[T] {
	w.mu.Lock()
	defer w.mu.Unlock()

	t := reflect.TypeFor[T]()
	s, ok := w.stores[t]
	if !ok {
		panic(fmt.Sprintf("ecs: component %s not registered", t))
	}
	return s.(*Store[T])
}

// Insert sets the component of e immediately, registering T if needed
func Insert[T any](w *World, e Entity, val T) {
	Register[T](w).Set(e, val)
}

// SetResource stores a world-global value keyed by its type
func SetResource[T any](w *World, val T) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.resources[reflect.TypeFor[T]()] = val
}

// GetResource returns the world-global value of type T
func GetResource[T any](w *World) (T, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	v, ok := w.resources[reflect.TypeFor[T]()]
	if !ok {
		var zero T
		return zero, false
	}
	return v.(T), true
}
