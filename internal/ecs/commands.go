package ecs

import "sync"

// Commands queues structural changes issued while stages run
type Commands struct {
	mu    sync.Mutex
	queue []func(*World)
}

func (c *Commands) push(fn func(*World)) {
	c.mu.Lock()
	c.queue = append(c.queue, fn)
	c.mu.Unlock()
}

func (c *Commands) drain() []func(*World) {
	c.mu.Lock()
	defer c.mu.Unlock()
	q := c.queue
	c.queue = nil
	return q
}

// Len returns the number of queued commands
func (c *Commands) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}

// InsertLater queues setting the component of e
func InsertLater[T any](c *Commands, e Entity, val T) {
	c.push(func(w *World) { Insert(w, e, val) })
}

// RemoveLater queues removal of the T component of e
func RemoveLater[T any](c *Commands, e Entity) {
	c.push(func(w *World) { Register[T](w).Remove(e) })
}

// DespawnLater queues despawning e
func DespawnLater(c *Commands, e Entity) {
	c.push(func(w *World) { w.Despawn(e) })
}
