package ecs

import (
	"github.com/emberline/ecscore/internal/core/event"
)

// World is the top-level ECS container. It owns the entity pool, the component
// registry, and a deferred destruction queue flushed by CleanupSystem each tick.
// Lifecycle changes are announced on the bus under the world's id.
//
// A World is driven from a single goroutine.
type World struct {
	id           int
	name         string
	bus          *event.Bus
	ids          *WorldIDs
	pool         *EntityPool
	registry     *Registry
	destroyQueue []EntityID
	disposed     bool
}

// NewWorld acquires an id from ids and announces the world with WorldCreated
// on the lifecycle world.
//
// The world watches for its own WorldDisposed, so a dispose published on the
// bus by anyone, at any world, marks it disposed and returns its id.
func NewWorld(name string, bus *event.Bus, ids *WorldIDs) *World {
	w := &World{
		id:           ids.Acquire(),
		name:         name,
		bus:          bus,
		ids:          ids,
		pool:         NewEntityPool(),
		registry:     NewRegistry(),
		destroyQueue: make([]EntityID, 0, 64),
	}
	// Every dispose reaches the lifecycle chain, whichever world it was
	// published at, so the world listens there and filters on its own id.
	var self *event.Subscription
	self = event.TableFor[event.WorldDisposed](bus).Subscribe(event.LifecycleWorld, func(m event.WorldDisposed) {
		if m.WorldID != w.id || w.disposed {
			return
		}
		w.disposed = true
		w.ids.Release(w.id)
		self.Dispose()
	})
	event.Publish(bus, event.LifecycleWorld, WorldCreated{WorldID: w.id})
	return w
}

func (w *World) ID() int             { return w.id }
func (w *World) Name() string        { return w.name }
func (w *World) Bus() *event.Bus     { return w.bus }
func (w *World) Pool() *EntityPool   { return w.pool }
func (w *World) Registry() *Registry { return w.registry }
func (w *World) Disposed() bool      { return w.disposed }

func (w *World) CreateEntity() EntityID {
	id := w.pool.Create()
	event.Publish(w.bus, w.id, EntityCreated{Entity: id})
	return id
}

// Restore brings back an entity with exactly the given id.
func (w *World) Restore(id EntityID) error {
	if err := w.pool.Restore(id); err != nil {
		return err
	}
	event.Publish(w.bus, w.id, EntityCreated{Entity: id})
	return nil
}

func (w *World) Alive(id EntityID) bool {
	return w.pool.Alive(id)
}

// MarkForDestruction queues an entity for end-of-tick cleanup.
func (w *World) MarkForDestruction(id EntityID) {
	w.destroyQueue = append(w.destroyQueue, id)
}

// FlushDestroyQueue destroys all queued entities and clears their components.
// Called by CleanupSystem at the end of each tick.
func (w *World) FlushDestroyQueue() {
	for _, id := range w.destroyQueue {
		if !w.pool.Alive(id) {
			continue
		}
		w.registry.RemoveAll(id)
		w.pool.Destroy(id)
		event.Publish(w.bus, w.id, EntityDisposed{Entity: id})
	}
	w.destroyQueue = w.destroyQueue[:0]
}

// Dispose announces WorldDisposed, which empties every subscription held in
// this world and returns the id for reuse. Later calls do nothing.
func (w *World) Dispose() {
	if w.disposed {
		return
	}
	event.DisposeWorld(w.bus, w.id)
}
