package ecs

import "reflect"

// Registry tracks all component stores and supports bulk cleanup on entity destroy.
type Registry struct {
	stores []Removable
	byType map[reflect.Type]Removable
}

func NewRegistry() *Registry {
	return &Registry{
		stores: make([]Removable, 0, 16),
		byType: make(map[reflect.Type]Removable, 16),
	}
}

// Register adds a component store to the registry.
func (r *Registry) Register(store Removable) {
	r.stores = append(r.stores, store)
}

// RemoveAll clears the given entity from every registered component store.
func (r *Registry) RemoveAll(id EntityID) {
	for _, s := range r.stores {
		s.Remove(id)
	}
}

// StoreOf returns the world's store for T, creating and registering it on
// first use.
func StoreOf[T any](w *World) *PtrComponentStore[T] {
	key := reflect.TypeFor[T]()
	if s, ok := w.registry.byType[key]; ok {
		return s.(*PtrComponentStore[T])
	}
	s := NewPtrComponentStore[T]()
	w.registry.byType[key] = s
	w.registry.Register(s)
	return s
}
