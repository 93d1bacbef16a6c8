package ecs

import (
	"slices"

	"github.com/emberline/ecscore/internal/core/event"
)

// EntityContainer receives entities as they enter and leave a world.
type EntityContainer interface {
	Add(id EntityID)
	Remove(id EntityID)
}

// Attach keeps c in sync with w through EntityCreated and EntityDisposed.
// The subscriptions end when the world is disposed or when the returned
// handles are disposed.
func Attach(w *World, c EntityContainer) event.Subscriptions {
	var subs event.Subscriptions
	subs.Add(event.TableFor[EntityCreated](w.bus).Subscribe(w.id, func(m EntityCreated) {
		c.Add(m.Entity)
	}))
	subs.Add(event.TableFor[EntityDisposed](w.bus).Subscribe(w.id, func(m EntityDisposed) {
		c.Remove(m.Entity)
	}))
	return subs
}

// EntitySet is an EntityContainer holding a set of ids. Filter, when set,
// decides which added entities are kept.
type EntitySet struct {
	Filter func(EntityID) bool

	members map[EntityID]struct{}
}

func NewEntitySet() *EntitySet {
	return &EntitySet{members: make(map[EntityID]struct{}, 64)}
}

func (s *EntitySet) Add(id EntityID) {
	if s.Filter != nil && !s.Filter(id) {
		return
	}
	s.members[id] = struct{}{}
}

func (s *EntitySet) Remove(id EntityID) {
	delete(s.members, id)
}

func (s *EntitySet) Has(id EntityID) bool {
	_, ok := s.members[id]
	return ok
}

func (s *EntitySet) Len() int {
	return len(s.members)
}

// IDs returns the members in ascending order.
func (s *EntitySet) IDs() []EntityID {
	ids := make([]EntityID, 0, len(s.members))
	for id := range s.members {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
