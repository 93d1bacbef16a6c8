package system

import (
	"time"

	"github.com/emberline/ecscore/internal/component"
	"github.com/emberline/ecscore/internal/core/ecs"
	"github.com/emberline/ecscore/internal/core/event"
	coresys "github.com/emberline/ecscore/internal/core/system"
)

// Depleted is emitted when an entity's health reaches zero.
type Depleted struct {
	Entity ecs.EntityID
}

// RegenSystem applies Health.Regen and queues entities whose health ran out
// for destruction. Fractional regeneration accumulates across ticks.
type RegenSystem struct {
	world  *ecs.World
	health *ecs.PtrComponentStore[component.Health]
	queue  *event.Queue
	carry  map[ecs.EntityID]float32
}

func NewRegenSystem(world *ecs.World, q *event.Queue) *RegenSystem {
	s := &RegenSystem{
		world:  world,
		health: ecs.StoreOf[component.Health](world),
		queue:  q,
		carry:  make(map[ecs.EntityID]float32),
	}
	event.TableFor[ecs.EntityDisposed](world.Bus()).Subscribe(world.ID(), func(m ecs.EntityDisposed) {
		delete(s.carry, m.Entity)
	})
	return s
}

func (s *RegenSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *RegenSystem) Update(dt time.Duration) {
	sec := float32(dt.Seconds())
	s.health.Each(func(id ecs.EntityID, h *component.Health) {
		if h.Current <= 0 {
			s.world.MarkForDestruction(id)
			event.Emit(s.queue, s.world.ID(), Depleted{Entity: id})
			return
		}
		acc := s.carry[id] + h.Regen*sec
		whole := int32(acc)
		s.carry[id] = acc - float32(whole)
		h.Current += whole
		if h.Current > h.Max {
			h.Current = h.Max
		}
	})
}
