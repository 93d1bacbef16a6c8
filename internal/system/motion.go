package system

import (
	"time"

	"github.com/emberline/ecscore/internal/component"
	"github.com/emberline/ecscore/internal/core/ecs"
	coresys "github.com/emberline/ecscore/internal/core/system"
)

// MotionSystem integrates Velocity into Position.
type MotionSystem struct {
	pos *ecs.PtrComponentStore[component.Position]
	vel *ecs.PtrComponentStore[component.Velocity]
}

func NewMotionSystem(world *ecs.World) *MotionSystem {
	return &MotionSystem{
		pos: ecs.StoreOf[component.Position](world),
		vel: ecs.StoreOf[component.Velocity](world),
	}
}

func (s *MotionSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *MotionSystem) Update(dt time.Duration) {
	sec := float32(dt.Seconds())
	ecs.Each2(s.pos, s.vel, func(_ ecs.EntityID, p *component.Position, v *component.Velocity) {
		p.X += v.DX * sec
		p.Y += v.DY * sec
		p.Z += v.DZ * sec
	})
}
