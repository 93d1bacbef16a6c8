package system

import (
	"time"

	"github.com/emberline/ecscore/internal/core/event"
	coresys "github.com/emberline/ecscore/internal/core/system"
)

// DispatchSystem publishes the messages emitted during the previous tick.
type DispatchSystem struct {
	queue *event.Queue
}

func NewDispatchSystem(q *event.Queue) *DispatchSystem {
	return &DispatchSystem{queue: q}
}

func (s *DispatchSystem) Phase() coresys.Phase { return coresys.PhaseDispatch }

func (s *DispatchSystem) Update(_ time.Duration) {
	s.queue.SwapBuffers()
	s.queue.DispatchAll()
}
