package system

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/emberline/ecscore/internal/core/ecs"
	coresys "github.com/emberline/ecscore/internal/core/system"
	"github.com/emberline/ecscore/internal/snapshot"
)

// SnapshotSystem encodes the world every interval ticks and hands the result
// to a sink. A failed snapshot is logged and retried at the next interval.
type SnapshotSystem struct {
	world     *ecs.World
	schema    *snapshot.Schema
	sink      snapshot.Sink
	opts      snapshot.Options
	log       *zap.Logger
	timeout   time.Duration
	tickCount uint64
	interval  uint64
}

func NewSnapshotSystem(world *ecs.World, schema *snapshot.Schema, sink snapshot.Sink, textEncoding string, intervalTicks uint64, log *zap.Logger) *SnapshotSystem {
	return &SnapshotSystem{
		world:    world,
		schema:   schema,
		sink:     sink,
		opts:     snapshot.Options{TextEncoding: textEncoding},
		log:      log,
		timeout:  10 * time.Second,
		interval: intervalTicks,
	}
}

func (s *SnapshotSystem) Phase() coresys.Phase { return coresys.PhasePersist }

func (s *SnapshotSystem) Update(_ time.Duration) {
	s.tickCount++
	if s.interval == 0 || s.tickCount%s.interval != 0 {
		return
	}
	if err := s.Save(); err != nil {
		s.log.Error("snapshot failed",
			zap.String("world", s.world.Name()),
			zap.Uint64("tick", s.tickCount),
			zap.Error(err),
		)
	}
}

// Save snapshots the world immediately. Called on shutdown as well.
func (s *SnapshotSystem) Save() error {
	opts := s.opts
	opts.Tick = s.tickCount
	data, err := snapshot.Encode(s.world, s.schema, opts)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	rec := snapshot.NewRecord(s.world.Name(), s.world.ID(), s.tickCount, data)
	if err := s.sink.Save(ctx, rec); err != nil {
		return err
	}
	s.log.Debug("snapshot stored",
		zap.String("world", s.world.Name()),
		zap.Uint64("tick", s.tickCount),
		zap.Int("bytes", len(data)),
	)
	return nil
}
