package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/emberline/ecscore/internal/component"
	"github.com/emberline/ecscore/internal/config"
	"github.com/emberline/ecscore/internal/core/ecs"
	"github.com/emberline/ecscore/internal/core/event"
	coresys "github.com/emberline/ecscore/internal/core/system"
	"github.com/emberline/ecscore/internal/data"
	"github.com/emberline/ecscore/internal/persist"
	"github.com/emberline/ecscore/internal/scripting"
	"github.com/emberline/ecscore/internal/snapshot"
	"github.com/emberline/ecscore/internal/system"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printSection(title string) {
	lineLen := 46 - len(title) - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := 42 - len(label) - len(numStr)
	if dotsLen < 3 {
		dotsLen = 3
	}
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

// ── Engine ─────────────────────────────────────────────────────────

// instance is one running world with its own system runner.
type instance struct {
	world    *ecs.World
	runner   *coresys.Runner
	snapshot *system.SnapshotSystem
}

func run() error {
	cfgPath := flag.String("config", "config/engine.toml", "path to the engine config")
	flag.Parse()
	if p := os.Getenv("ECSCORE_CONFIG"); p != "" {
		*cfgPath = p
	}
	cfg, err := config.Load(*cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	fmt.Printf("\n  \033[36;1m%s\033[0m\n\n", cfg.Engine.Name)

	bus := event.NewBus(log.Named("bus"))
	queue := event.NewQueue(bus)

	// Scripts bind before any world exists so they see every WorldCreated.
	printSection("Scripting")
	engine, err := scripting.NewEngine(cfg.Scripting.Dir, bus, queue, log.Named("lua"))
	if err != nil {
		return fmt.Errorf("scripting: %w", err)
	}
	defer engine.Close()
	printStat("Lua hooks", engine.Bind())
	fmt.Println()

	printSection("Persistence")
	sinks, closeSinks, err := openSinks(cfg, log)
	if err != nil {
		return err
	}
	defer closeSinks()
	fmt.Println()

	schema := snapshot.NewSchema()
	snapshot.MustRegister[component.Position](schema, "position")
	snapshot.MustRegister[component.Velocity](schema, "velocity")
	snapshot.MustRegister[component.Health](schema, "health")

	printSection("Worlds")
	seeds, err := data.LoadSeeds(cfg.Worlds.Seeds)
	if err != nil {
		return fmt.Errorf("seeds: %w", err)
	}
	ids := ecs.NewWorldIDs()

	// Queued messages, including script requests, are published once per
	// tick before any world updates.
	dispatch := coresys.NewRunner()
	dispatch.Register(system.NewDispatchSystem(queue))

	instances := make([]*instance, 0, seeds.Count())
	for _, seed := range seeds.All() {
		w := spawnWorld(seed, bus, ids)
		inst := &instance{world: w, runner: coresys.NewRunner()}
		inst.snapshot = system.NewSnapshotSystem(w, schema, sinks, cfg.Snapshot.TextEncoding, cfg.Snapshot.Interval, log)
		inst.runner.Register(system.NewMotionSystem(w))
		inst.runner.Register(system.NewRegenSystem(w, queue))
		inst.runner.Register(inst.snapshot)
		inst.runner.Register(system.NewCleanupSystem(w))
		instances = append(instances, inst)
		printStat(seed.Name, seed.Entities)
	}
	fmt.Println()

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.Engine.TickRate)
	defer ticker.Stop()

	printOK(fmt.Sprintf("tick loop started (tick: %s)", cfg.Engine.TickRate))
	fmt.Println()

	var ticks uint64
loop:
	for {
		select {
		case <-ticker.C:
			dispatch.Tick(cfg.Engine.TickRate)
			live := instances[:0]
			for _, inst := range instances {
				if inst.world.Disposed() {
					log.Info("world disposed", zap.String("world", inst.world.Name()))
					continue
				}
				inst.runner.Tick(cfg.Engine.TickRate)
				live = append(live, inst)
			}
			instances = live
			ticks++
			if cfg.Engine.Ticks > 0 && ticks >= cfg.Engine.Ticks {
				log.Info("tick limit reached", zap.Uint64("ticks", ticks))
				break loop
			}
		case sig := <-shutdownCh:
			log.Info("shutdown signal received", zap.String("signal", sig.String()))
			break loop
		}
	}

	for _, inst := range instances {
		if inst.world.Disposed() {
			continue
		}
		if err := inst.snapshot.Save(); err != nil {
			log.Error("final snapshot failed", zap.String("world", inst.world.Name()), zap.Error(err))
		}
		inst.world.Dispose()
	}
	// Requests queued by scripts during the last tick.
	dispatch.Tick(cfg.Engine.TickRate)

	log.Info("engine stopped", zap.Uint64("ticks", ticks))
	return nil
}

// openSinks builds the snapshot sinks the config enables. The returned
// function releases them.
func openSinks(cfg *config.Config, log *zap.Logger) (snapshot.Sinks, func(), error) {
	var sinks snapshot.Sinks
	closeFn := func() {}

	if cfg.Snapshot.Dir != "" {
		fs, err := persist.NewFileSink(cfg.Snapshot.Dir)
		if err != nil {
			return nil, nil, err
		}
		sinks = append(sinks, fs)
		printOK("snapshot dir " + cfg.Snapshot.Dir)
	}

	if cfg.Database.DSN != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		db, err := persist.NewDB(ctx, cfg.Database, log)
		if err != nil {
			return nil, nil, fmt.Errorf("database: %w", err)
		}
		printOK("PostgreSQL connected")
		version, err := db.Migrate(ctx)
		if err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("migrations: %w", err)
		}
		printOK(fmt.Sprintf("schema at version %d", version))
		sinks = append(sinks, persist.NewSnapshotRepo(db, cfg.Snapshot.Keep))
		closeFn = db.Close
	}

	if len(sinks) == 0 {
		log.Warn("no snapshot sink configured, snapshots are discarded")
	}
	return sinks, closeFn, nil
}

// spawnWorld creates a world and its seeded entities.
func spawnWorld(seed data.SeedEntry, bus *event.Bus, ids *ecs.WorldIDs) *ecs.World {
	w := ecs.NewWorld(seed.Name, bus, ids)
	positions := ecs.StoreOf[component.Position](w)
	velocities := ecs.StoreOf[component.Velocity](w)
	health := ecs.StoreOf[component.Health](w)

	vel := component.Velocity{DX: seed.Velocity.X, DY: seed.Velocity.Y, DZ: seed.Velocity.Z}
	for i := 0; i < seed.Entities; i++ {
		id := w.CreateEntity()
		p := seed.Position(i)
		positions.Set(id, &p)
		if vel != (component.Velocity{}) {
			v := vel
			velocities.Set(id, &v)
		}
		if seed.Health > 0 {
			health.Set(id, &component.Health{Current: seed.Health, Max: seed.Health, Regen: seed.Regen})
		}
	}
	return w
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
