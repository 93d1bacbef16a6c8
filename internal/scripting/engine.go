package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/emberline/ecscore/internal/core/ecs"
	"github.com/emberline/ecscore/internal/core/event"
)

// APIVersion is exposed to scripts as ecs.API_VERSION.
const APIVersion = 1

// Engine wraps a gopher-lua VM whose scripts observe world lifecycle.
//
// Scripts may define global functions
//
//	on_world_created(world_id)
//	on_world_disposed(world_id)
//
// and call ecs.dispose_world(id) and ecs.log(msg). Requests made from Lua go
// through the deferred queue, so they take effect on the next dispatch
// rather than inside the hook that made them.
type Engine struct {
	mu    sync.Mutex // the VM is single threaded; hooks may fire from any goroutine
	vm    *lua.LState
	bus   *event.Bus
	queue *event.Queue
	log   *zap.Logger
	subs  event.Subscriptions
	live  map[int]struct{} // worlds created since Bind, guarded by mu
}

// NewEngine creates a Lua engine and loads every .lua file in dir in name
// order. A missing dir loads nothing. Call Bind once all scripts are loaded.
func NewEngine(dir string, bus *event.Bus, queue *event.Queue, log *zap.Logger) (*Engine, error) {
	if log == nil {
		log = zap.NewNop()
	}
	e := &Engine{
		vm:    lua.NewState(),
		bus:   bus,
		queue: queue,
		log:   log,
	}
	e.registerAPI()

	if dir != "" {
		if err := e.loadDir(dir); err != nil {
			e.vm.Close()
			return nil, fmt.Errorf("load scripts: %w", err)
		}
	}
	return e, nil
}

func (e *Engine) registerAPI() {
	mod := e.vm.NewTable()
	mod.RawSetString("API_VERSION", lua.LNumber(APIVersion))
	mod.RawSetString("LIFECYCLE_WORLD", lua.LNumber(event.LifecycleWorld))
	mod.RawSetString("dispose_world", e.vm.NewFunction(func(L *lua.LState) int {
		id := L.CheckInt(1)
		if id <= event.LifecycleWorld {
			L.ArgError(1, "not a world id")
			return 0
		}
		event.Emit(e.queue, id, event.WorldDisposed{WorldID: id})
		return 0
	}))
	mod.RawSetString("log", e.vm.NewFunction(func(L *lua.LState) int {
		e.log.Info(L.CheckString(1), zap.String("source", "lua"))
		return 0
	}))
	e.vm.SetGlobal("ecs", mod)
}

// loadDir loads all .lua files in a directory.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// LoadString runs a chunk of Lua source.
func (e *Engine) LoadString(src string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.vm.DoString(src)
}

// Bind subscribes the lifecycle hooks the loaded scripts define and returns
// how many were bound. Calling it again rebinds from scratch.
//
// on_world_disposed only fires for worlds whose creation the engine saw
// since the last Bind, and only once per world. Repeat disposals and ids
// that never belonged to a world are not reported to scripts.
func (e *Engine) Bind() int {
	e.mu.Lock()
	created := e.hook("on_world_created")
	disposed := e.hook("on_world_disposed")
	e.live = make(map[int]struct{})
	e.mu.Unlock()

	e.subs.Dispose()
	if created == nil && disposed == nil {
		return 0
	}
	e.subs.Add(event.TableFor[ecs.WorldCreated](e.bus).Subscribe(event.LifecycleWorld, func(m ecs.WorldCreated) {
		e.mu.Lock()
		e.live[m.WorldID] = struct{}{}
		e.mu.Unlock()
		if created != nil {
			e.call(created, "on_world_created", m.WorldID)
		}
	}))
	e.subs.Add(event.TableFor[event.WorldDisposed](e.bus).Subscribe(event.LifecycleWorld, func(m event.WorldDisposed) {
		e.mu.Lock()
		_, known := e.live[m.WorldID]
		delete(e.live, m.WorldID)
		e.mu.Unlock()
		if known && disposed != nil {
			e.call(disposed, "on_world_disposed", m.WorldID)
		}
	}))

	bound := 0
	if created != nil {
		bound++
	}
	if disposed != nil {
		bound++
	}
	return bound
}

func (e *Engine) hook(name string) *lua.LFunction {
	fn, _ := e.vm.GetGlobal(name).(*lua.LFunction)
	return fn
}

// call runs a hook. Script errors are logged, not propagated: a broken
// script must not take down the publisher.
func (e *Engine) call(fn *lua.LFunction, name string, worldID int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    0,
		Protect: true,
	}, lua.LNumber(worldID)); err != nil {
		e.log.Error("lua hook failed", zap.String("hook", name), zap.Int("world", worldID), zap.Error(err))
	}
}

// Global returns a global Lua value as a Go value: numbers become float64,
// strings string, booleans bool, anything else nil.
func (e *Engine) Global(name string) any {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch v := e.vm.GetGlobal(name).(type) {
	case lua.LNumber:
		return float64(v)
	case lua.LString:
		return string(v)
	case lua.LBool:
		return bool(v)
	default:
		return nil
	}
}

// Close unbinds the hooks and shuts down the VM.
func (e *Engine) Close() {
	e.subs.Dispose()
	e.mu.Lock()
	defer e.mu.Unlock()
	e.vm.Close()
}
