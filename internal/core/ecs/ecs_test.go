package ecs

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/emberline/ecscore/internal/core/event"
)

type position struct{ X, Y float32 }
type velocity struct{ DX, DY float32 }

func newTestWorld(t *testing.T) (*World, *event.Bus, *WorldIDs) {
	bus := event.NewBus(zaptest.NewLogger(t))
	ids := NewWorldIDs()
	return NewWorld("test", bus, ids), bus, ids
}

func TestEntityPoolGenerations(t *testing.T) {
	p := NewEntityPool()
	a := p.Create()
	b := p.Create()
	assert.Equal(t, uint32(0), a.Index())
	assert.Equal(t, uint32(1), b.Index())
	assert.Equal(t, 2, p.Len())

	assert.True(t, p.Destroy(a))
	assert.False(t, p.Alive(a))
	assert.False(t, p.Destroy(a), "stale destroy")

	c := p.Create()
	assert.Equal(t, a.Index(), c.Index())
	assert.Equal(t, uint32(1), c.Generation())
	assert.True(t, p.Alive(c))
	assert.False(t, p.Alive(a))
}

func TestEntityPoolRestoreRejectsHugeIndex(t *testing.T) {
	p := NewEntityPool()
	err := p.Restore(NewEntityID(0xFFFFFFFF, 1))
	assert.ErrorIs(t, err, ErrEntityIndexRange)
	assert.Equal(t, 0, p.Len())
	assert.False(t, p.Alive(NewEntityID(MaxRestoreIndex+1, 0)))

	require.NoError(t, p.Restore(NewEntityID(MaxRestoreIndex, 0)))
}

func TestEntityPoolRestore(t *testing.T) {
	p := NewEntityPool()
	id := NewEntityID(3, 7)
	require.NoError(t, p.Restore(id))
	assert.True(t, p.Alive(id))
	assert.Equal(t, 1, p.Len())
	assert.Error(t, p.Restore(NewEntityID(3, 8)))

	// Indices below the restored one are still available.
	seen := map[uint32]bool{}
	for i := 0; i < 3; i++ {
		seen[p.Create().Index()] = true
	}
	assert.Equal(t, map[uint32]bool{0: true, 1: true, 2: true}, seen)
	assert.Equal(t, uint32(4), p.Create().Index())
}

func TestWorldIDsReuseLowestFirst(t *testing.T) {
	ids := NewWorldIDs()
	a, b, c := ids.Acquire(), ids.Acquire(), ids.Acquire()
	assert.Equal(t, []int{1, 2, 3}, []int{a, b, c})

	ids.Release(c)
	ids.Release(a)
	assert.Equal(t, 1, ids.Acquire())
	assert.Equal(t, 3, ids.Acquire())
	assert.Equal(t, 4, ids.Acquire())
}

func TestWorldIDsConcurrent(t *testing.T) {
	ids := NewWorldIDs()
	var mu sync.Mutex
	seen := map[int]bool{}
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := ids.Acquire()
			mu.Lock()
			defer mu.Unlock()
			assert.False(t, seen[id], "id %d handed out twice", id)
			seen[id] = true
		}()
	}
	wg.Wait()
	assert.Len(t, seen, 50)
}

func TestStoreOfIsCachedPerWorld(t *testing.T) {
	w, _, _ := newTestWorld(t)
	s1 := StoreOf[position](w)
	s2 := StoreOf[position](w)
	assert.Same(t, s1, s2)
	assert.Len(t, w.Registry().stores, 1)
}

func TestFlushDestroyQueueRemovesComponents(t *testing.T) {
	w, bus, _ := newTestWorld(t)
	var disposed []EntityID
	event.TableFor[EntityDisposed](bus).Subscribe(w.ID(), func(m EntityDisposed) {
		disposed = append(disposed, m.Entity)
	})

	e := w.CreateEntity()
	StoreOf[position](w).Set(e, &position{X: 1})
	StoreOf[velocity](w).Set(e, &velocity{DX: 1})

	w.MarkForDestruction(e)
	w.MarkForDestruction(e)
	w.FlushDestroyQueue()

	assert.False(t, w.Alive(e))
	assert.False(t, StoreOf[position](w).Has(e))
	assert.False(t, StoreOf[velocity](w).Has(e))
	assert.Equal(t, []EntityID{e}, disposed)
}

func TestEntitySetFollowsWorld(t *testing.T) {
	w, _, _ := newTestWorld(t)
	set := NewEntitySet()
	subs := Attach(w, set)

	a := w.CreateEntity()
	b := w.CreateEntity()
	assert.Equal(t, []EntityID{a, b}, set.IDs())

	w.MarkForDestruction(a)
	w.FlushDestroyQueue()
	assert.False(t, set.Has(a))
	assert.True(t, set.Has(b))

	subs.Dispose()
	w.CreateEntity()
	assert.Equal(t, 1, set.Len())
}

func TestEntitySetFilter(t *testing.T) {
	w, _, _ := newTestWorld(t)
	set := NewEntitySet()
	set.Filter = func(id EntityID) bool { return id.Index()%2 == 0 }
	Attach(w, set)

	for i := 0; i < 4; i++ {
		w.CreateEntity()
	}
	assert.Equal(t, 2, set.Len())
}

func TestWorldDisposeDetachesContainersAndFreesID(t *testing.T) {
	bus := event.NewBus(zaptest.NewLogger(t))
	ids := NewWorldIDs()

	var created []int
	event.TableFor[WorldCreated](bus).Subscribe(event.LifecycleWorld, func(m WorldCreated) {
		created = append(created, m.WorldID)
	})

	w1 := NewWorld("one", bus, ids)
	w2 := NewWorld("two", bus, ids)
	assert.Equal(t, []int{1, 2}, created)

	s1, s2 := NewEntitySet(), NewEntitySet()
	Attach(w1, s1)
	Attach(w2, s2)

	w1.Dispose()
	w1.Dispose()
	assert.True(t, w1.Disposed())

	// A new world reuses the id; the old set no longer listens on it.
	w3 := NewWorld("three", bus, ids)
	assert.Equal(t, w1.ID(), w3.ID())
	w3.CreateEntity()
	w2.CreateEntity()
	assert.Equal(t, 0, s1.Len())
	assert.Equal(t, 1, s2.Len())
}

func TestWorldNoticesDisposeFromBus(t *testing.T) {
	bus := event.NewBus(zaptest.NewLogger(t))
	ids := NewWorldIDs()
	w := NewWorld("one", bus, ids)

	disposed := 0
	event.TableFor[event.WorldDisposed](bus).Subscribe(event.LifecycleWorld, func(event.WorldDisposed) {
		disposed++
	})

	event.DisposeWorld(bus, w.ID())
	assert.True(t, w.Disposed())
	assert.Equal(t, w.ID(), ids.Acquire())

	w.Dispose()
	assert.Equal(t, 1, disposed)
}

func TestWorldNoticesDisposeOnLifecycleWorld(t *testing.T) {
	bus := event.NewBus(zaptest.NewLogger(t))
	ids := NewWorldIDs()
	w1 := NewWorld("one", bus, ids)
	w2 := NewWorld("two", bus, ids)
	lifecycle := event.TableFor[event.WorldDisposed](bus)
	before := lifecycle.Len(event.LifecycleWorld)

	event.Publish(bus, event.LifecycleWorld, event.WorldDisposed{WorldID: w1.ID()})
	assert.True(t, w1.Disposed())
	assert.False(t, w2.Disposed())
	assert.Equal(t, before-1, lifecycle.Len(event.LifecycleWorld), "listener removes itself")

	// A dispose for w2 published at an unrelated world still reaches it.
	event.Publish(bus, 42, event.WorldDisposed{WorldID: w2.ID()})
	assert.True(t, w2.Disposed())

	assert.Equal(t, w1.ID(), ids.Acquire())
	assert.Equal(t, w2.ID(), ids.Acquire())
}

func TestEach2VisitsIntersectionInOrder(t *testing.T) {
	w, _, _ := newTestWorld(t)
	pos := StoreOf[position](w)
	vel := StoreOf[velocity](w)

	var both []EntityID
	for i := 0; i < 6; i++ {
		e := w.CreateEntity()
		pos.Set(e, &position{})
		if i%2 == 0 {
			vel.Set(e, &velocity{DX: 1})
			both = append(both, e)
		}
	}

	var visited []EntityID
	Each2(pos, vel, func(id EntityID, p *position, v *velocity) {
		p.X += v.DX
		visited = append(visited, id)
	})
	assert.Equal(t, both, visited)
	for _, id := range both {
		p, _ := pos.Get(id)
		assert.Equal(t, float32(1), p.X)
	}
}

func TestRestoreAnnouncesEntity(t *testing.T) {
	w, _, _ := newTestWorld(t)
	set := NewEntitySet()
	Attach(w, set)

	id := NewEntityID(5, 2)
	require.NoError(t, w.Restore(id))
	assert.True(t, set.Has(id))
	assert.Error(t, w.Restore(id))
}
