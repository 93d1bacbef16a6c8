package event

import (
	"math"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type ping struct {
	Value int
}

type pong struct {
	Text string
}

func newTestBus(t *testing.T) *Bus {
	return NewBus(zaptest.NewLogger(t))
}

func TestPublishIsScopedToWorld(t *testing.T) {
	b := newTestBus(t)
	var w1, w2 []int
	TableFor[ping](b).Subscribe(1, func(m ping) { w1 = append(w1, m.Value) })
	TableFor[ping](b).Subscribe(2, func(m ping) { w2 = append(w2, m.Value) })

	Publish(b, 2, ping{Value: 20})
	Publish(b, 1, ping{Value: 10})

	assert.Equal(t, []int{10}, w1)
	assert.Equal(t, []int{20}, w2)
}

func TestSubscribeGoesThroughTheTable(t *testing.T) {
	b := newTestBus(t)
	got := 0
	sub := Subscribe(b, 3, func(m pong) { got++ })
	assert.Equal(t, 1, TableFor[pong](b).Len(3))

	Publish(b, 3, pong{Text: "x"})
	sub.Dispose()
	Publish(b, 3, pong{Text: "y"})
	assert.Equal(t, 1, got)
}

func TestHandlersRunInSubscriptionOrder(t *testing.T) {
	b := newTestBus(t)
	tbl := TableFor[ping](b)
	var calls []string
	tbl.Subscribe(3, func(ping) { calls = append(calls, "h1") })
	tbl.Subscribe(3, func(ping) { calls = append(calls, "h2") })
	tbl.Subscribe(3, func(ping) { calls = append(calls, "h3") })

	Publish(b, 3, ping{})
	assert.Equal(t, []string{"h1", "h2", "h3"}, calls)
}

func TestDisposeRemovesOnlyItsHandler(t *testing.T) {
	b := newTestBus(t)
	tbl := TableFor[ping](b)
	var calls []string
	tbl.Subscribe(3, func(ping) { calls = append(calls, "h1") })
	s2 := tbl.Subscribe(3, func(ping) { calls = append(calls, "h2") })
	tbl.Subscribe(3, func(ping) { calls = append(calls, "h3") })

	s2.Dispose()
	Publish(b, 3, ping{})
	assert.Equal(t, []string{"h1", "h3"}, calls)

	// A second dispose is a no-op.
	s2.Dispose()
	calls = nil
	Publish(b, 3, ping{})
	assert.Equal(t, []string{"h1", "h3"}, calls)
	assert.Equal(t, 2, tbl.Len(3))
}

func TestSameHandlerSubscribedTwice(t *testing.T) {
	b := newTestBus(t)
	tbl := TableFor[ping](b)
	n := 0
	h := func(ping) { n++ }
	s1 := tbl.Subscribe(1, h)
	tbl.Subscribe(1, h)

	s1.Dispose()
	Publish(b, 1, ping{})
	assert.Equal(t, 1, n)
}

func TestAllHandlersSeeTheSameMessage(t *testing.T) {
	b := newTestBus(t)
	tbl := TableFor[ping](b)
	var seen []int
	tbl.Subscribe(1, func(m ping) {
		m.Value = 99
		seen = append(seen, m.Value)
	})
	tbl.Subscribe(1, func(m ping) { seen = append(seen, m.Value) })

	Publish(b, 1, ping{Value: 5})
	assert.Equal(t, []int{99, 5}, seen)
}

func TestPublishToUnknownWorldIsNoop(t *testing.T) {
	b := newTestBus(t)
	called := false
	TableFor[ping](b).Subscribe(1, func(ping) { called = true })

	assert.NotPanics(t, func() {
		Publish(b, 1000, ping{})
		Publish(b, -1, ping{})
		Publish(b, 0, pong{})
	})
	assert.False(t, called)
}

func TestGrowthKeepsExistingHandles(t *testing.T) {
	b := newTestBus(t)
	tbl := TableFor[ping](b)
	n := 0
	low := tbl.Subscribe(1, func(ping) { n++ })
	tbl.Subscribe(100, func(ping) {})
	assert.GreaterOrEqual(t, tbl.Capacity(), 101)

	Publish(b, 1, ping{})
	assert.Equal(t, 1, n)

	low.Dispose()
	Publish(b, 1, ping{})
	assert.Equal(t, 1, n)
}

func TestSubscribeRejectsWorldIDOutOfRange(t *testing.T) {
	b := newTestBus(t)
	tbl := TableFor[ping](b)
	before := tbl.Capacity()

	assert.Panics(t, func() { tbl.Subscribe(-1, func(ping) {}) })
	assert.Panics(t, func() { tbl.Subscribe(math.MaxInt, func(ping) {}) })
	assert.Equal(t, before, tbl.Capacity())

	assert.NotPanics(t, func() { Publish(b, math.MaxInt, ping{}) })
}

func TestWorldDisposedClearsEveryTable(t *testing.T) {
	b := newTestBus(t)
	var got []string
	TableFor[ping](b).Subscribe(4, func(ping) { got = append(got, "ping@4") })
	TableFor[pong](b).Subscribe(4, func(pong) { got = append(got, "pong@4") })
	TableFor[ping](b).Subscribe(5, func(ping) { got = append(got, "ping@5") })

	Publish(b, 4, WorldDisposed{WorldID: 4})

	Publish(b, 4, ping{})
	Publish(b, 4, pong{})
	Publish(b, 5, ping{})
	assert.Equal(t, []string{"ping@5"}, got)

	// The slot stays valid for reuse.
	TableFor[ping](b).Subscribe(4, func(ping) { got = append(got, "reused@4") })
	Publish(b, 4, ping{})
	assert.Equal(t, []string{"ping@5", "reused@4"}, got)
}

func TestWorldDisposedOnLifecycleWorld(t *testing.T) {
	b := newTestBus(t)
	n := 0
	TableFor[ping](b).Subscribe(6, func(ping) { n++ })

	Publish(b, LifecycleWorld, WorldDisposed{WorldID: 6})
	Publish(b, 6, ping{})
	assert.Equal(t, 0, n)
}

func TestDisposeWorldNotifiesWorldObserversFirst(t *testing.T) {
	b := newTestBus(t)
	var seen []int
	TableFor[WorldDisposed](b).Subscribe(7, func(m WorldDisposed) {
		seen = append(seen, m.WorldID)
	})

	DisposeWorld(b, 7)
	assert.Equal(t, []int{7}, seen)
	assert.Equal(t, 0, TableFor[WorldDisposed](b).Len(7))

	DisposeWorld(b, 7)
	assert.Equal(t, []int{7}, seen)
}

func TestLifecycleWorldIsNeverPurged(t *testing.T) {
	b := newTestBus(t)
	n := 0
	TableFor[ping](b).Subscribe(LifecycleWorld, func(ping) { n++ })
	TableFor[ping](b).Subscribe(2, func(ping) {})

	DisposeWorld(b, LifecycleWorld)
	DisposeWorld(b, 500) // beyond every table's capacity

	Publish(b, LifecycleWorld, ping{})
	assert.Equal(t, 1, n)

	// Cleanup still works afterwards.
	DisposeWorld(b, 2)
	assert.Equal(t, 0, TableFor[ping](b).Len(2))
}

func TestDisposeAfterWorldPurgeIsNoop(t *testing.T) {
	b := newTestBus(t)
	tbl := TableFor[ping](b)
	s := tbl.Subscribe(3, func(ping) {})
	DisposeWorld(b, 3)

	n := 0
	tbl.Subscribe(3, func(ping) { n++ })
	s.Dispose()

	Publish(b, 3, ping{})
	assert.Equal(t, 1, n)
}

func TestHandlerPanicAbortsPublish(t *testing.T) {
	b := newTestBus(t)
	tbl := TableFor[ping](b)
	var calls []string
	tbl.Subscribe(1, func(ping) { calls = append(calls, "h1") })
	tbl.Subscribe(1, func(ping) { panic("boom") })
	tbl.Subscribe(1, func(ping) { calls = append(calls, "h3") })

	assert.PanicsWithValue(t, "boom", func() { Publish(b, 1, ping{}) })
	assert.Equal(t, []string{"h1"}, calls)
}

func TestHandlersMayReenterTable(t *testing.T) {
	b := newTestBus(t)
	tbl := TableFor[ping](b)
	var inner *Subscription
	n := 0
	tbl.Subscribe(1, func(m ping) {
		if m.Value == 0 {
			inner = tbl.Subscribe(1, func(ping) { n++ })
			Publish(b, 1, ping{Value: 1})
		}
	})

	Publish(b, 1, ping{})
	// The nested publish saw the newly added handler; the outer publish
	// kept the chain it started with.
	assert.Equal(t, 1, n)
	inner.Dispose()
	assert.Equal(t, 1, tbl.Len(1))
}

// A publish that races a dispose may still run the disposed handler once: the
// chain a publish takes is authoritative for that publish. This test only
// checks that the race is safe; it does not assert on the count.
func TestPublishRacingDisposeIsSafe(t *testing.T) {
	b := newTestBus(t)
	tbl := TableFor[ping](b)
	var n atomic.Int64
	s := tbl.Subscribe(1, func(ping) { n.Add(1) })

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			Publish(b, 1, ping{})
		}
	}()
	go func() {
		defer wg.Done()
		s.Dispose()
	}()
	wg.Wait()

	before := n.Load()
	Publish(b, 1, ping{})
	assert.Equal(t, before, n.Load())
}

func TestConcurrentSubscribeDispose(t *testing.T) {
	b := newTestBus(t)
	tbl := TableFor[ping](b)

	const (
		subscribers = 200
		disposals   = 120
		world       = 9
	)
	var fired [subscribers]atomic.Int32
	subs := make([]*Subscription, subscribers)

	var wg sync.WaitGroup
	for i := 0; i < subscribers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			subs[i] = tbl.Subscribe(world, func(ping) { fired[i].Add(1) })
			Publish(b, world+1, ping{}) // unrelated traffic on the same table
		}(i)
	}
	wg.Wait()

	for i := 0; i < disposals; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			subs[i].Dispose()
			subs[i].Dispose()
		}(i)
	}
	wg.Wait()

	require.Equal(t, subscribers-disposals, tbl.Len(world))

	Publish(b, world, ping{})
	for i := 0; i < subscribers; i++ {
		want := int32(1)
		if i < disposals {
			want = 0
		}
		assert.Equal(t, want, fired[i].Load(), "handler %d", i)
	}
}

func TestTablesAreCreatedOnce(t *testing.T) {
	b := newTestBus(t)
	base := b.Tables()

	var wg sync.WaitGroup
	tables := make([]*Table[pong], 16)
	for i := range tables {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tables[i] = TableFor[pong](b)
		}(i)
	}
	wg.Wait()

	for _, tbl := range tables {
		assert.Same(t, tables[0], tbl)
	}
	assert.Equal(t, base+1, b.Tables())
	// Lifecycle self-cleanup plus one cleanup per created table.
	assert.Equal(t, base+1, b.lifecycle.Len(LifecycleWorld))
}

func TestDefaultBusIsShared(t *testing.T) {
	assert.Same(t, Default(), Default())
}

func TestSubscriptionsDispose(t *testing.T) {
	b := newTestBus(t)
	tbl := TableFor[ping](b)
	var ss Subscriptions
	ss.Add(tbl.Subscribe(1, func(ping) {})).Add(tbl.Subscribe(1, func(ping) {}))
	assert.Equal(t, 2, tbl.Len(1))

	ss.Dispose()
	assert.Equal(t, 0, tbl.Len(1))
	assert.Empty(t, ss)
}
