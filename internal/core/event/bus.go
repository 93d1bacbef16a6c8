package event

import (
	"reflect"
	"sync"

	"go.uber.org/zap"
)

// Bus owns one Table per message type. Tables are created on first use and
// live as long as the bus. Every table listens for WorldDisposed at
// LifecycleWorld and empties the disposed world's chain.
type Bus struct {
	log *zap.Logger

	mu     sync.Mutex // serializes table creation
	tables sync.Map   // reflect.Type -> *Table[T]

	lifecycle *Table[WorldDisposed]
}

func NewBus(log *zap.Logger) *Bus {
	if log == nil {
		log = zap.NewNop()
	}
	b := &Bus{log: log}

	// The lifecycle table cleans up after itself directly instead of going
	// through TableFor, which would subscribe it to its own construction.
	lc := newTable[WorldDisposed]()
	lc.relay = true
	lc.Subscribe(LifecycleWorld, func(m WorldDisposed) {
		lc.clear(m.WorldID)
		b.log.Debug("world purged", zap.Int("world", m.WorldID))
	})
	b.lifecycle = lc
	b.tables.Store(reflect.TypeFor[WorldDisposed](), lc)
	return b
}

var defaultBus = sync.OnceValue(func() *Bus { return NewBus(nil) })

// Default returns the process-wide bus.
func Default() *Bus {
	return defaultBus()
}

// TableFor returns the table for T, creating it on first use.
func TableFor[T any](b *Bus) *Table[T] {
	key := reflect.TypeFor[T]()
	if t, ok := b.tables.Load(key); ok {
		return t.(*Table[T])
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if t, ok := b.tables.Load(key); ok {
		return t.(*Table[T])
	}

	t := newTable[T]()
	b.lifecycle.Subscribe(LifecycleWorld, func(m WorldDisposed) {
		t.clear(m.WorldID)
	})
	b.tables.Store(key, t)
	b.log.Debug("message table created", zap.Stringer("type", key))
	return t
}

// Subscribe adds fn to the subscribers of T at worldID.
func Subscribe[T any](b *Bus, worldID int, fn Handler[T]) *Subscription {
	return TableFor[T](b).Subscribe(worldID, fn)
}

// Publish delivers msg to the subscribers of T at worldID.
func Publish[T any](b *Bus, worldID int, msg T) {
	TableFor[T](b).Publish(worldID, msg)
}

// DisposeWorld publishes WorldDisposed for worldID. Observers subscribed at
// worldID run first, then every table's chain at worldID is emptied.
func DisposeWorld(b *Bus, worldID int) {
	b.lifecycle.Publish(worldID, WorldDisposed{WorldID: worldID})
}

// Tables returns the number of message types known to the bus.
func (b *Bus) Tables() int {
	n := 0
	b.tables.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
