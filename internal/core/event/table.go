package event

import "sync"

// Handler receives one message. Every handler in a publish sees the same
// message value.
type Handler[T any] func(msg T)

// handlerEntry gives each subscription its own identity so that the same
// function subscribed twice is removed one subscription at a time.
type handlerEntry[T any] struct {
	fn Handler[T]
}

// Table routes messages of one type to handler chains indexed by world id.
//
// A chain is never edited in place: subscribe and dispose replace the slot
// with a new slice. Publish takes the current slice under the lock and runs
// the handlers after releasing it, so handlers may subscribe, dispose or
// publish on the same table.
type Table[T any] struct {
	mu    sync.Mutex
	slots [][]*handlerEntry[T]

	// relay makes publishes at any world also run the LifecycleWorld chain.
	// Only the WorldDisposed table sets it.
	relay bool
}

const initialSlots = 2

func newTable[T any]() *Table[T] {
	return &Table[T]{slots: make([][]*handlerEntry[T], initialSlots)}
}

// Subscribe appends fn to the chain of worldID and returns the handle that
// removes it again. worldID must be in [0, MaxWorldID].
func (t *Table[T]) Subscribe(worldID int, fn Handler[T]) *Subscription {
	if worldID < 0 {
		panic("event: negative world id")
	}
	if worldID > MaxWorldID {
		panic("event: world id above MaxWorldID")
	}
	e := &handlerEntry[T]{fn: fn}

	t.mu.Lock()
	t.ensureLength(worldID)
	chain := t.slots[worldID]
	next := make([]*handlerEntry[T], len(chain), len(chain)+1)
	copy(next, chain)
	t.slots[worldID] = append(next, e)
	t.mu.Unlock()

	return &Subscription{remove: func() { t.remove(worldID, e) }}
}

// ensureLength grows slots so that index worldID is valid. Callers hold mu.
func (t *Table[T]) ensureLength(worldID int) {
	if worldID < len(t.slots) {
		return
	}
	n := len(t.slots)
	for n <= worldID {
		if n > MaxWorldID/2 {
			n = worldID + 1
			break
		}
		n *= 2
	}
	grown := make([][]*handlerEntry[T], n)
	copy(grown, t.slots)
	t.slots = grown
}

func (t *Table[T]) remove(worldID int, e *handlerEntry[T]) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if worldID >= len(t.slots) {
		return
	}
	chain := t.slots[worldID]
	for i, cur := range chain {
		if cur != e {
			continue
		}
		if len(chain) == 1 {
			t.slots[worldID] = nil
			return
		}
		next := make([]*handlerEntry[T], 0, len(chain)-1)
		next = append(next, chain[:i]...)
		next = append(next, chain[i+1:]...)
		t.slots[worldID] = next
		return
	}
}

// Publish invokes the chain of worldID in subscription order. Publishing to
// a world nobody subscribed to does nothing.
//
// A panicking handler aborts the publish: the panic reaches the caller and
// the remaining handlers are skipped.
func (t *Table[T]) Publish(worldID int, msg T) {
	chain := t.chain(worldID)
	for _, e := range chain {
		e.fn(msg)
	}
	if t.relay && worldID != LifecycleWorld {
		for _, e := range t.chain(LifecycleWorld) {
			e.fn(msg)
		}
	}
}

func (t *Table[T]) chain(worldID int) []*handlerEntry[T] {
	if worldID < 0 {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if worldID >= len(t.slots) {
		return nil
	}
	return t.slots[worldID]
}

// Len returns the number of handlers subscribed at worldID.
func (t *Table[T]) Len(worldID int) int {
	return len(t.chain(worldID))
}

// Capacity returns the number of world slots currently allocated.
func (t *Table[T]) Capacity() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.slots)
}

// clear empties the chain of worldID. The slot stays allocated. The
// lifecycle world is never cleared, and ids past the allocated slots have
// nothing to clear.
func (t *Table[T]) clear(worldID int) bool {
	if worldID == LifecycleWorld || worldID < 0 {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if worldID >= len(t.slots) {
		return false
	}
	had := len(t.slots[worldID]) > 0
	t.slots[worldID] = nil
	return had
}
