package ecs

import (
	"container/heap"
	"sync"

	"github.com/emberline/ecscore/internal/core/event"
)

// WorldIDs hands out world ids. Ids start above event.LifecycleWorld and a
// released id is reused before a new one is minted, lowest first.
type WorldIDs struct {
	mu    sync.Mutex
	next  int
	freed idHeap
}

func NewWorldIDs() *WorldIDs {
	return &WorldIDs{next: event.LifecycleWorld + 1}
}

// Acquire returns an unused id.
func (a *WorldIDs) Acquire() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.freed.Len() > 0 {
		return heap.Pop(&a.freed).(int)
	}
	id := a.next
	a.next++
	return id
}

// Release makes id available again.
func (a *WorldIDs) Release(id int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	heap.Push(&a.freed, id)
}

type idHeap []int

func (h idHeap) Len() int           { return len(h) }
func (h idHeap) Less(i, j int) bool { return h[i] < h[j] }
func (h idHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *idHeap) Push(x any)        { *h = append(*h, x.(int)) }
func (h *idHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
