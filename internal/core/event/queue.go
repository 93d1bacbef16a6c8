package event

import "sync"

// Queue is a double-buffered front end to a Bus. Messages emitted during
// tick N are published in tick N+1, when the dispatch system calls
// SwapBuffers and then DispatchAll.
//
// Emit may be called from any goroutine. SwapBuffers and DispatchAll belong
// to the tick goroutine.
type Queue struct {
	bus   *Bus
	mu    sync.Mutex // protects back
	front []func()
	back  []func()
}

func NewQueue(b *Bus) *Queue {
	return &Queue{
		bus:   b,
		front: make([]func(), 0, 64),
		back:  make([]func(), 0, 64),
	}
}

// Emit queues msg for worldID into the back buffer.
func Emit[T any](q *Queue, worldID int, msg T) {
	t := TableFor[T](q.bus)
	q.mu.Lock()
	q.back = append(q.back, func() { t.Publish(worldID, msg) })
	q.mu.Unlock()
}

// SwapBuffers rotates back to front and starts a new empty back buffer.
func (q *Queue) SwapBuffers() {
	q.mu.Lock()
	clear(q.front)
	q.front, q.back = q.back, q.front[:0]
	q.mu.Unlock()
}

// DispatchAll publishes the front buffer in emission order.
func (q *Queue) DispatchAll() {
	for _, publish := range q.front {
		publish()
	}
}

// Pending returns the number of messages waiting for the next swap.
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.back)
}
