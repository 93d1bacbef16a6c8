package event

import "sync"

// Subscription is the handle returned by Table.Subscribe. Disposing it is the
// only way to remove the handler it was issued for.
type Subscription struct {
	once   sync.Once
	remove func()
}

// Dispose removes the handler. Calling it again, or after the world's chain
// was already cleared, does nothing.
func (s *Subscription) Dispose() {
	if s == nil {
		return
	}
	s.once.Do(s.remove)
}

// Subscriptions collects handles so that an owner can dispose them together.
type Subscriptions []*Subscription

// Add appends s and returns the receiver for chaining.
func (ss *Subscriptions) Add(s *Subscription) *Subscriptions {
	*ss = append(*ss, s)
	return ss
}

// Dispose disposes every collected handle in reverse order and forgets them.
func (ss *Subscriptions) Dispose() {
	for i := len(*ss) - 1; i >= 0; i-- {
		(*ss)[i].Dispose()
	}
	*ss = nil
}
