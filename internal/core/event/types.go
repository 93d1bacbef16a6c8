package event

// LifecycleWorld is the reserved world id on which tables listen for
// WorldDisposed. It is never handed out to a real world and never purged.
const LifecycleWorld = 0

// MaxWorldID is the largest world id a handler can be subscribed at.
const MaxWorldID = 1<<31 - 1

// WorldDisposed announces that a world is gone. Once it has been published,
// the chain of every message type at WorldID is empty.
type WorldDisposed struct {
	WorldID int
}
