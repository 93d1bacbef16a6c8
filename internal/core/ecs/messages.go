package ecs

// WorldCreated is published on the lifecycle world when NewWorld finishes.
type WorldCreated struct {
	WorldID int
}

// EntityCreated is published in the entity's world after it becomes alive.
type EntityCreated struct {
	Entity EntityID
}

// EntityDisposed is published in the entity's world after its components
// were removed.
type EntityDisposed struct {
	Entity EntityID
}
