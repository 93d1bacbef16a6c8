// Package component holds the engine's built-in fixed-layout components.
// Every type here must stay eligible for codec.Resolve.
package component

// Position is a point in world space.
type Position struct {
	X, Y, Z float32
}

// Velocity is a displacement per second.
type Velocity struct {
	DX, DY, DZ float32
}

// Health tracks hit points. Regen is applied per second.
type Health struct {
	Current int32
	Max     int32
	Regen   float32
}
