package swarm

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/plus3/swarm/ecs"
)

// Position is where an entity currently is. Only the movement system writes it.
type Position struct {
	V mgl32.Vec3
}

// MoveTarget is the point an entity travels to and the distance it covers per
// tick. It is fixed once the entity is spawned.
type MoveTarget struct {
	Target mgl32.Vec3
	Step   float32
}

// ViewProjection is the transform applied to every instance when drawing. It
// lives in the storage as a singleton and is replaced by the camera controller
// between ticks.
type ViewProjection struct {
	Transform mgl32.Mat4
}

// RegisterComponents registers the component kinds used by the swarm systems.
func RegisterComponents(registry *ecs.ComponentRegistry) {
	ecs.RegisterComponent[Position](registry)
	ecs.RegisterComponent[MoveTarget](registry)
}

// NewRegistry returns a registry with the swarm components registered.
func NewRegistry() *ecs.ComponentRegistry {
	registry := ecs.NewComponentRegistry()
	RegisterComponents(registry)
	return registry
}
