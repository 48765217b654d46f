package swarm

import (
	"github.com/plus3/swarm/ecs"
)

// Step moves p toward m.Target by m.Step. Once the remaining distance is at or
// below the step, p lands exactly on the target and further steps leave it there.
func Step(p *Position, m *MoveTarget) {
	offset := p.V.Sub(m.Target)
	distance := offset.Len()

	var f float32
	if distance > 0 {
		f = max(distance-m.Step, 0) / distance
	}
	p.V = m.Target.Add(offset.Mul(f))
}

// NewMovementSystem returns the Simulate system stepping every entity that has
// both a Position and a MoveTarget.
func NewMovementSystem(storage *ecs.Storage) ecs.System {
	movers := ecs.NewQuery[struct {
		*Position
		MoveTarget
	}](storage)

	return ecs.System{
		Name:  "movement",
		Phase: ecs.Simulate,
		Access: ecs.NewAccess().
			Write(ecs.TypeFor[Position]()).
			Read(ecs.TypeFor[MoveTarget]()),
		Handles: []ecs.Handle{movers},
		Run: func(*ecs.UpdateFrame) error {
			for mover := range movers.Values() {
				Step(mover.Position, &mover.MoveTarget)
			}
			return nil
		},
	}
}
