package swarm

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/plus3/swarm/ecs"
)

// GridConfig lays out the targets of a rectangular swarm. Every entity starts
// at Origin and travels to its own grid cell.
type GridConfig struct {
	Width   int
	Height  int
	Spacing float32
	Gap     float32
	Z       float32
	Step    float32
	Origin  mgl32.Vec3
}

// DefaultGrid is a 100x100 grid of cubes two units apart, one unit above the
// ground plane.
func DefaultGrid() GridConfig {
	return GridConfig{
		Width:   100,
		Height:  100,
		Spacing: 2,
		Z:       1,
		Step:    0.05,
	}
}

// Len returns the number of entities the grid spawns.
func (c GridConfig) Len() int {
	return c.Width * c.Height
}

// TargetAt returns the target of the cell in column x and row y. The grid is
// centred on the origin.
func (c GridConfig) TargetAt(x, y int) mgl32.Vec3 {
	pitch := c.Spacing + c.Gap
	return mgl32.Vec3{
		(float32(x) - float32(c.Width-1)/2) * pitch,
		(float32(y) - float32(c.Height-1)/2) * pitch,
		c.Z,
	}
}

// SeedGrid spawns one entity per grid cell, row by row, and returns their ids in
// spawn order.
func SeedGrid(storage *ecs.Storage, cfg GridConfig) []ecs.EntityId {
	ids := make([]ecs.EntityId, 0, cfg.Len())
	for y := 0; y < cfg.Height; y++ {
		for x := 0; x < cfg.Width; x++ {
			ids = append(ids, storage.Spawn(
				Position{V: cfg.Origin},
				MoveTarget{Target: cfg.TargetAt(x, y), Step: cfg.Step},
			))
		}
	}
	return ids
}
