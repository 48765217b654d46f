package ebitensurface

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/plus3/swarm/swarm"
)

var keys = map[ebiten.Key]swarm.Key{
	ebiten.KeyW:      swarm.KeyW,
	ebiten.KeyA:      swarm.KeyA,
	ebiten.KeyS:      swarm.KeyS,
	ebiten.KeyD:      swarm.KeyD,
	ebiten.KeyQ:      swarm.KeyQ,
	ebiten.KeyE:      swarm.KeyE,
	ebiten.KeyEscape: swarm.KeyEscape,
}

// Input reads Ebiten's keyboard and wheel state. Poll must be called from the
// game's Update.
type Input struct {
	events []swarm.InputEvent
	// Suppress drops keyboard and wheel input while it returns true, e.g.
	// while a debug overlay has focus.
	Suppress func() bool
}

func (in *Input) Poll() []swarm.InputEvent {
	in.events = in.events[:0]
	if ebiten.IsWindowBeingClosed() {
		return append(in.events, swarm.QuitEvent())
	}
	if in.Suppress != nil && in.Suppress() {
		return in.events
	}

	for k, key := range keys {
		if inpututil.IsKeyJustPressed(k) {
			in.events = append(in.events, swarm.KeyEvent(key, true))
		}
		if inpututil.IsKeyJustReleased(k) {
			in.events = append(in.events, swarm.KeyEvent(key, false))
		}
	}
	if _, dy := ebiten.Wheel(); dy != 0 {
		in.events = append(in.events, swarm.ScrollEvent(float32(dy)))
	}
	return in.events
}
