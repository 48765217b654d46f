// Package termsurface presents recorded frames in a terminal: every instance
// is projected to a character cell, with a per-cell depth test.
package termsurface

import (
	"sync"

	"github.com/gdamore/tcell/v2"

	"github.com/plus3/swarm/gpu"
)

// Glyph is drawn for every visible instance.
const Glyph = '█'

// Surface implements gpu.Surface on a tcell screen.
type Surface struct {
	mu     sync.Mutex
	screen tcell.Screen
	frame  gpu.FrameState
	depth  []float32
	width  int
	height int
}

// New wraps an initialized screen.
func New(screen tcell.Screen) *Surface {
	return &Surface{screen: screen}
}

// Submit replays rc and rasterizes it into the screen's back buffer.
func (s *Surface) Submit(rc *gpu.RecordingContext) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := rc.Replay(&s.frame); err != nil {
		return err
	}
	s.rasterize()
	return nil
}

// Swap shows the back buffer.
func (s *Surface) Swap() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.screen.Show()
	return nil
}

func (s *Surface) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frame.Reset()
}

func (s *Surface) rasterize() {
	s.width, s.height = s.screen.Size()
	cells := s.width * s.height
	if cap(s.depth) < cells {
		s.depth = make([]float32, cells)
	}
	s.depth = s.depth[:cells]
	for i := range s.depth {
		s.depth[i] = s.frame.Depth
	}

	background := tcell.StyleDefault.Background(toColor(s.frame.Clear, 1))
	s.screen.Fill(' ', background)

	w, h := float32(s.width), float32(s.height)
	for _, inst := range s.frame.Visible() {
		p, ok := gpu.Project(s.frame.Transform, inst.Translation(), w, h)
		if !ok {
			continue
		}
		x, y := int(p.X()), int(p.Y())
		if x < 0 || y < 0 || x >= s.width || y >= s.height {
			continue
		}
		// Map NDC depth to [0, 1] so it compares against the cleared depth.
		z := (p.Z() + 1) / 2
		cell := y*s.width + x
		if z >= s.depth[cell] {
			continue
		}
		s.depth[cell] = z
		s.screen.SetContent(x, y, Glyph, nil, background.Foreground(shade(z)))
	}
}

// shade brightens near instances.
func shade(z float32) tcell.Color {
	v := int32(255 - min(max(z, 0), 1)*175)
	return tcell.NewRGBColor(v, v, v)
}

func toColor(c gpu.Color, scale float32) tcell.Color {
	channel := func(v float32) int32 {
		return int32(min(max(v*scale, 0), 1) * 255)
	}
	return tcell.NewRGBColor(channel(c[0]), channel(c[1]), channel(c[2]))
}
