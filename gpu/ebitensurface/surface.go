// Package ebitensurface presents recorded frames in an Ebiten window. Frames are
// replayed on Submit and rasterized on the next Draw, so submission may happen
// on any goroutine while Draw runs on Ebiten's.
package ebitensurface

import (
	"image"
	"image/color"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/plus3/swarm/gpu"
)

// maxBatchVertices keeps each DrawTriangles call addressable by uint16 indices.
const maxBatchVertices = 1<<16 - 4

// Surface implements gpu.Surface on top of Ebiten.
type Surface struct {
	mu       sync.Mutex
	back     *gpu.FrameState
	front    *gpu.FrameState
	hasFrame bool

	geometry gpu.Geometry
	mesh     mesh
	white    *ebiten.Image
	opts     ebiten.DrawTrianglesOptions
}

// New creates a surface drawing every instance with geometry.
func New(geometry gpu.Geometry) *Surface {
	return &Surface{
		back:     &gpu.FrameState{},
		front:    &gpu.FrameState{},
		geometry: geometry,
		opts:     ebiten.DrawTrianglesOptions{AntiAlias: false},
	}
}

// Submit replays rc into the back frame.
func (s *Surface) Submit(rc *gpu.RecordingContext) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return rc.Replay(s.back)
}

// Swap makes the back frame the one drawn by Draw.
func (s *Surface) Swap() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.front, s.back = s.back, s.front
	s.hasFrame = true
	return nil
}

// Cleanup clears the back frame for the next submission.
func (s *Surface) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.back.Reset()
}

// Draw rasterizes the last swapped frame onto screen. It must be called from
// the game's Draw.
func (s *Surface) Draw(screen *ebiten.Image) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.hasFrame {
		return
	}
	if s.white == nil {
		img := ebiten.NewImage(3, 3)
		img.Fill(color.White)
		s.white = img.SubImage(image.Rect(1, 1, 2, 2)).(*ebiten.Image)
	}

	screen.Fill(toRGBA(s.front.Clear))

	bounds := screen.Bounds()
	s.mesh.build(s.front, s.geometry, float32(bounds.Dx()), float32(bounds.Dy()))
	for _, batch := range s.mesh.batches {
		screen.DrawTriangles(batch.vertices, batch.indices, s.white, &s.opts)
	}
}

func toRGBA(c gpu.Color) color.RGBA {
	channel := func(v float32) uint8 {
		return uint8(min(max(v, 0), 1)*255 + 0.5)
	}
	return color.RGBA{R: channel(c[0]), G: channel(c[1]), B: channel(c[2]), A: channel(c[3])}
}
